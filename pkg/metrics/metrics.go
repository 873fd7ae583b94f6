// Package metrics 提供 Prometheus helper，包含 HTTP 模板与借贷业务指标
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/lendingledger/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 业务指标
	LoansOriginatedTotal prometheus.Counter
	LoansRepaidTotal     prometheus.Counter
	PartialRepayments    prometheus.Counter
	LoansActive          prometheus.Gauge
	PoolFundingTotal     prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		LoansOriginatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "loans_originated_total",
			Help:      "Total loans originated",
		}),
		LoansRepaidTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "loans_repaid_total",
			Help:      "Total loans fully repaid and closed",
		}),
		PartialRepayments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "partial_repayments_total",
			Help:      "Total partial repayments applied",
		}),
		LoansActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "loans_active",
			Help:      "Number of active loans",
		}),
		PoolFundingTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "pool_funding_total",
			Help:      "Total stable asset funded into the pool (smallest units)",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoansOriginatedTotal,
		m.LoansRepaidTotal,
		m.PartialRepayments,
		m.LoansActive,
		m.PoolFundingTotal,
	}

	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// ExposeHTTP 启动独立的指标 HTTP 服务
func (m *Metrics) ExposeHTTP(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "metrics server starting", "addr", addr, "path", path)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error(context.Background(), "metrics server exited", "error", err)
	}
}
