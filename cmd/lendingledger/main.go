package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/lendingledger/internal/lending/application"
	"github.com/wyfcoding/lendingledger/internal/lending/domain"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/custody"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/messaging"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/oracle"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/persistence"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/persistence/memory"
	"github.com/wyfcoding/lendingledger/internal/lending/infrastructure/persistence/mysql"
	redisrepo "github.com/wyfcoding/lendingledger/internal/lending/infrastructure/persistence/redis"
	httpserver "github.com/wyfcoding/lendingledger/internal/lending/interfaces/http"
	"github.com/wyfcoding/lendingledger/pkg/cache"
	"github.com/wyfcoding/lendingledger/pkg/config"
	"github.com/wyfcoding/lendingledger/pkg/db"
	"github.com/wyfcoding/lendingledger/pkg/logger"
	"github.com/wyfcoding/lendingledger/pkg/metrics"
	"github.com/wyfcoding/lendingledger/pkg/mq"
)

var configPath = flag.String("config", "configs/lendingledger/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	ctx := context.Background()
	logger.Info(ctx, "starting service", "service", cfg.ServiceName, "version", cfg.Version, "env", cfg.Environment)

	// 3. 初始化指标
	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		logger.Fatal(ctx, "failed to register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		go m.ExposeHTTP(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 4. 初始化仓储与托管网关
	var (
		repo           domain.LedgerRepository
		custodyGateway domain.CustodyGateway
	)
	switch cfg.Database.Driver {
	case "mysql":
		database, err := db.Init(db.Config{
			Driver:             cfg.Database.Driver,
			DSN:                cfg.Database.DSN,
			MaxOpenConns:       cfg.Database.MaxOpenConns,
			MaxIdleConns:       cfg.Database.MaxIdleConns,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
			LogEnabled:         cfg.Database.LogEnabled,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		})
		if err != nil {
			logger.Fatal(ctx, "failed to connect database", "error", err)
		}
		defer database.Close()

		// Auto Migrate (仅用于开发方便)
		if cfg.Environment == "dev" {
			if err := database.AutoMigrate(&domain.UserLedger{}, &domain.Loan{}, &custody.AssetAccount{}); err != nil {
				logger.Error(ctx, "failed to migrate database", "error", err)
			}
		}

		repo = mysql.NewLedgerRepository(database)
		custodyGateway = custody.NewMySQLGateway(database)
	case "memory":
		memGateway := custody.NewMemoryGateway()
		if cfg.Lending.InitialPoolReserve > 0 {
			memGateway.Mint(ctx, "treasury", cfg.Lending.StableAsset, cfg.Lending.InitialPoolReserve)
		}
		repo = memory.NewLedgerRepository()
		custodyGateway = memGateway
	default:
		logger.Fatal(ctx, "unsupported database driver", "driver", cfg.Database.Driver)
	}

	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			logger.Fatal(ctx, "failed to init redis", "error", err)
		}
		defer redisCache.Close()
		repo = persistence.NewCachedLedgerRepository(repo, redisrepo.NewLedgerCache(redisCache))
	}

	// 5. 初始化报价源与事件发布
	var priceOracle domain.PriceOracle
	if cfg.Lending.OracleBaseURL != "" {
		priceOracle = oracle.NewHTTPOracle(cfg.Lending.OracleBaseURL, 5*time.Second)
	} else {
		priceOracle = oracle.NewStaticOracle(cfg.Lending.StaticPrice)
	}

	var publisher domain.EventPublisher = messaging.NoopEventPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "failed to create kafka producer", "error", err)
		}
		defer producer.Close()
		publisher = messaging.NewKafkaEventPublisher(producer)
	}

	// 6. 初始化应用服务
	svc := application.NewLendingService(repo, custodyGateway, priceOracle, publisher, m, application.Assets{
		Collateral:  cfg.Lending.CollateralAsset,
		Stable:      cfg.Lending.StableAsset,
		PriceFeedID: cfg.Lending.PriceFeedID,
	})

	// 启动时注入资金池初始储备
	if cfg.Lending.InitialPoolReserve > 0 {
		if err := svc.FundPool(ctx, "treasury", cfg.Lending.InitialPoolReserve); err != nil {
			logger.Error(ctx, "failed to fund initial pool reserve", "error", err)
		}
	}

	// 7. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), httpserver.RequestID(), httpserver.Metrics(m))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	httpserver.NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 8. 启动与优雅关闭
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(ctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			logger.Info(ctx, "shutting down server...")
		case <-gctx.Done():
			logger.Info(ctx, "context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "server exited with error", "error", err)
	}
}
