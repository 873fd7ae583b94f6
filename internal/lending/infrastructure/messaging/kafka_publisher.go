// Package messaging 账本事件发布实现。
package messaging

import (
	"context"

	"github.com/wyfcoding/lendingledger/pkg/mq"
)

// KafkaEventPublisher 基于 Kafka 的事件发布器。
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
}

// NewKafkaEventPublisher 创建 Kafka 事件发布器。
func NewKafkaEventPublisher(producer *mq.KafkaProducer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

// Publish 发布事件，负载序列化为 JSON。
func (p *KafkaEventPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	return p.producer.SendMessage(ctx, topic, key, payload)
}

// NoopEventPublisher 空实现，Kafka 未启用时使用。
type NoopEventPublisher struct{}

// Publish 丢弃事件。
func (NoopEventPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	return nil
}
