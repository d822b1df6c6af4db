package events

import (
	"athos_explorer_backend/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher 学习行为事件出口
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Enabled() bool
	Close()
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	// Close 与异步投递的 goroutine 并发读写
	enabled atomic.Bool
}

// NewAMQPPublisher url 为空时返回禁用的实例，Publish 直接成功
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	if url == "" {
		logger.Log.Warn("AMQP url is empty, event publishing is disabled")
		return &AMQPPublisher{exchange: exchange}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}
	p.enabled.Store(true)
	return p, nil
}

func (p *AMQPPublisher) Enabled() bool {
	return p.enabled.Load()
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	if !p.enabled.Load() {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled.Load() {
		return nil
	}

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	logger.Log.Debug("Published event", zap.String("routingKey", routingKey))
	return nil
}

func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled.Store(false)
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// RoutingKey learning.<eventType>
func RoutingKey(eventType string) string {
	return "learning." + eventType
}
