package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/miniapp-backend/internal/cfg"
	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

// messageWriter — часть kafka.Writer, которой пользуется Producer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer публикует отправленные заказы в топик оператора.
type Producer struct {
	writer messageWriter
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("no kafka brokers configured"))
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return newProducer(writer, logger, cfg), nil
}

func newProducer(writer messageWriter, logger logger.Logger, cfg *cfg.KafkaCfg) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}
}

// PublishOrder синхронно пишет заказ; ключ сообщения — ID заказа.
func (p *Producer) PublishOrder(ctx context.Context, order *domain.Order) error {
	value, err := json.Marshal(ToOrderEvent(order))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	p.logger.Infof("order %s published to %s", order.ID, p.cfg.Topic)
	return nil
}

func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

// Close сбрасывает буфер и закрывает writer. Сигнатура подходит для closer.Add.
func (p *Producer) Close(_ context.Context) error {
	return p.writer.Close()
}
