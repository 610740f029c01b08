package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/pkg/config"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

var (
	_ inventory.EventPublisher = (*KafkaPublisher)(nil)
	_ inventory.EventPublisher = (*LogPublisher)(nil)
)

// KafkaPublisher publica eventos del libro en un tópico, con el producto como clave de partición
// para conservar el orden por producto.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewKafkaPublisher crea un productor síncrono idempotente (acks=all).
func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = cfg.Retries
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("crear productor kafka: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, log), nil
}

// NewKafkaPublisherWithProducer usa un productor existente (tests con sarama/mocks).
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaPublisher{producer: producer, topic: topic, log: log}
}

// Publish envía todos los eventos en un solo lote.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...inventory.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(events))
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("serializar evento %s: %w", e.Type, err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(e.ProductID),
			Value: sarama.ByteEncoder(body),
			Headers: []sarama.RecordHeader{
				{Key: []byte("event-type"), Value: []byte(e.Type)},
				{Key: []byte("event-id"), Value: []byte(uuid.New().String())},
				{Key: []byte("timestamp"), Value: []byte(time.Now().UTC().Format(time.RFC3339))},
			},
		})
	}
	if err := p.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("publicar %d eventos en %s: %w", len(msgs), p.topic, err)
	}
	p.log.Debug().Str("topico", p.topic).Int("eventos", len(msgs)).Msg("eventos publicados")
	return nil
}

// Close cierra el productor.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher registra los eventos en el log cuando no hay brokers configurados.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador de respaldo.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, events ...inventory.Event) error {
	for _, e := range events {
		p.log.Info().Str("evento", e.Type).Str("agregado", e.AggregateID).Str("producto", e.ProductID).
			Int64("cantidad", e.Quantity).Msg("evento de inventario")
	}
	return nil
}
