// Package events publishes voice query and speech events to Kafka.
package events

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"kisan-voice-client/internal/models"
	"kisan-voice-client/internal/observability/metrics"
	"kisan-voice-client/internal/schema"
)

// Publisher publishes events to separate Kafka topics.
type Publisher struct {
	writerQuery  *kafka.Writer
	writerSpeech *kafka.Writer
	principal    string
	topicQuery   string
	topicSpeech  string
	enabled      bool
	validator    *schema.Validator
	metrics      *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers     []string
	TopicQuery  string
	TopicSpeech string
	Principal   string
	Enabled     bool
}

// New creates a Kafka event publisher. With a nil or disabled config the
// publisher only logs.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics
	v := schema.New()

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled:   false,
			validator: v,
			metrics:   m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:   cfg.Principal,
			topicQuery:  cfg.TopicQuery,
			topicSpeech: cfg.TopicSpeech,
			enabled:     false,
			validator:   v,
			metrics:     m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicQuery", cfg.TopicQuery).
		Str("topicSpeech", cfg.TopicSpeech).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerQuery:  newWriter(cfg.TopicQuery),
		writerSpeech: newWriter(cfg.TopicSpeech),
		principal:    cfg.Principal,
		topicQuery:   cfg.TopicQuery,
		topicSpeech:  cfg.TopicSpeech,
		enabled:      true,
		validator:    v,
		metrics:      m,
	}
}

// PublishQuery publishes a voice query event, keyed by session.
func (p *Publisher) PublishQuery(ctx context.Context, key string, event models.VoiceQueryEvent) error {
	if err := p.validator.Validate(event); err != nil {
		return fmt.Errorf("invalid voice query event: %w", err)
	}
	return p.publish(ctx, p.writerQuery, p.topicQuery, event.EventType, key, event)
}

// PublishSpeech publishes a speech dispatch event, keyed by language.
func (p *Publisher) PublishSpeech(ctx context.Context, key string, event models.SpeechEvent) error {
	if err := p.validator.Validate(event); err != nil {
		return fmt.Errorf("invalid speech event: %w", err)
	}
	return p.publish(ctx, p.writerSpeech, p.topicSpeech, event.EventType, key, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerQuery != nil {
		if e := p.writerQuery.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing query writer")
			err = e
		}
	}
	if p.writerSpeech != nil {
		if e := p.writerSpeech.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing speech writer")
			err = e
		}
	}
	return err
}
