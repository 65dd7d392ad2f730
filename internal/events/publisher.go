// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/metrics"
	"github.com/tomtom215/crmsync/internal/models"
)

const breakerName = "nats-publisher"

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher wraps a Watermill publisher with circuit breaker protection.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	topic     string
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. Events go to SyncCompletedTopic(subjectPrefix).
func NewPublisher(pub message.Publisher, subjectPrefix string) *Publisher {
	return &Publisher{
		publisher: pub,
		breaker:   newBreaker(),
		topic:     SyncCompletedTopic(subjectPrefix),
		now:       time.Now,
	}
}

// NewNATSPublisher connects a JetStream publisher to url. The stream must
// already exist (see EnsureStream).
func NewNATSPublisher(cfg *config.NATSConfig, url string, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: connectOptions(cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is pre-created by EnsureStream
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return NewPublisher(pub, cfg.SubjectPrefix), nil
}

// connectOptions are the NATS connection options shared by the publisher
// and the stream initializer.
func connectOptions(cfg *config.NATSConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("crmsync"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[struct{}] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

// Topic returns the subject sync.completed events are published to.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishSyncCompleted publishes the outcome of run.
func (p *Publisher) PublishSyncCompleted(ctx context.Context, run *models.SyncRun) error {
	ev := NewSyncCompleted(run, p.now())
	data, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("serialize sync.completed: %w", err)
	}

	msg := message.NewMessage(ev.EventID, data)
	msg.Metadata.Set("run_id", run.ID)
	msg.Metadata.Set("state", string(run.State))
	msg.Metadata.Set("trigger", string(run.Trigger))
	msg.SetContext(ctx)

	return p.Publish(ctx, p.topic, msg)
}

// Publish sends msg through the circuit breaker. The message UUID is used
// as Nats-Msg-Id for deduplication if not already set.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(topic, msg)
	})
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	logging.Debug().Str("topic", topic).Str("message_id", msg.UUID).Msg("Event published")
	return nil
}

// BreakerState returns "closed", "half-open" or "open".
func (p *Publisher) BreakerState() string {
	return p.breaker.State().String()
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
