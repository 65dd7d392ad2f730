// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/logging"
)

const (
	defaultStreamName      = "CRMSYNC"
	defaultMaxAge          = 7 * 24 * time.Hour
	defaultDuplicateWindow = 2 * time.Minute
)

// JetStreamContext is the subset of jetstream.JetStream used by EnsureStream.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamConfig builds the JetStream stream configuration from cfg.
func StreamConfig(cfg *config.NATSConfig) jetstream.StreamConfig {
	name := cfg.StreamName
	if name == "" {
		name = defaultStreamName
	}
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return jetstream.StreamConfig{
		Name:        name,
		Subjects:    []string{prefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      maxAge,
		Duplicates:  defaultDuplicateWindow,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}
}

// EnsureStream creates the stream, or updates it when it already exists.
// Safe to call repeatedly.
func EnsureStream(ctx context.Context, js JetStreamContext, cfg *config.NATSConfig) (jetstream.Stream, error) {
	streamCfg := StreamConfig(cfg)

	if _, err := js.Stream(ctx, streamCfg.Name); err == nil {
		stream, err := js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", streamCfg.Name, err)
		}
		logging.Info().Str("stream", streamCfg.Name).Msg("JetStream stream updated")
		return stream, nil
	} else if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return nil, fmt.Errorf("lookup stream %s: %w", streamCfg.Name, err)
	}

	stream, err := js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("create stream %s: %w", streamCfg.Name, err)
	}
	logging.Info().Str("stream", streamCfg.Name).Strs("subjects", streamCfg.Subjects).Msg("JetStream stream created")
	return stream, nil
}

// InitStream connects to url, ensures the stream exists and disconnects.
func InitStream(ctx context.Context, cfg *config.NATSConfig, url string) error {
	nc, err := natsgo.Connect(url, connectOptions(cfg, logging.NewWatermillAdapter())...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	_, err = EnsureStream(ctx, js, cfg)
	return err
}
