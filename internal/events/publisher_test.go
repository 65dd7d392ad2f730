// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/crmsync/internal/metrics"
	"github.com/tomtom215/crmsync/internal/models"
)

func testRun() *models.SyncRun {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(3 * time.Second)
	return &models.SyncRun{
		ID:          "run-1",
		Trigger:     models.TriggerManual,
		State:       models.SyncDone,
		StartedAt:   started,
		CompletedAt: &completed,
		DurationMS:  3000,
		Result: &models.SyncResult{
			RunID:               "run-1",
			TotalUniqueContacts: 2,
			Imported:            2,
			PerSource:           []models.SourceResult{{SourceName: "primary", EventCount: 2, GuestCount: 3, UniqueContactCount: 2}},
		},
	}
}

func TestPublishSyncCompleted(t *testing.T) {
	t.Parallel()

	ps := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	pub := NewPublisher(ps, "test-publish")
	defer pub.Close()

	msgs, err := ps.Subscribe(context.Background(), pub.Topic())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(pub.Topic(), "success"))

	if err := pub.PublishSyncCompleted(context.Background(), testRun()); err != nil {
		t.Fatalf("PublishSyncCompleted: %v", err)
	}

	var msg *message.Message
	select {
	case msg = <-msgs:
		msg.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}

	if got := msg.Metadata.Get(natsgo.MsgIdHdr); got != msg.UUID {
		t.Errorf("Nats-Msg-Id = %q, want message UUID %q", got, msg.UUID)
	}
	if got := msg.Metadata.Get("run_id"); got != "run-1" {
		t.Errorf("run_id metadata = %q", got)
	}

	ev, err := UnmarshalSyncCompleted(msg.Payload)
	if err != nil {
		t.Fatalf("UnmarshalSyncCompleted: %v", err)
	}
	if ev.EventID != msg.UUID {
		t.Errorf("EventID = %q, want %q", ev.EventID, msg.UUID)
	}
	if ev.State != models.SyncDone || ev.TotalUniqueContacts != 2 || ev.Imported != 2 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if len(ev.PerSource) != 1 || ev.PerSource[0].SourceName != "primary" {
		t.Errorf("PerSource = %+v", ev.PerSource)
	}

	after := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(pub.Topic(), "success"))
	if after-before != 1 {
		t.Errorf("success counter delta = %v, want 1", after-before)
	}
}

func TestNewSyncCompleted_FailedRunWithoutResult(t *testing.T) {
	t.Parallel()

	run := &models.SyncRun{ID: "r", State: models.SyncFailed, Error: "store unavailable"}
	ev := NewSyncCompleted(run, time.Now())
	if ev.Error != "store unavailable" || ev.Imported != 0 || ev.PerSource != nil {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestSyncCompletedTopic(t *testing.T) {
	t.Parallel()

	if got := SyncCompletedTopic(""); got != "crmsync.sync.completed" {
		t.Errorf("default topic = %q", got)
	}
	if got := SyncCompletedTopic("acme"); got != "acme.sync.completed" {
		t.Errorf("topic = %q", got)
	}
}

type failingPublisher struct {
	calls int
}

func (f *failingPublisher) Publish(string, ...*message.Message) error {
	f.calls++
	return errors.New("connection refused")
}

func (f *failingPublisher) Close() error { return nil }

func TestPublisher_BreakerOpens(t *testing.T) {
	t.Parallel()

	fp := &failingPublisher{}
	pub := NewPublisher(fp, "test-breaker")

	for i := 0; i < 5; i++ {
		if err := pub.PublishSyncCompleted(context.Background(), testRun()); err == nil {
			t.Fatalf("publish %d: expected error", i)
		}
	}
	if got := pub.BreakerState(); got != "open" {
		t.Fatalf("breaker state = %q, want open", got)
	}

	if err := pub.PublishSyncCompleted(context.Background(), testRun()); err == nil {
		t.Fatal("expected error while open")
	}
	if fp.calls != 5 {
		t.Errorf("underlying calls = %d, want 5 (open breaker must short-circuit)", fp.calls)
	}
}

func TestPublisher_Closed(t *testing.T) {
	t.Parallel()

	pub := NewPublisher(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}), "test-closed")
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := pub.PublishSyncCompleted(context.Background(), testRun()); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("err = %v, want ErrPublisherClosed", err)
	}
}

func TestPublisher_CanceledContext(t *testing.T) {
	t.Parallel()

	fp := &failingPublisher{}
	pub := NewPublisher(fp, "test-canceled")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pub.PublishSyncCompleted(ctx, testRun()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if fp.calls != 0 {
		t.Errorf("calls = %d, want 0", fp.calls)
	}
}
