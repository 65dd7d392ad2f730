// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

// Package events publishes sync lifecycle events over NATS JetStream.
//
// # Architecture
//
//	sync.Manager.finish → Publisher.PublishSyncCompleted
//	                        → circuit breaker → Watermill publisher → JetStream
//
// Publishing is best effort: a failed publish is logged by the caller and
// never fails the run. The message UUID doubles as the Nats-Msg-Id header so
// JetStream drops duplicates inside the stream's duplicate window.
//
// # Components
//
//   - Publisher: wraps any Watermill message.Publisher with a circuit
//     breaker; NewNATSPublisher builds the JetStream-backed one
//   - EnsureStream: creates or updates the stream covering "<prefix>.>"
//   - EmbeddedServer: in-process NATS server with JetStream for
//     single-instance deployments, run as a supervised service
//
// # Subjects
//
//	<subject_prefix>.sync.completed   one message per finished run
//
// Tests use Watermill's GoChannel pub/sub in place of NATS.
package events
