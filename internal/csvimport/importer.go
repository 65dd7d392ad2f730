// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package csvimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/merge"
	"github.com/tomtom215/crmsync/internal/models"
	syncer "github.com/tomtom215/crmsync/internal/sync"
)

// ErrImportInProgress is returned when Import is called while another
// import is running.
var ErrImportInProgress = errors.New("import already in progress")

// HistoryStore records finished imports next to sync runs.
type HistoryStore interface {
	SaveRun(run *models.SyncRun) error
}

// Importer merges CSV rows into the contact store.
type Importer struct {
	sink    *syncer.Sink
	history HistoryStore
	now     func() time.Time
	running atomic.Bool
}

// Option configures an Importer.
type Option func(*Importer)

// WithHistory records every import as a run with the import trigger.
func WithHistory(h HistoryStore) Option {
	return func(i *Importer) { i.history = h }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// NewImporter writes through store in batches of batchSize.
func NewImporter(store syncer.ContactStore, batchSize int, opts ...Option) *Importer {
	i := &Importer{
		sink: syncer.NewSink(store, batchSize),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import reads CSV from r and upserts the merged contacts. sourceName
// labels the rows; it defaults to "import". A malformed header or an
// unreadable stream fails the import; bad rows are skipped and reported.
func (i *Importer) Import(ctx context.Context, r io.Reader, sourceName string) (*models.ImportResult, error) {
	if !i.running.CompareAndSwap(false, true) {
		return nil, ErrImportInProgress
	}
	defer i.running.Store(false)

	sourceName = strings.TrimSpace(sourceName)
	if sourceName == "" {
		sourceName = "import"
	}
	started := i.now().UTC()
	runID := uuid.NewString()
	ctx = logging.ContextWithRunID(ctx, runID)
	log := logging.Ctx(ctx)

	result, err := i.importRows(ctx, r, sourceName, started)

	i.record(runID, started, result, err)
	if err != nil {
		log.Error().Err(err).Str("source", sourceName).Msg("CSV import failed")
		return result, err
	}
	log.Info().
		Str("source", sourceName).
		Int("rows", result.RowsRead).
		Int("skipped", result.RowsSkipped).
		Int("unique_contacts", result.UniqueContacts).
		Int("imported", result.Imported).
		Int("failed", result.Failed).
		Msg("CSV import completed")
	return result, nil
}

func (i *Importer) importRows(ctx context.Context, r io.Reader, sourceName string, now time.Time) (*models.ImportResult, error) {
	result := &models.ImportResult{}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return result, errors.New("csv is empty")
	}
	if err != nil {
		return result, fmt.Errorf("read csv header: %w", err)
	}
	mapper, err := NewMapper(header, sourceName, now)
	if err != nil {
		return result, err
	}

	merger := merge.New()
	stages := make(map[string]string)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.RowsRead++
				skip(result, parseErr.Line, parseErr.Err)
				continue
			}
			return result, fmt.Errorf("read csv: %w", err)
		}
		if blank(record) {
			continue
		}
		result.RowsRead++
		line, _ := reader.FieldPos(0)

		row, err := mapper.Map(record)
		if err != nil {
			skip(result, line, err)
			continue
		}
		if err := merger.Add(&row.Guest); err != nil {
			skip(result, line, err)
			continue
		}
		if row.Stage != "" {
			if _, seen := stages[row.Guest.Email]; !seen {
				stages[row.Guest.Email] = row.Stage
			}
		}
	}

	contacts := merger.Contacts()
	result.UniqueContacts = len(contacts)

	rows := make([]models.Contact, 0, len(contacts))
	for k := range contacts {
		c := models.ContactFromUnique(&contacts[k], now)
		if stage, ok := stages[c.Email]; ok {
			c.RelationshipStage = stage
		}
		rows = append(rows, c)
	}

	res := i.sink.UpsertRows(ctx, rows, models.UpsertOptions{PreserveStats: true})
	result.Imported = res.Written
	result.Failed = res.Failed
	for _, e := range res.Errors {
		addError(result, e.Error())
	}
	return result, nil
}

func (i *Importer) record(runID string, started time.Time, result *models.ImportResult, err error) {
	if i.history == nil {
		return
	}
	completed := i.now().UTC()
	run := &models.SyncRun{
		ID:          runID,
		Trigger:     models.TriggerImport,
		State:       models.SyncDone,
		StartedAt:   started,
		CompletedAt: &completed,
		DurationMS:  completed.Sub(started).Milliseconds(),
	}
	if result != nil {
		run.Result = &models.SyncResult{
			RunID:               runID,
			StartedAt:           started,
			FinishedAt:          completed,
			TotalUniqueContacts: result.UniqueContacts,
			Imported:            result.Imported,
			Failed:              result.Failed,
			Errors:              result.RowsSkipped,
			ErrorDetails:        result.Errors,
		}
	}
	if err != nil {
		run.State = models.SyncFailed
		run.Error = err.Error()
	}
	if saveErr := i.history.SaveRun(run); saveErr != nil {
		logging.Warn().Err(saveErr).Str("run_id", runID).Msg("Failed to record import history")
	}
}

func skip(result *models.ImportResult, line int, err error) {
	result.RowsSkipped++
	addError(result, fmt.Sprintf("line %d: %v", line, err))
}

func addError(result *models.ImportResult, msg string) {
	if len(result.Errors) < models.MaxErrorDetails {
		result.Errors = append(result.Errors, msg)
	}
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
