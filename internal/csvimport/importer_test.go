// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package csvimport

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/database"
	"github.com/tomtom215/crmsync/internal/models"
)

var importTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const sampleCSV = `E-mail,Full Name,Company,Amount,Event,Stage
ada@x.com,Ada Lovelace,,$10.00,launch,
ADA@x.com,,Analytical,5,meetup,
not-an-email,Bob,,,,
bob@y.com,Bob,,abc,,

carol@acme.io,Carol,,,,contacted
`

func setupStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeHistory struct {
	mu   sync.Mutex
	runs []models.SyncRun
}

func (f *fakeHistory) SaveRun(run *models.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}

func TestImport_MergesAndReportsBadRows(t *testing.T) {
	t.Parallel()

	db := setupStore(t)
	history := &fakeHistory{}
	imp := NewImporter(db, 100, WithHistory(history), WithClock(func() time.Time { return importTime }))

	result, err := imp.Import(context.Background(), strings.NewReader(sampleCSV), "test")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.RowsRead != 5 || result.RowsSkipped != 2 {
		t.Errorf("rows read/skipped = %d/%d, want 5/2", result.RowsRead, result.RowsSkipped)
	}
	if result.UniqueContacts != 2 || result.Imported != 2 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 2 ||
		!strings.HasPrefix(result.Errors[0], "line 4:") ||
		!strings.HasPrefix(result.Errors[1], "line 5:") {
		t.Errorf("errors = %q", result.Errors)
	}

	ada, err := db.GetContact(context.Background(), "ada@x.com")
	if err != nil {
		t.Fatalf("GetContact(ada) error = %v", err)
	}
	if ada.EventsAttended != 2 || ada.TotalSpentCents != 1500 {
		t.Errorf("ada = %d events / %d cents, want 2 / 1500", ada.EventsAttended, ada.TotalSpentCents)
	}
	if ada.DisplayName != "Ada Lovelace" || ada.Company == nil || *ada.Company != "Analytical" {
		t.Errorf("ada profile = %q %v", ada.DisplayName, ada.Company)
	}
	if ada.RelationshipStage != models.DefaultRelationshipStage {
		t.Errorf("ada stage = %q", ada.RelationshipStage)
	}

	carol, err := db.GetContact(context.Background(), "carol@acme.io")
	if err != nil {
		t.Fatalf("GetContact(carol) error = %v", err)
	}
	if carol.RelationshipStage != "contacted" {
		t.Errorf("carol stage = %q, want contacted", carol.RelationshipStage)
	}
	if carol.EmailClassification != models.EmailBusiness {
		t.Errorf("carol classification = %q", carol.EmailClassification)
	}
	if len(carol.AttributedEvents) != 1 || carol.AttributedEvents[0] != "csv:test" {
		t.Errorf("carol events = %v", carol.AttributedEvents)
	}

	if len(history.runs) != 1 {
		t.Fatalf("history runs = %d, want 1", len(history.runs))
	}
	run := history.runs[0]
	if run.Trigger != models.TriggerImport || run.State != models.SyncDone || run.Result.Imported != 2 {
		t.Errorf("history run = %+v", run)
	}
}

func TestImport_PreservesExistingStats(t *testing.T) {
	t.Parallel()

	db := setupStore(t)
	ctx := context.Background()
	existing := models.Contact{
		Email:            "ada@x.com",
		IdentityKey:      "u1",
		DisplayName:      "Ada",
		EventsAttended:   5,
		TotalSpentCents:  9000,
		AttributedEvents: []string{"a", "b", "c", "d", "e"},
		FirstSeenAt:      importTime.Add(-30 * 24 * time.Hour),
		LastSyncedAt:     importTime.Add(-time.Hour),
	}
	if err := db.UpsertContacts(ctx, []models.Contact{existing}, models.UpsertOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateStage(ctx, "ada@x.com", "customer"); err != nil {
		t.Fatal(err)
	}

	imp := NewImporter(db, 100, WithClock(func() time.Time { return importTime }))
	csvData := "email,company,phone,amount,stage\nada@x.com,Analytical,+44 20,25,lead\n"
	result, err := imp.Import(ctx, strings.NewReader(csvData), "crm")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("result = %+v", result)
	}

	got, err := db.GetContact(ctx, "ada@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.EventsAttended != 5 || got.TotalSpentCents != 9000 || len(got.AttributedEvents) != 5 {
		t.Errorf("stats changed: %d events / %d cents / %v", got.EventsAttended, got.TotalSpentCents, got.AttributedEvents)
	}
	if got.RelationshipStage != "customer" {
		t.Errorf("stage = %q, want customer", got.RelationshipStage)
	}
	if got.Company == nil || *got.Company != "Analytical" || got.Phone == nil || *got.Phone != "+44 20" {
		t.Errorf("profile not backfilled: %v %v", got.Company, got.Phone)
	}
	if !got.FirstSeenAt.Equal(existing.FirstSeenAt) {
		t.Errorf("FirstSeenAt = %v, want %v", got.FirstSeenAt, existing.FirstSeenAt)
	}
}

func TestImport_HeaderFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "no email column", input: "name,phone\nAda,1\n", wantErr: ErrNoEmailColumn},
		{name: "empty input", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			history := &fakeHistory{}
			imp := NewImporter(setupStore(t), 100, WithHistory(history))
			_, err := imp.Import(context.Background(), strings.NewReader(tt.input), "")
			if err == nil {
				t.Fatal("Import() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Import() error = %v, want %v", err, tt.wantErr)
			}
			if len(history.runs) != 1 || history.runs[0].State != models.SyncFailed {
				t.Errorf("history = %+v, want one failed run", history.runs)
			}
		})
	}
}

func TestImport_Canceled(t *testing.T) {
	t.Parallel()

	imp := NewImporter(setupStore(t), 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := imp.Import(ctx, strings.NewReader(sampleCSV), "test")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Import() error = %v, want context.Canceled", err)
	}
}

type blockingReader struct {
	release chan struct{}
}

func (b *blockingReader) Read(p []byte) (int, error) {
	<-b.release
	return copy(p, "email\n"), errors.New("closed")
}

func TestImport_RejectsConcurrentImport(t *testing.T) {
	t.Parallel()

	imp := NewImporter(setupStore(t), 100)
	br := &blockingReader{release: make(chan struct{})}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = imp.Import(context.Background(), br, "slow")
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !imp.running.Load() {
		if time.Now().After(deadline) {
			t.Fatal("first import never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := imp.Import(context.Background(), strings.NewReader(sampleCSV), "second"); !errors.Is(err, ErrImportInProgress) {
		t.Errorf("second Import() error = %v, want ErrImportInProgress", err)
	}
	close(br.release)
	<-done
}
