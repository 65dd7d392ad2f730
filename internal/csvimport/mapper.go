// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package csvimport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/crmsync/internal/merge"
	"github.com/tomtom215/crmsync/internal/models"
	"github.com/tomtom215/crmsync/internal/platform"
	"github.com/tomtom215/crmsync/internal/validation"
)

// Field identifies a recognized column.
type Field string

// Recognized fields.
const (
	FieldEmail        Field = "email"
	FieldName         Field = "name"
	FieldPhone        Field = "phone"
	FieldCompany      Field = "company"
	FieldEthAddress   Field = "eth_address"
	FieldSolAddress   Field = "solana_address"
	FieldTwitter      Field = "twitter"
	FieldLinkedIn     Field = "linkedin"
	FieldTelegram     Field = "telegram"
	FieldInstagram    Field = "instagram"
	FieldGitHub       Field = "github"
	FieldAmount       Field = "amount"
	FieldRegisteredAt Field = "registered_at"
	FieldEvent        Field = "event"
	FieldStage        Field = "stage"
)

// ErrNoEmailColumn is returned when the header has no email column.
var ErrNoEmailColumn = errors.New("csv header has no email column")

var aliases = map[string]Field{
	"email":              FieldEmail,
	"e-mail":             FieldEmail,
	"email address":      FieldEmail,
	"user_email":         FieldEmail,
	"name":               FieldName,
	"full name":          FieldName,
	"full_name":          FieldName,
	"display name":       FieldName,
	"user_name":          FieldName,
	"phone":              FieldPhone,
	"phone number":       FieldPhone,
	"phone_number":       FieldPhone,
	"mobile":             FieldPhone,
	"company":            FieldCompany,
	"organization":       FieldCompany,
	"organisation":       FieldCompany,
	"eth_address":        FieldEthAddress,
	"eth address":        FieldEthAddress,
	"ethereum":           FieldEthAddress,
	"wallet":             FieldEthAddress,
	"solana_address":     FieldSolAddress,
	"solana address":     FieldSolAddress,
	"solana":             FieldSolAddress,
	"twitter":            FieldTwitter,
	"twitter handle":     FieldTwitter,
	"twitter_handle":     FieldTwitter,
	"x":                  FieldTwitter,
	"linkedin":           FieldLinkedIn,
	"linkedin_handle":    FieldLinkedIn,
	"linkedin url":       FieldLinkedIn,
	"telegram":           FieldTelegram,
	"telegram_handle":    FieldTelegram,
	"instagram":          FieldInstagram,
	"instagram_handle":   FieldInstagram,
	"github":             FieldGitHub,
	"github_handle":      FieldGitHub,
	"amount":             FieldAmount,
	"ticket amount":      FieldAmount,
	"ticket_amount":      FieldAmount,
	"amount paid":        FieldAmount,
	"registered_at":      FieldRegisteredAt,
	"registered at":      FieldRegisteredAt,
	"created_at":         FieldRegisteredAt,
	"date":               FieldRegisteredAt,
	"event":              FieldEvent,
	"event_id":           FieldEvent,
	"event name":         FieldEvent,
	"stage":              FieldStage,
	"relationship_stage": FieldStage,
	"pipeline stage":     FieldStage,
}

// Mapper converts CSV rows into guest records.
type Mapper struct {
	columns      map[Field]int
	source       string
	defaultEvent string
	now          time.Time
}

// NewMapper resolves header into column positions. Unknown columns are
// ignored; the first occurrence of a field wins.
func NewMapper(header []string, source string, now time.Time) (*Mapper, error) {
	cols := make(map[Field]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		f, ok := aliases[key]
		if !ok {
			continue
		}
		if _, seen := cols[f]; !seen {
			cols[f] = i
		}
	}
	if _, ok := cols[FieldEmail]; !ok {
		return nil, ErrNoEmailColumn
	}
	return &Mapper{
		columns:      cols,
		source:       source,
		defaultEvent: "csv:" + source,
		now:          now.UTC(),
	}, nil
}

// Has reports whether the header carried field.
func (m *Mapper) Has(f Field) bool {
	_, ok := m.columns[f]
	return ok
}

func (m *Mapper) value(row []string, f Field) string {
	i, ok := m.columns[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Row is one validated CSV row.
type Row struct {
	Guest models.GuestRecord
	Stage string
}

// Map validates row and converts it. The error describes the first problem.
func (m *Mapper) Map(row []string) (*Row, error) {
	email := m.value(row, FieldEmail)
	if email == "" {
		return nil, errors.New("email is empty")
	}
	if err := validation.ValidateVar(email, "email"); err != nil {
		return nil, fmt.Errorf("invalid email %q", email)
	}

	event := m.value(row, FieldEvent)
	if event == "" {
		event = m.defaultEvent
	}

	g := models.GuestRecord{
		EventID:      event,
		Source:       m.source,
		DisplayName:  m.value(row, FieldName),
		Email:        merge.NormalizeEmail(email),
		Phone:        optional(m.value(row, FieldPhone)),
		Company:      optional(m.value(row, FieldCompany)),
		RegisteredAt: m.now,
	}
	g.WalletAddresses = collect(map[string]string{
		models.ChainEthereum: m.value(row, FieldEthAddress),
		models.ChainSolana:   m.value(row, FieldSolAddress),
	})
	g.SocialHandles = collect(map[string]string{
		models.SocialTwitter:   m.value(row, FieldTwitter),
		models.SocialLinkedIn:  m.value(row, FieldLinkedIn),
		models.SocialTelegram:  m.value(row, FieldTelegram),
		models.SocialInstagram: m.value(row, FieldInstagram),
		models.SocialGitHub:    m.value(row, FieldGitHub),
	})

	if raw := m.value(row, FieldAmount); raw != "" {
		amount, err := parseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q", raw)
		}
		cents := platform.ToCents(amount)
		g.TicketAmountCents = &cents
	}

	if raw := m.value(row, FieldRegisteredAt); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid registered_at %q", raw)
		}
		g.RegisteredAt = t
	}

	stage := strings.ToLower(m.value(row, FieldStage))
	if stage != "" && !validation.IsRelationshipStage(stage) {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}

	return &Row{Guest: g, Stage: stage}, nil
}

// parseAmount accepts "12.50", "$12.50" and "1,200.00".
func parseAmount(s string) (float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func collect(in map[string]string) map[string]string {
	var out map[string]string
	for k, v := range in {
		if v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(in))
		}
		out[k] = v
	}
	return out
}
