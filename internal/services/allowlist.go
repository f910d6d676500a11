package services

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/store"
)

type AllowlistService struct {
	Store store.Store
	Now   func() time.Time
}

func NewAllowlistService(s store.Store) *AllowlistService {
	return &AllowlistService{Store: s, Now: time.Now}
}

// ParseAllowlist reads "name,email" or "name,email,year,semester,coursecode"
// rows. A row naming an "email" column is taken as a header and skipped, as
// are rows without both a name and an email. When an email repeats, the last
// row wins; the returned count still includes every valid row.
func ParseAllowlist(text string) ([]models.AllowlistEntry, int, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	entries := []models.AllowlistEntry{}
	index := map[string]int{}
	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, ErrBadRequest("Could not parse allowlist: " + err.Error())
		}
		if isHeaderRow(record) || len(record) < 2 {
			continue
		}
		entry := models.AllowlistEntry{
			Name:  strings.TrimSpace(record[0]),
			Email: NormalizeEmail(record[1]),
		}
		if entry.Name == "" || entry.Email == "" {
			continue
		}
		if len(record) >= 5 {
			entry.Year = strings.TrimSpace(record[2])
			entry.Semester = strings.TrimSpace(record[3])
			entry.CourseCode = strings.TrimSpace(record[4])
		}
		count++
		if i, ok := index[entry.Email]; ok {
			entries[i] = entry
			continue
		}
		index[entry.Email] = len(entries)
		entries = append(entries, entry)
	}
	return entries, count, nil
}

func isHeaderRow(record []string) bool {
	for _, field := range record {
		if strings.EqualFold(strings.TrimSpace(field), "email") {
			return true
		}
	}
	return false
}

// BulkUpsert parses text and writes every entry in one batch keyed by email.
// Uploading the same text twice leaves the allowlist unchanged.
func (a *AllowlistService) BulkUpsert(ctx context.Context, actor Actor, text string) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrBadRequest("No data provided")
	}
	entries, count, err := ParseAllowlist(text)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, ErrBadRequest("No valid entries found")
	}
	now := a.Now().UTC()
	for i := range entries {
		entries[i].DateAdded = now
	}
	if err := a.Store.Allowlist().UpsertEntries(ctx, entries); err != nil {
		return 0, WrapError(err, "upsert allowlist")
	}
	return count, nil
}

func (a *AllowlistService) List(ctx context.Context, actor Actor) ([]models.AllowlistEntry, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	entries, err := a.Store.Allowlist().ListEntries(ctx)
	if err != nil {
		return nil, WrapError(err, "list allowlist")
	}
	return entries, nil
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
