package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samachar-news/samachar/internal/platform/httpx"
)

type stubTimelineRepo struct {
	rows     []TimelineRow
	err      error
	lastCall TimelineFilters
}

func (s *stubTimelineRepo) Timeline(ctx context.Context, f TimelineFilters) ([]TimelineRow, error) {
	s.lastCall = f
	if s.err != nil {
		return nil, s.err
	}
	if f.Limit < len(s.rows) {
		return s.rows[:f.Limit], nil
	}
	return s.rows, nil
}

func mockRow(ts, action, entity, entityID string) TimelineRow {
	at, _ := time.Parse(time.RFC3339, ts)
	return TimelineRow{EventID: entityID, At: at, ActorID: 1, ActorEmail: "admin@samachar.test", Action: action, Entity: entity, EntityID: entityID}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{
		mockRow("2026-03-10T10:00:00Z", "role.updated", "role", "1"),
		mockRow("2026-03-09T09:00:00Z", "role.created", "role", "2"),
		mockRow("2026-03-08T08:00:00Z", "menu.created", "menu", "3"),
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if !result.Paging.HasNext || result.Paging.NextOffset != 6 {
		t.Fatalf("unexpected paging: %+v", result.Paging)
	}
	if repo.lastCall.Limit != 3 {
		t.Fatalf("expected repository limit 3, got %d", repo.lastCall.Limit)
	}
	if repo.lastCall.Offset != 4 {
		t.Fatalf("expected offset 4, got %d", repo.lastCall.Offset)
	}
}

func TestServiceTimelineDefaultsAndCaps(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if result.Rows == nil || len(result.Rows) != 0 {
		t.Fatalf("expected empty non-nil rows")
	}
	if repo.lastCall.Limit != defaultLimit+1 {
		t.Fatalf("expected default limit, got %d", repo.lastCall.Limit)
	}

	if _, err := svc.Timeline(context.Background(), TimelineFilters{Limit: 10_000}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastCall.Limit != maxLimit+1 {
		t.Fatalf("expected capped limit, got %d", repo.lastCall.Limit)
	}
}

func TestServiceTimelineRejectsBadFilters(t *testing.T) {
	svc := NewService(&stubTimelineRepo{})
	_, err := svc.Timeline(context.Background(), TimelineFilters{
		From: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.Timeline(context.Background(), TimelineFilters{Offset: -1})
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceExportIgnoresPaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{mockRow("2026-03-10T10:00:00Z", "role.updated", "role", "1")}}
	svc := NewService(repo)

	rows, err := svc.Export(context.Background(), TimelineFilters{Limit: 1, Offset: 50, Entity: " role "})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if repo.lastCall.Offset != 0 || repo.lastCall.Limit != maxExportRows {
		t.Fatalf("unexpected export window: %+v", repo.lastCall)
	}
	if repo.lastCall.Entity != "role" {
		t.Fatalf("expected trimmed entity, got %q", repo.lastCall.Entity)
	}
}

func TestServiceWrapsRepositoryError(t *testing.T) {
	svc := NewService(&stubTimelineRepo{err: errors.New("boom")})
	if _, err := svc.Timeline(context.Background(), TimelineFilters{}); err == nil {
		t.Fatalf("expected error")
	}
}
