package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/samachar-news/samachar/internal/platform/httpx"
)

const (
	defaultLimit  = 20
	maxLimit      = 100
	maxExportRows = 5000
)

// Service coordinates audit timeline reads.
type Service struct {
	repo Repository
}

// NewService creates a new audit timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of events, newest first.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	filters, err := normalize(filters)
	if err != nil {
		return Result{}, err
	}
	limit := filters.Limit
	filters.Limit = limit + 1
	rows, err := s.repo.Timeline(ctx, filters)
	if err != nil {
		return Result{}, fmt.Errorf("audit: timeline: %w", err)
	}
	paging := PagingInfo{Limit: limit, Offset: filters.Offset}
	if len(rows) > limit {
		rows = rows[:limit]
		paging.HasNext = true
		paging.NextOffset = filters.Offset + limit
	}
	if rows == nil {
		rows = []TimelineRow{}
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns up to maxExportRows events matching filters, ignoring paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	filters.Limit, filters.Offset = 0, 0
	filters, err := normalize(filters)
	if err != nil {
		return nil, err
	}
	filters.Limit = maxExportRows
	rows, err := s.repo.Timeline(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("audit: export: %w", err)
	}
	return rows, nil
}

func normalize(f TimelineFilters) (TimelineFilters, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, fmt.Errorf("%w: from must not be after to", httpx.ErrValidation)
	}
	if f.Offset < 0 {
		return f, fmt.Errorf("%w: offset must not be negative", httpx.ErrValidation)
	}
	switch {
	case f.Limit <= 0:
		f.Limit = defaultLimit
	case f.Limit > maxLimit:
		f.Limit = maxLimit
	}
	f.Entity = strings.TrimSpace(f.Entity)
	f.Action = strings.TrimSpace(f.Action)
	return f, nil
}
