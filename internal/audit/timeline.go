package audit

import "time"

// TimelineFilters narrows the audit timeline.
type TimelineFilters struct {
	From    time.Time
	To      time.Time
	ActorID int64
	Entity  string
	Action  string
	Limit   int
	Offset  int
}

// TimelineRow is one audit event joined with its actor.
type TimelineRow struct {
	EventID    string         `json:"event_id"`
	At         time.Time      `json:"at"`
	ActorID    int64          `json:"actor_id,omitempty"`
	ActorEmail string         `json:"actor_email,omitempty"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// PagingInfo describes limit/offset paging.
type PagingInfo struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasNext    bool `json:"has_next"`
	NextOffset int  `json:"next_offset,omitempty"`
}

// Result wraps timeline rows with paging information.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}
