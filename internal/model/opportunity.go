package model

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// SourceType identifies how an opportunity was discovered
type SourceType string

const (
	SourceTextScan  SourceType = "TEXT_SCAN"
	SourcePageScan  SourceType = "PAGE_SCAN"
	SourceWatchlist SourceType = "WATCHLIST"
)

// Valid reports whether s is a known source type
func (s SourceType) Valid() bool {
	switch s {
	case SourceTextScan, SourcePageScan, SourceWatchlist:
		return true
	}
	return false
}

// OpportunityStatus is the review state of an opportunity
type OpportunityStatus string

const (
	StatusNew       OpportunityStatus = "NEW"
	StatusSnoozed   OpportunityStatus = "SNOOZED"
	StatusConverted OpportunityStatus = "CONVERTED"
	StatusDiscarded OpportunityStatus = "DISCARDED"
)

// ErrInvalidTransition is returned when a status change is not allowed
var ErrInvalidTransition = eris.New("invalid status transition")

// Opportunity is the persisted result of one discovery event
type Opportunity struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id,omitempty"`
	URL             string            `json:"url"`
	SourceType      SourceType        `json:"source_type"`
	Analysis        AnalysisResult    `json:"analysis"`
	LeadScore       int               `json:"lead_score"`
	SignalStrength  int               `json:"signal_strength"`
	LeadReasons     []string          `json:"lead_reasons"`
	PlaybookMatches []string          `json:"playbook_matches"`
	Status          OpportunityStatus `json:"status"`
	NextReviewAt    *time.Time        `json:"next_review_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (o *Opportunity) open() bool {
	return o.Status == StatusNew || o.Status == StatusSnoozed
}

// Snooze hides the opportunity until the given time
func (o *Opportunity) Snooze(until time.Time, now time.Time) error {
	if o.Status != StatusNew {
		return transitionErr(o.Status, StatusSnoozed)
	}
	if !until.After(now) {
		return eris.Wrap(ErrInvalidTransition, "snooze time must be in the future")
	}
	o.Status = StatusSnoozed
	o.NextReviewAt = &until
	o.UpdatedAt = now
	return nil
}

// Convert marks the opportunity as turned into a project
func (o *Opportunity) Convert(now time.Time) error {
	if !o.open() {
		return transitionErr(o.Status, StatusConverted)
	}
	o.Status = StatusConverted
	o.NextReviewAt = nil
	o.UpdatedAt = now
	return nil
}

// Discard marks the opportunity as not worth pursuing
func (o *Opportunity) Discard(now time.Time) error {
	if !o.open() {
		return transitionErr(o.Status, StatusDiscarded)
	}
	o.Status = StatusDiscarded
	o.NextReviewAt = nil
	o.UpdatedAt = now
	return nil
}

// Reactivate returns a snoozed opportunity to NEW once its review time has passed.
// Returns false if nothing changed.
func (o *Opportunity) Reactivate(now time.Time) bool {
	if o.Status != StatusSnoozed || o.NextReviewAt == nil || o.NextReviewAt.After(now) {
		return false
	}
	o.Status = StatusNew
	o.NextReviewAt = nil
	o.UpdatedAt = now
	return true
}

func transitionErr(from, to OpportunityStatus) error {
	return eris.Wrap(ErrInvalidTransition, fmt.Sprintf("%s -> %s", from, to))
}
