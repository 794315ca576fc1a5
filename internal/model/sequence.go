package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Project is an account being worked, usually converted from an opportunity
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	OpportunityID string    `json:"opportunity_id,omitempty"`
	IcpScore      int       `json:"icp_score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Contact is a person at a project
type Contact struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	Handle    string `json:"handle,omitempty"`
}

// Sequence is a planned multi-touch outreach for one contact
type Sequence struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	ContactID string    `json:"contact_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StepStatus is the state of a sequence step
type StepStatus string

const (
	StepPending StepStatus = "PENDING"
	StepSent    StepStatus = "SENT"
	StepSkipped StepStatus = "SKIPPED"
)

// SequenceStep is one scheduled outreach action.
// ProjectID is denormalized from Sequence.ProjectID for scheduling reads.
type SequenceStep struct {
	ID          string     `json:"id"`
	SequenceID  string     `json:"sequence_id"`
	ProjectID   string     `json:"project_id"`
	StepNumber  int        `json:"step_number"`
	Channel     Channel    `json:"channel"`
	Content     string     `json:"content"`
	Status      StepStatus `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MarkSent moves a pending step to SENT. Terminal.
func (s *SequenceStep) MarkSent(now time.Time) error {
	return s.complete(StepSent, now)
}

// Skip moves a pending step to SKIPPED. Terminal.
func (s *SequenceStep) Skip(now time.Time) error {
	return s.complete(StepSkipped, now)
}

func (s *SequenceStep) complete(to StepStatus, now time.Time) error {
	if s.Status != StepPending {
		return eris.Wrapf(ErrInvalidTransition, "step %d: %s -> %s", s.StepNumber, s.Status, to)
	}
	s.Status = to
	s.CompletedAt = &now
	return nil
}

// ProjectPriorityMeta is derived per project from its pending steps at read time
type ProjectPriorityMeta struct {
	NextSequenceStepDueAt  *time.Time `json:"next_sequence_step_due_at"`
	HasOverdueSequenceStep bool       `json:"has_overdue_sequence_step"`
	OverdueCount           int        `json:"overdue_count"`
}
