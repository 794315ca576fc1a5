// Package store persists opportunities, playbooks, the ICP profile and the
// project/contact/sequence chain. Status transitions are enforced on write.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/leadradar/internal/model"
)

// DefaultUserID owns rows when the CLI runs single-user
const DefaultUserID = "local"

// ErrNotFound is returned when a row does not exist
var ErrNotFound = eris.New("not found")

// ErrConflict is returned when a row changed underneath a guarded update
var ErrConflict = eris.New("concurrent update")

// OpportunityFilter specifies criteria for listing opportunities.
type OpportunityFilter struct {
	UserID     string                  `json:"user_id,omitempty"`
	Status     model.OpportunityStatus `json:"status,omitempty"`
	SourceType model.SourceType        `json:"source_type,omitempty"`
	MinScore   int                     `json:"min_score,omitempty"`
	Limit      int                     `json:"limit,omitempty"`
	Offset     int                     `json:"offset,omitempty"`
}

// StepFilter specifies criteria for listing sequence steps.
type StepFilter struct {
	ProjectID  string           `json:"project_id,omitempty"`
	SequenceID string           `json:"sequence_id,omitempty"`
	Status     model.StepStatus `json:"status,omitempty"`
}

// Store defines the persistence interface for the lead pipeline.
type Store interface {
	// Opportunities
	SaveOpportunities(ctx context.Context, opps []model.Opportunity) (int, error)
	GetOpportunity(ctx context.Context, id string) (*model.Opportunity, error)
	ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.Opportunity, error)
	UpdateOpportunityStatus(ctx context.Context, opp *model.Opportunity, from model.OpportunityStatus) error
	TrackedURLs(ctx context.Context, userID string) (map[string]bool, error)
	CountByStatus(ctx context.Context, userID string) (map[model.OpportunityStatus]int, error)
	SourceTypes(ctx context.Context, userID string) ([]model.SourceType, error)
	ReactivateDue(ctx context.Context, now time.Time) (int, error)
	ConvertOpportunity(ctx context.Context, id string, project model.Project, now time.Time) (*model.Project, error)

	// Playbooks
	SavePlaybook(ctx context.Context, pb *model.Playbook) error
	ListPlaybooks(ctx context.Context) ([]model.Playbook, error)
	DeletePlaybook(ctx context.Context, id string) error

	// ICP profile
	GetICP(ctx context.Context, userID string) (*model.IcpProfile, error)
	SetICP(ctx context.Context, userID string, icp model.IcpProfile) error

	// Projects and contacts
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateContact(ctx context.Context, c *model.Contact) error
	ListContacts(ctx context.Context, projectID string) ([]model.Contact, error)

	// Sequences
	CreateSequence(ctx context.Context, seq *model.Sequence, steps []model.SequenceStep) error
	ListSequences(ctx context.Context, projectID string) ([]model.Sequence, error)
	GetStep(ctx context.Context, id string) (*model.SequenceStep, error)
	ListSteps(ctx context.Context, filter StepFilter) ([]model.SequenceStep, error)
	CompleteStep(ctx context.Context, id string, to model.StepStatus, now time.Time) (*model.SequenceStep, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
