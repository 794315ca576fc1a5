// Package schedule picks the next outreach action and ranks accounts by urgency.
// All functions are pure over their inputs and take "now" explicitly.
package schedule

import (
	"sort"
	"time"

	"github.com/ppiankov/leadradar/internal/model"
)

// BuildStepMeta computes priority metadata for every project id.
// Non-pending steps are ignored; projects without pending steps get the zero value.
func BuildStepMeta(steps []model.SequenceStep, projectIDs []string, now time.Time) map[string]model.ProjectPriorityMeta {
	meta := make(map[string]model.ProjectPriorityMeta, len(projectIDs))
	for _, id := range projectIDs {
		meta[id] = model.ProjectPriorityMeta{}
	}

	for _, step := range steps {
		if step.Status != model.StepPending || step.ScheduledAt == nil {
			continue
		}
		m, ok := meta[step.ProjectID]
		if !ok {
			continue
		}
		at := *step.ScheduledAt
		if m.NextSequenceStepDueAt == nil || at.Before(*m.NextSequenceStepDueAt) {
			m.NextSequenceStepDueAt = &at
		}
		if at.Before(now) {
			m.OverdueCount++
		}
		meta[step.ProjectID] = m
	}

	for id, m := range meta {
		if m.NextSequenceStepDueAt != nil && m.NextSequenceStepDueAt.Before(now) {
			m.HasOverdueSequenceStep = true
			meta[id] = m
		}
	}
	return meta
}

// PickNextSequenceStep selects the single next actionable step.
// Precedence: earliest overdue, then earliest scheduled, then lowest step number among
// unscheduled. Returns false when there is no pending step.
func PickNextSequenceStep(steps []model.SequenceStep, now time.Time) (model.SequenceStep, bool) {
	var overdue, upcoming, unscheduled *model.SequenceStep

	for i := range steps {
		step := &steps[i]
		if step.Status != model.StepPending {
			continue
		}
		switch {
		case step.ScheduledAt == nil:
			if unscheduled == nil || step.StepNumber < unscheduled.StepNumber {
				unscheduled = step
			}
		case step.ScheduledAt.Before(now):
			if overdue == nil || step.ScheduledAt.Before(*overdue.ScheduledAt) {
				overdue = step
			}
		default:
			if upcoming == nil || step.ScheduledAt.Before(*upcoming.ScheduledAt) {
				upcoming = step
			}
		}
	}

	for _, pick := range []*model.SequenceStep{overdue, upcoming, unscheduled} {
		if pick != nil {
			return *pick, true
		}
	}
	return model.SequenceStep{}, false
}

// tier orders projects: overdue first, then upcoming, then the rest
func tier(m model.ProjectPriorityMeta) int {
	switch {
	case m.HasOverdueSequenceStep:
		return 0
	case m.NextSequenceStepDueAt != nil:
		return 1
	default:
		return 2
	}
}

// SortProjectsByPriority returns a new slice ordered by urgency.
// Within the overdue tier the most overdue (earliest due) comes first, then the
// higher overdue count; within the upcoming tier the soonest due. Remaining ties
// fall to higher ICP score, then most recently updated, then id.
func SortProjectsByPriority(projects []model.Project, meta map[string]model.ProjectPriorityMeta) []model.Project {
	out := make([]model.Project, len(projects))
	copy(out, projects)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ma, mb := meta[a.ID], meta[b.ID]

		if ta, tb := tier(ma), tier(mb); ta != tb {
			return ta < tb
		}

		if ma.NextSequenceStepDueAt != nil && mb.NextSequenceStepDueAt != nil &&
			!ma.NextSequenceStepDueAt.Equal(*mb.NextSequenceStepDueAt) {
			return ma.NextSequenceStepDueAt.Before(*mb.NextSequenceStepDueAt)
		}
		if ma.OverdueCount != mb.OverdueCount {
			return ma.OverdueCount > mb.OverdueCount
		}
		if a.IcpScore != b.IcpScore {
			return a.IcpScore > b.IcpScore
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
	return out
}
