package schedule

import (
	"time"

	"github.com/ppiankov/leadradar/internal/model"
)

// TodayItem is one row of the Today queue
type TodayItem struct {
	Project  model.Project             `json:"project"`
	Meta     model.ProjectPriorityMeta `json:"meta"`
	NextStep *model.SequenceStep       `json:"next_step,omitempty"`
}

// TodayQueue ranks every project and attaches its next pending step.
// Steps belonging to unknown projects are ignored.
func TodayQueue(projects []model.Project, steps []model.SequenceStep, now time.Time) []TodayItem {
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	meta := BuildStepMeta(steps, ids, now)

	byProject := make(map[string][]model.SequenceStep, len(projects))
	for _, s := range steps {
		if s.Status == model.StepPending {
			byProject[s.ProjectID] = append(byProject[s.ProjectID], s)
		}
	}

	ranked := SortProjectsByPriority(projects, meta)
	items := make([]TodayItem, 0, len(ranked))
	for _, p := range ranked {
		item := TodayItem{Project: p, Meta: meta[p.ID]}
		if next, ok := PickNextSequenceStep(byProject[p.ID], now); ok {
			item.NextStep = &next
		}
		items = append(items, item)
	}
	return items
}

// Actionable keeps only items whose next step is due by the end of the given day
func Actionable(items []TodayItem, now time.Time) []TodayItem {
	y, m, d := now.Date()
	endOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)

	out := make([]TodayItem, 0, len(items))
	for _, it := range items {
		if it.NextStep == nil {
			continue
		}
		if it.NextStep.ScheduledAt == nil || it.NextStep.ScheduledAt.Before(endOfDay) {
			out = append(out, it)
		}
	}
	return out
}
