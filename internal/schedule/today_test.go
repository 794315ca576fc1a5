package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/leadradar/internal/model"
)

func TestTodayQueue(t *testing.T) {
	projects := []model.Project{
		{ID: "quiet", Name: "Quiet"},
		{ID: "late", Name: "Late"},
		{ID: "soon", Name: "Soon"},
	}
	steps := []model.SequenceStep{
		step("late-1", "late", 1, at(-24*time.Hour)),
		step("late-2", "late", 2, at(24*time.Hour)),
		step("soon-2", "soon", 2, at(3*time.Hour)),
		step("soon-3", "soon", 3, nil),
		{ID: "quiet-1", ProjectID: "quiet", StepNumber: 1, Status: model.StepSent},
	}

	items := TodayQueue(projects, steps, now)
	require.Len(t, items, 3)

	assert.Equal(t, "late", items[0].Project.ID)
	require.NotNil(t, items[0].NextStep)
	assert.Equal(t, "late-1", items[0].NextStep.ID)
	assert.True(t, items[0].Meta.HasOverdueSequenceStep)

	assert.Equal(t, "soon", items[1].Project.ID)
	assert.Equal(t, "soon-2", items[1].NextStep.ID)

	assert.Equal(t, "quiet", items[2].Project.ID)
	assert.Nil(t, items[2].NextStep)
}

func TestActionable(t *testing.T) {
	items := []TodayItem{
		{Project: model.Project{ID: "overdue"}, NextStep: &model.SequenceStep{ScheduledAt: at(-time.Hour)}},
		{Project: model.Project{ID: "tonight"}, NextStep: &model.SequenceStep{ScheduledAt: at(6 * time.Hour)}},
		{Project: model.Project{ID: "tomorrow"}, NextStep: &model.SequenceStep{ScheduledAt: at(24 * time.Hour)}},
		{Project: model.Project{ID: "unscheduled"}, NextStep: &model.SequenceStep{}},
		{Project: model.Project{ID: "nothing"}},
	}

	var ids []string
	for _, it := range Actionable(items, now) {
		ids = append(ids, it.Project.ID)
	}
	assert.Equal(t, []string{"overdue", "tonight", "unscheduled"}, ids)
}
