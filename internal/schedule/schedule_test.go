package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/leadradar/internal/model"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func step(id, project string, number int, scheduled *time.Time) model.SequenceStep {
	return model.SequenceStep{
		ID:          id,
		ProjectID:   project,
		StepNumber:  number,
		Status:      model.StepPending,
		ScheduledAt: scheduled,
	}
}

func TestPickNextSequenceStep_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		steps []model.SequenceStep
		want  string
	}{
		{
			name: "overdue beats future",
			steps: []model.SequenceStep{
				step("future", "p", 1, at(time.Hour)),
				step("overdue", "p", 2, at(-time.Hour)),
			},
			want: "overdue",
		},
		{
			name: "earliest overdue",
			steps: []model.SequenceStep{
				step("a", "p", 1, at(-time.Hour)),
				step("b", "p", 2, at(-48*time.Hour)),
			},
			want: "b",
		},
		{
			name: "earliest future",
			steps: []model.SequenceStep{
				step("later", "p", 1, at(72*time.Hour)),
				step("soon", "p", 2, at(2*time.Hour)),
			},
			want: "soon",
		},
		{
			name: "scheduled beats unscheduled",
			steps: []model.SequenceStep{
				step("unscheduled", "p", 1, nil),
				step("scheduled", "p", 5, at(240*time.Hour)),
			},
			want: "scheduled",
		},
		{
			name: "lowest step number among unscheduled",
			steps: []model.SequenceStep{
				step("three", "p", 3, nil),
				step("one", "p", 1, nil),
				step("two", "p", 2, nil),
			},
			want: "one",
		},
		{
			name: "non-pending ignored",
			steps: []model.SequenceStep{
				{ID: "sent", ProjectID: "p", StepNumber: 1, Status: model.StepSent, ScheduledAt: at(-time.Hour)},
				step("next", "p", 2, at(time.Hour)),
			},
			want: "next",
		},
		{
			name: "scheduled exactly now is not overdue",
			steps: []model.SequenceStep{
				step("now", "p", 1, at(0)),
				step("overdue", "p", 2, at(-time.Minute)),
			},
			want: "overdue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickNextSequenceStep(tt.steps, now)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestPickNextSequenceStep_Empty(t *testing.T) {
	_, ok := PickNextSequenceStep(nil, now)
	assert.False(t, ok)

	_, ok = PickNextSequenceStep([]model.SequenceStep{{ID: "x", Status: model.StepSkipped}}, now)
	assert.False(t, ok)
}

func TestBuildStepMeta(t *testing.T) {
	steps := []model.SequenceStep{
		step("a1", "a", 1, at(-48*time.Hour)),
		step("a2", "a", 2, at(-time.Hour)),
		step("a3", "a", 3, at(24*time.Hour)),
		step("b1", "b", 1, at(6*time.Hour)),
		step("c1", "c", 1, nil),
		{ID: "d1", ProjectID: "d", StepNumber: 1, Status: model.StepSent, ScheduledAt: at(-time.Hour)},
		step("ghost", "unknown", 1, at(-time.Hour)),
	}

	meta := BuildStepMeta(steps, []string{"a", "b", "c", "d", "e"}, now)
	require.Len(t, meta, 5)

	assert.Equal(t, *at(-48 * time.Hour), *meta["a"].NextSequenceStepDueAt)
	assert.True(t, meta["a"].HasOverdueSequenceStep)
	assert.Equal(t, 2, meta["a"].OverdueCount)

	assert.Equal(t, *at(6 * time.Hour), *meta["b"].NextSequenceStepDueAt)
	assert.False(t, meta["b"].HasOverdueSequenceStep)
	assert.Equal(t, 0, meta["b"].OverdueCount)

	for _, id := range []string{"c", "d", "e"} {
		assert.Equal(t, model.ProjectPriorityMeta{}, meta[id], id)
	}
	_, ok := meta["unknown"]
	assert.False(t, ok)
}

func TestBuildStepMeta_DoesNotAliasInput(t *testing.T) {
	scheduled := now.Add(-time.Hour)
	steps := []model.SequenceStep{step("a1", "a", 1, &scheduled)}

	meta := BuildStepMeta(steps, []string{"a"}, now)
	*meta["a"].NextSequenceStepDueAt = now.Add(time.Hour)

	assert.Equal(t, now.Add(-time.Hour), scheduled)
}

func TestSortProjectsByPriority(t *testing.T) {
	projects := []model.Project{
		{ID: "idle-old", IcpScore: 10, UpdatedAt: now.Add(-72 * time.Hour)},
		{ID: "upcoming-late", UpdatedAt: now},
		{ID: "overdue-recent"},
		{ID: "idle-high-icp", IcpScore: 90, UpdatedAt: now.Add(-96 * time.Hour)},
		{ID: "upcoming-soon"},
		{ID: "overdue-oldest"},
		{ID: "idle-new", IcpScore: 10, UpdatedAt: now},
	}
	meta := map[string]model.ProjectPriorityMeta{
		"overdue-recent": {NextSequenceStepDueAt: at(-time.Hour), HasOverdueSequenceStep: true, OverdueCount: 1},
		"overdue-oldest": {NextSequenceStepDueAt: at(-72 * time.Hour), HasOverdueSequenceStep: true, OverdueCount: 1},
		"upcoming-soon":  {NextSequenceStepDueAt: at(time.Hour)},
		"upcoming-late":  {NextSequenceStepDueAt: at(48 * time.Hour)},
	}

	sorted := SortProjectsByPriority(projects, meta)

	var ids []string
	for _, p := range sorted {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{
		"overdue-oldest",
		"overdue-recent",
		"upcoming-soon",
		"upcoming-late",
		"idle-high-icp",
		"idle-new",
		"idle-old",
	}, ids)

	// input order untouched
	assert.Equal(t, "idle-old", projects[0].ID)
}

func TestSortProjectsByPriority_OverdueCountBreaksEqualDates(t *testing.T) {
	due := at(-time.Hour)
	projects := []model.Project{{ID: "one"}, {ID: "many"}}
	meta := map[string]model.ProjectPriorityMeta{
		"one":  {NextSequenceStepDueAt: due, HasOverdueSequenceStep: true, OverdueCount: 1},
		"many": {NextSequenceStepDueAt: due, HasOverdueSequenceStep: true, OverdueCount: 4},
	}

	sorted := SortProjectsByPriority(projects, meta)
	assert.Equal(t, "many", sorted[0].ID)
}

func TestSortProjectsByPriority_Empty(t *testing.T) {
	assert.Empty(t, SortProjectsByPriority(nil, nil))
}
