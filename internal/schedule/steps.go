package schedule

import (
	"time"

	"github.com/ppiankov/leadradar/internal/model"
)

// StepsFromTouches turns generated touches into PENDING steps scheduled at
// start plus each touch's day offset. A zero start leaves every step unscheduled.
func StepsFromTouches(touches []model.SequenceTouch, start time.Time) []model.SequenceStep {
	steps := make([]model.SequenceStep, 0, len(touches))
	for i, t := range touches {
		number := t.StepNumber
		if number <= 0 {
			number = i + 1
		}
		step := model.SequenceStep{
			StepNumber: number,
			Channel:    t.Channel,
			Content:    t.Content,
			Status:     model.StepPending,
		}
		if !start.IsZero() {
			at := start.AddDate(0, 0, max(t.DayOffset, 0)).UTC()
			step.ScheduledAt = &at
		}
		steps = append(steps, step)
	}
	return steps
}
