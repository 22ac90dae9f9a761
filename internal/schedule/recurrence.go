package schedule

import (
	"time"

	"github.com/teambition/rrule-go"

	"planner/internal/model"
)

// expandRecurrence returns the dates within w on which a rule anchored at
// anchor fires. Expansion happens in UTC on date boundaries only; the time
// of day always comes from the block itself.
func expandRecurrence(rule string, anchor model.Date, w model.WeekWindow) ([]model.Date, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, err
	}
	r.DTStart(anchor.In(time.UTC))

	times := r.Between(w.Monday.In(time.UTC), w.End().In(time.UTC), true)
	out := make([]model.Date, 0, len(times))
	for _, t := range times {
		d := model.DateOf(t.UTC())
		if w.Contains(d) {
			out = append(out, d)
		}
	}
	return out, nil
}
