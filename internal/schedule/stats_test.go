package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"planner/internal/model"
)

func TestComputeStats(t *testing.T) {
	w := week(t, "2024-01-01")
	snap := Snapshot{
		Sessions: []model.Session{
			{ID: "s1", StartDate: "2024-01-01", EndDate: "2024-01-03", Amount: 1200},
			{ID: "s2", StartDate: "2024-01-05", Amount: 300.5},
		},
		Appointments: []model.Appointment{{ID: "a1", Date: "2024-01-02"}},
		Callbacks:    []model.Callback{{ID: "cb1", Date: "2024-01-04", ClientName: "X"}},
		Blocks: []model.PlanningBlock{
			{ID: "b1", Date: "2024-01-04", Kind: model.BlockUnavailability},
			{ID: "b2", Date: "2024-01-04", Kind: model.BlockAdmin},
		},
	}
	s := ComputeStats(BuildWeek(w, snap, Durations{}))

	assert.Equal(t, 2, s.Sessions)
	assert.Equal(t, 4, s.SessionDays)
	assert.Equal(t, 1, s.Appointments)
	assert.Equal(t, 1, s.Callbacks)
	assert.Equal(t, 2, s.PlanningBlocks)
	assert.Equal(t, 1, s.Unavailabilities)
	assert.Equal(t, 5, s.BusyDays)
	assert.Equal(t, 1, s.FreeDays)
	assert.InDelta(t, 1500.5, s.SessionValue, 0.001)
	assert.Equal(t, w, s.Window)
}

func TestComputeStatsEmptyWeek(t *testing.T) {
	w := week(t, "2024-01-01")
	s := ComputeStats(GroupWeek(w, nil))
	assert.Equal(t, StatsSummary{Window: w, FreeDays: 6}, s)
}
