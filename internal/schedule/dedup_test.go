package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"planner/internal/model"
)

func TestNormalizeClientName(t *testing.T) {
	assert.Equal(t, "ACME", NormalizeClientName("ACME (HQ)"))
	assert.Equal(t, "ACME", NormalizeClientName("  acme  "))
	assert.Equal(t, "ACME CORP", NormalizeClientName("Acme Corp (Lyon) (old)"))
	assert.Equal(t, "", NormalizeClientName("(none)"))
}

func appt(id, clientID, name string) model.CalendarEvent {
	return model.CalendarEvent{ID: id, SourceType: model.SourceAppointment, LinkedClientID: clientID, ClientName: name}
}

func callback(id, clientID, name string) model.CalendarEvent {
	return model.CalendarEvent{ID: id, SourceType: model.SourceCallback, LinkedClientID: clientID, ClientName: name}
}

func ids(evs []model.CalendarEvent) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.ID)
	}
	return out
}

func TestDedup(t *testing.T) {
	tests := []struct {
		name   string
		events []model.CalendarEvent
		want   []string
	}{
		{
			name:   "no appointment keeps callback",
			events: []model.CalendarEvent{callback("cb", "c1", "ACME")},
			want:   []string{"cb"},
		},
		{
			name:   "same client id",
			events: []model.CalendarEvent{callback("cb", "c1", "Acme"), appt("a", "c1", "Other label")},
			want:   []string{"a"},
		},
		{
			name:   "different client ids with same name stay",
			events: []model.CalendarEvent{callback("cb", "c1", "ACME"), appt("a", "c2", "ACME")},
			want:   []string{"cb", "a"},
		},
		{
			name:   "name match when callback lacks id",
			events: []model.CalendarEvent{appt("a", "c1", "ACME (HQ)"), callback("cb", "", " acme ")},
			want:   []string{"a"},
		},
		{
			name:   "name match when appointment lacks id",
			events: []model.CalendarEvent{callback("cb", "c9", "Globex"), appt("a", "", "GLOBEX (Paris)")},
			want:   []string{"a"},
		},
		{
			name:   "empty names never match",
			events: []model.CalendarEvent{callback("cb", "", ""), appt("a", "", "")},
			want:   []string{"cb", "a"},
		},
		{
			name: "other sources untouched",
			events: []model.CalendarEvent{
				{ID: "s", SourceType: model.SourceSession, ClientName: "ACME"},
				{ID: "b", SourceType: model.SourcePlanningBlock},
				appt("a", "", "ACME"),
			},
			want: []string{"s", "b", "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Dedup(tt.events)))
		})
	}
}

func TestDedupIdempotent(t *testing.T) {
	events := []model.CalendarEvent{
		callback("cb1", "c1", "ACME"),
		callback("cb2", "", "Globex"),
		callback("cb3", "c3", "Initech"),
		appt("a1", "c1", "ACME"),
		appt("a2", "", "globex (HQ)"),
	}
	once := Dedup(events)
	twice := Dedup(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"cb3", "a1", "a2"}, ids(once))
}

func TestDedupOrderIndependent(t *testing.T) {
	a := []model.CalendarEvent{callback("cb1", "c1", "ACME"), appt("a1", "c1", "ACME"), callback("cb2", "", "Beta")}
	b := []model.CalendarEvent{callback("cb2", "", "Beta"), appt("a1", "c1", "ACME"), callback("cb1", "c1", "ACME")}
	assert.ElementsMatch(t, ids(Dedup(a)), ids(Dedup(b)))
}
