package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

func TestEarliestSlot(t *testing.T) {
	r1 := fixtureResources()[0]
	backend3 := domain.Task{ID: 10, Skills: domain.NewSkillSet(skillBackend), Estimation: 3}

	tests := []struct {
		name      string
		task      domain.Task
		resource  domain.Resource
		timeline  []Commitment
		wantOK    bool
		wantStart string
		wantEnd   string
	}{
		{
			name:      "empty timeline starts tomorrow",
			task:      backend3,
			resource:  r1,
			wantOK:    true,
			wantStart: "2023-07-18",
			wantEnd:   "2023-07-21",
		},
		{
			name:      "appends after existing commitment",
			task:      backend3,
			resource:  r1,
			timeline:  commitments(t, stored(t, 1, 1, 1, "2023-07-18", "2023-07-21")),
			wantOK:    true,
			wantStart: "2023-07-22",
			wantEnd:   "2023-07-25",
		},
		{
			name:     "fills gap that fits exactly",
			task:     backend3,
			resource: r1,
			timeline: commitments(t,
				stored(t, 1, 1, 1, "2023-07-18", "2023-07-19"),
				stored(t, 2, 2, 1, "2023-07-24", "2023-07-30"),
			),
			wantOK:    true,
			wantStart: "2023-07-20",
			wantEnd:   "2023-07-23",
		},
		{
			name:     "skips gap one day too short",
			task:     backend3,
			resource: r1,
			timeline: commitments(t,
				stored(t, 1, 1, 1, "2023-07-18", "2023-07-19"),
				stored(t, 2, 2, 1, "2023-07-23", "2023-07-30"),
			),
			wantOK:    true,
			wantStart: "2023-07-31",
			wantEnd:   "2023-08-03",
		},
		{
			name:      "ongoing commitment pushes cursor",
			task:      backend3,
			resource:  r1,
			timeline:  commitments(t, stored(t, 1, 1, 1, "2023-07-10", "2023-07-19")),
			wantOK:    true,
			wantStart: "2023-07-20",
			wantEnd:   "2023-07-23",
		},
		{
			name:      "old commitments are ignored",
			task:      backend3,
			resource:  r1,
			timeline:  commitments(t, stored(t, 1, 1, 1, "2023-06-01", "2023-06-10")),
			wantOK:    true,
			wantStart: "2023-07-18",
			wantEnd:   "2023-07-21",
		},
		{
			name:      "task start raises floor",
			task:      domain.Task{ID: 6, Estimation: 5, Start: d("2023-08-07"), End: d("2023-08-14")},
			resource:  r1,
			wantOK:    true,
			wantStart: "2023-08-07",
			wantEnd:   "2023-08-12",
		},
		{
			name: "resource availability raises floor",
			task: backend3,
			resource: domain.Resource{
				ID: 9, Skills: domain.NewSkillSet(skillBackend), AvailableFrom: d("2023-08-01"),
			},
			wantOK:    true,
			wantStart: "2023-08-01",
			wantEnd:   "2023-08-04",
		},
		{
			name:     "deadline passed while walking disqualifies",
			task:     domain.Task{ID: 7, Estimation: 2, Start: d("2023-07-18"), End: d("2023-07-25")},
			resource: r1,
			timeline: commitments(t, stored(t, 1, 1, 1, "2023-07-18", "2023-07-25")),
			wantOK:   false,
		},
		{
			name:     "candidate ending after task end is infeasible",
			task:     domain.Task{ID: 7, Estimation: 5, Start: d("2023-07-18"), End: d("2023-07-22")},
			resource: r1,
			wantOK:   false,
		},
		{
			name: "candidate ending after availability is infeasible",
			task: backend3,
			resource: domain.Resource{
				ID: 9, AvailableFrom: d("2023-07-01"), AvailableUntil: d("2023-07-20"),
			},
			wantOK: false,
		},
		{
			name:      "zero estimation occupies one day",
			task:      domain.Task{ID: 11},
			resource:  r1,
			timeline:  commitments(t, stored(t, 1, 1, 1, "2023-07-18", "2023-07-18")),
			wantOK:    true,
			wantStart: "2023-07-19",
			wantEnd:   "2023-07-19",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, ok := EarliestSlot(tt.task, tt.resource, tt.timeline, fixtureToday)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.resource.ID, slot.ResourceID)
			assert.Equal(t, tt.wantStart, slot.Start.String())
			assert.Equal(t, tt.wantEnd, slot.End.String())
		})
	}
}

func TestEarliestSlot_NeverOverlapsTimeline(t *testing.T) {
	r1 := fixtureResources()[0]
	timeline := commitments(t,
		stored(t, 1, 1, 1, "2023-07-18", "2023-07-20"),
		stored(t, 2, 2, 1, "2023-07-22", "2023-07-22"),
		stored(t, 3, 3, 1, "2023-07-25", "2023-07-27"),
		stored(t, 4, 4, 1, "2023-07-30", "2023-08-05"),
	)

	for estimation := 0; estimation <= 6; estimation++ {
		task := domain.Task{ID: 20, Estimation: estimation}
		slot, ok := EarliestSlot(task, r1, timeline, fixtureToday)
		require.True(t, ok)
		assert.Equal(t, estimation, slot.Start.DaysUntil(slot.End))
		assert.True(t, slot.Start.After(fixtureToday))
		for _, c := range timeline {
			assert.False(t, c.Overlaps(slot.Start, slot.End), "estimation %d: %s..%s overlaps %s..%s",
				estimation, slot.Start, slot.End, c.Start, c.End)
		}
	}
}
