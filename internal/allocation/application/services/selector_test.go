package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

func TestEligible(t *testing.T) {
	resources := fixtureResources()

	ids := func(rs []domain.Resource) []int64 {
		var out []int64
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	deploy := domain.Task{Skills: domain.NewSkillSet(skillDeployment)}
	assert.Equal(t, []int64{1, 4}, ids(Eligible(deploy, resources, 0)))
	assert.Equal(t, []int64{4}, ids(Eligible(deploy, resources, 4)))
	assert.Empty(t, Eligible(deploy, resources, 2))

	anySkill := domain.Task{}
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(Eligible(anySkill, resources, 0)))

	early := domain.Task{Start: d("2023-07-10")}
	assert.Empty(t, Eligible(early, resources, 0))

	resources[1].AvailableUntil = d("2023-07-31")
	windowed := domain.Task{Start: d("2023-07-20"), End: d("2023-08-10")}
	assert.Equal(t, []int64{1, 3, 4}, ids(Eligible(windowed, resources, 0)))
}

type staticTimelines map[int64][]Commitment

func (s staticTimelines) Timeline(id int64) []Commitment { return s[id] }

func TestSelectEarliest(t *testing.T) {
	resources := fixtureResources()
	deploy := domain.Task{ID: 4, Skills: domain.NewSkillSet(skillDeployment), Estimation: 2}

	t.Run("picks the earliest resource", func(t *testing.T) {
		timelines := staticTimelines{1: commitments(t, stored(t, 1, 1, 1, "2023-07-18", "2023-07-25"))}
		slot, ok := SelectEarliest(deploy, resources, timelines, fixtureToday, 0)
		require.True(t, ok)
		assert.Equal(t, int64(4), slot.ResourceID)
		assert.Equal(t, "2023-07-18", slot.Start.String())
	})

	t.Run("first resource wins ties", func(t *testing.T) {
		timelines := staticTimelines{
			1: commitments(t, stored(t, 1, 1, 1, "2023-07-18", "2023-07-20")),
			4: commitments(t, stored(t, 2, 2, 4, "2023-07-18", "2023-07-20")),
		}
		slot, ok := SelectEarliest(deploy, resources, timelines, fixtureToday, 0)
		require.True(t, ok)
		assert.Equal(t, int64(1), slot.ResourceID)
		assert.Equal(t, "2023-07-21", slot.Start.String())
	})

	t.Run("tomorrow ends the scan on the first resource", func(t *testing.T) {
		slot, ok := SelectEarliest(deploy, resources, staticTimelines{}, fixtureToday, 0)
		require.True(t, ok)
		assert.Equal(t, int64(1), slot.ResourceID)
	})

	t.Run("restricted to one resource", func(t *testing.T) {
		timelines := staticTimelines{4: commitments(t, stored(t, 1, 1, 4, "2023-07-18", "2023-07-25"))}
		slot, ok := SelectEarliest(deploy, resources, timelines, fixtureToday, 4)
		require.True(t, ok)
		assert.Equal(t, int64(4), slot.ResourceID)
		assert.Equal(t, "2023-07-26", slot.Start.String())
	})

	t.Run("no eligible resource", func(t *testing.T) {
		task := domain.Task{ID: 9, Skills: domain.NewSkillSet(skillFrontend, skillDesign)}
		_, ok := SelectEarliest(task, resources, staticTimelines{}, fixtureToday, 0)
		assert.False(t, ok)
	})

	t.Run("no resource fits the deadline", func(t *testing.T) {
		task := domain.Task{ID: 9, Skills: domain.NewSkillSet(skillDesign), Estimation: 10, Start: d("2023-07-18"), End: d("2023-07-20")}
		_, ok := SelectEarliest(task, resources, staticTimelines{}, fixtureToday, 0)
		assert.False(t, ok)
	})
}
