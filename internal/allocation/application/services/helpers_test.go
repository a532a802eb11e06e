package services

import (
	"testing"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

const (
	skillBackend int64 = iota + 1
	skillFrontend
	skillDeployment
	skillDesign
)

var fixtureToday = domain.MustParseDate("2023-07-17")

func d(s string) domain.Date {
	return domain.MustParseDate(s)
}

// fixtureResources mirrors the seed data used across the scheduler tests.
func fixtureResources() []domain.Resource {
	from := d("2023-07-17")
	return []domain.Resource{
		{ID: 1, Name: "R1", Skills: domain.NewSkillSet(skillBackend, skillDeployment), AvailableFrom: from},
		{ID: 2, Name: "R2", Skills: domain.NewSkillSet(skillFrontend), AvailableFrom: from},
		{ID: 3, Name: "R3", Skills: domain.NewSkillSet(skillDesign), AvailableFrom: from},
		{ID: 4, Name: "R4", Skills: domain.NewSkillSet(skillDeployment), AvailableFrom: from},
	}
}

func fixtureTasks() []domain.Task {
	return []domain.Task{
		{ID: 1, ProjectID: 1, Name: "T1", Skills: domain.NewSkillSet(skillBackend), Estimation: 3},
		{ID: 2, ProjectID: 1, Name: "T2", Skills: domain.NewSkillSet(skillFrontend), Estimation: 3},
		{ID: 3, ProjectID: 1, Name: "T3", Skills: domain.NewSkillSet(skillBackend, skillDeployment), Estimation: 3},
		{ID: 4, ProjectID: 1, Name: "T4", Skills: domain.NewSkillSet(skillDeployment), Estimation: 2},
		{ID: 5, ProjectID: 1, Name: "T5", Skills: domain.NewSkillSet(skillDesign), Estimation: 1},
		{ID: 6, ProjectID: 1, Name: "T6", Skills: domain.NewSkillSet(skillBackend), Estimation: 5, Start: d("2023-08-07"), End: d("2023-08-14")},
		{ID: 7, ProjectID: 1, Name: "T7", Skills: domain.NewSkillSet(skillBackend), Estimation: 2, Start: d("2023-07-26"), End: d("2023-08-03")},
	}
}

func newSnapshot(t *testing.T, resources []domain.Resource, tasks []domain.Task, active []*domain.Assignment) *Snapshot {
	t.Helper()
	byID := make(map[int64]domain.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}
	return &Snapshot{
		Today:     fixtureToday,
		Resources: resources,
		Tasks:     byID,
		Ledger:    NewLedger(active, nil),
	}
}

func stored(t *testing.T, id, taskID, resourceID int64, start, end string) *domain.Assignment {
	t.Helper()
	a, err := domain.NewAssignment(taskID, resourceID, d(start), d(end))
	if err != nil {
		t.Fatal(err)
	}
	a.Stored(id)
	return a
}

func commitments(t *testing.T, as ...*domain.Assignment) []Commitment {
	t.Helper()
	return NewLedger(as, nil).Timeline(as[0].ResourceID)
}
