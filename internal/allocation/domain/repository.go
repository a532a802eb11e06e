package domain

import "context"

// SkillRepository persists skills.
type SkillRepository interface {
	// Ensure returns the skill with the given name, creating it if needed.
	Ensure(ctx context.Context, name string) (*Skill, error)
	List(ctx context.Context) ([]Skill, error)
}

// ResourceRepository persists resources with their skills.
type ResourceRepository interface {
	Save(ctx context.Context, resource *Resource) error
	FindByID(ctx context.Context, id int64) (*Resource, error)
	// List returns all resources ordered by id.
	List(ctx context.Context) ([]Resource, error)
	// Lock takes row locks on the resources for the rest of the transaction.
	Lock(ctx context.Context, ids []int64) error
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	Save(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id int64) (*Project, error)
	Update(ctx context.Context, project *Project) error
}

// TaskRepository persists tasks with their required skills.
type TaskRepository interface {
	Save(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id int64) (*Task, error)
	FindByIDs(ctx context.Context, ids []int64) ([]Task, error)
	// FindUnassignedByProject returns open tasks of the project that have no
	// assignment, by start date with undated tasks first, then id.
	FindUnassignedByProject(ctx context.Context, projectID int64) ([]Task, error)
	// ListByProject returns the project's tasks that are not deleted.
	ListByProject(ctx context.Context, projectID int64) ([]Task, error)
	Update(ctx context.Context, task *Task) error
}

// AssignmentRepository persists assignments.
type AssignmentRepository interface {
	// Insert stores a new assignment and calls Stored with its id.
	Insert(ctx context.Context, assignment *Assignment) error
	Update(ctx context.Context, assignment *Assignment) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Assignment, error)
	FindByTask(ctx context.Context, taskID int64) (*Assignment, error)
	FindByTasks(ctx context.Context, taskIDs []int64) ([]*Assignment, error)
	// ListActiveSince returns ASSIGNED assignments ending on or after from.
	ListActiveSince(ctx context.Context, from Date) ([]*Assignment, error)
	// ListByResource returns the resource's assignments by start date. An
	// empty status returns every status.
	ListByResource(ctx context.Context, resourceID int64, status Status) ([]*Assignment, error)
}
