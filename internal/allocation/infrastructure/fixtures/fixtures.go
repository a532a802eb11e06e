// Package fixtures loads seed data described in YAML into the repositories.
package fixtures

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/allot/internal/allocation/domain"
	sharedApplication "github.com/felixgeelhaar/allot/internal/shared/application"
)

//go:embed scenarios/*.yaml
var scenarios embed.FS

// File is the YAML layout of a seed file. Resources, projects and tasks are
// referenced by name, which must be unique within the file.
type File struct {
	Today       string       `yaml:"today"`
	Skills      []string     `yaml:"skills"`
	Resources   []Resource   `yaml:"resources"`
	Projects    []Project    `yaml:"projects"`
	Assignments []Assignment `yaml:"assignments"`
}

// Resource is a seeded resource; skills are referenced by name.
type Resource struct {
	Name           string   `yaml:"name"`
	Skills         []string `yaml:"skills"`
	AvailableFrom  string   `yaml:"available_from"`
	AvailableUntil string   `yaml:"available_until"`
}

// Project is a seeded project together with its tasks.
type Project struct {
	Name      string `yaml:"name"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Completed bool   `yaml:"completed"`
	Tasks     []Task `yaml:"tasks"`
}

// Task is a seeded task. Either end of its window may be left empty.
type Task struct {
	Name       string   `yaml:"name"`
	Skills     []string `yaml:"skills"`
	Estimation int      `yaml:"estimation"`
	Start      string   `yaml:"start"`
	End        string   `yaml:"end"`
	Completed  bool     `yaml:"completed"`
}

// Assignment links a task to a resource by name. Status defaults to ASSIGNED.
type Assignment struct {
	Task     string `yaml:"task"`
	Resource string `yaml:"resource"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Status   string `yaml:"status"`
}

// Parse decodes a seed file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// Scenario returns a built-in seed file by name, e.g. "sample".
func Scenario(name string) (*File, error) {
	data, err := scenarios.ReadFile("scenarios/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return Parse(bytes.NewReader(data))
}

// Result maps the names used in the file to stored ids.
type Result struct {
	Today     domain.Date
	Skills    map[string]int64
	Resources map[string]int64
	Projects  map[string]int64
	Tasks     map[string]int64
}

// Loader writes seed files through the domain repositories.
type Loader struct {
	skills      domain.SkillRepository
	resources   domain.ResourceRepository
	projects    domain.ProjectRepository
	tasks       domain.TaskRepository
	assignments domain.AssignmentRepository
	uow         sharedApplication.UnitOfWork
	logger      *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(
	skills domain.SkillRepository,
	resources domain.ResourceRepository,
	projects domain.ProjectRepository,
	tasks domain.TaskRepository,
	assignments domain.AssignmentRepository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		skills:      skills,
		resources:   resources,
		projects:    projects,
		tasks:       tasks,
		assignments: assignments,
		uow:         uow,
		logger:      logger,
	}
}

// Load stores the whole file in one unit of work.
func (l *Loader) Load(ctx context.Context, f *File) (*Result, error) {
	res := &Result{
		Skills:    make(map[string]int64),
		Resources: make(map[string]int64),
		Projects:  make(map[string]int64),
		Tasks:     make(map[string]int64),
	}
	if f.Today != "" {
		today, err := domain.ParseDate(f.Today)
		if err != nil {
			return nil, fmt.Errorf("today: %w", err)
		}
		res.Today = today
	}

	err := sharedApplication.WithUnitOfWork(ctx, l.uow, func(txCtx context.Context) error {
		for _, name := range f.Skills {
			if _, err := l.skill(txCtx, res, name); err != nil {
				return err
			}
		}
		for _, r := range f.Resources {
			if err := l.loadResource(txCtx, res, r); err != nil {
				return err
			}
		}
		for _, p := range f.Projects {
			if err := l.loadProject(txCtx, res, p); err != nil {
				return err
			}
		}
		for _, a := range f.Assignments {
			if err := l.loadAssignment(txCtx, res, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "fixtures loaded",
		"resources", len(res.Resources),
		"projects", len(res.Projects),
		"tasks", len(res.Tasks),
		"assignments", len(f.Assignments),
	)
	return res, nil
}

func (l *Loader) skill(ctx context.Context, res *Result, name string) (int64, error) {
	if id, ok := res.Skills[name]; ok {
		return id, nil
	}
	s, err := l.skills.Ensure(ctx, name)
	if err != nil {
		return 0, err
	}
	res.Skills[name] = s.ID
	return s.ID, nil
}

func (l *Loader) skillSet(ctx context.Context, res *Result, names []string) (domain.SkillSet, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := l.skill(ctx, res, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return domain.NewSkillSet(ids...), nil
}

func (l *Loader) loadResource(ctx context.Context, res *Result, r Resource) error {
	if _, dup := res.Resources[r.Name]; dup {
		return fmt.Errorf("resource %q is defined twice", r.Name)
	}
	skills, err := l.skillSet(ctx, res, r.Skills)
	if err != nil {
		return err
	}
	from, err := optionalDate(r.AvailableFrom)
	if err != nil {
		return fmt.Errorf("resource %q: %w", r.Name, err)
	}
	until, err := optionalDate(r.AvailableUntil)
	if err != nil {
		return fmt.Errorf("resource %q: %w", r.Name, err)
	}

	resource := &domain.Resource{Name: r.Name, Skills: skills, AvailableFrom: from, AvailableUntil: until}
	if err := l.resources.Save(ctx, resource); err != nil {
		return err
	}
	res.Resources[r.Name] = resource.ID
	return nil
}

func (l *Loader) loadProject(ctx context.Context, res *Result, p Project) error {
	if _, dup := res.Projects[p.Name]; dup {
		return fmt.Errorf("project %q is defined twice", p.Name)
	}
	start, end, err := window(p.Start, p.End)
	if err != nil {
		return fmt.Errorf("project %q: %w", p.Name, err)
	}
	project := &domain.Project{Name: p.Name, Start: start, End: end, Completed: p.Completed}
	if err := l.projects.Save(ctx, project); err != nil {
		return err
	}
	res.Projects[p.Name] = project.ID

	for _, t := range p.Tasks {
		if _, dup := res.Tasks[t.Name]; dup {
			return fmt.Errorf("task %q is defined twice", t.Name)
		}
		skills, err := l.skillSet(ctx, res, t.Skills)
		if err != nil {
			return err
		}
		start, end, err := window(t.Start, t.End)
		if err != nil {
			return fmt.Errorf("task %q: %w", t.Name, err)
		}
		task := &domain.Task{
			ProjectID:  project.ID,
			Name:       t.Name,
			Skills:     skills,
			Estimation: t.Estimation,
			Start:      start,
			End:        end,
			Completed:  t.Completed,
		}
		if err := l.tasks.Save(ctx, task); err != nil {
			return err
		}
		res.Tasks[t.Name] = task.ID
	}
	return nil
}

func (l *Loader) loadAssignment(ctx context.Context, res *Result, a Assignment) error {
	taskID, ok := res.Tasks[a.Task]
	if !ok {
		return fmt.Errorf("assignment: unknown task %q", a.Task)
	}
	resourceID, ok := res.Resources[a.Resource]
	if !ok {
		return fmt.Errorf("assignment: unknown resource %q", a.Resource)
	}
	start, err := domain.ParseDate(a.Start)
	if err != nil {
		return fmt.Errorf("assignment of %q: %w", a.Task, err)
	}
	end, err := domain.ParseDate(a.End)
	if err != nil {
		return fmt.Errorf("assignment of %q: %w", a.Task, err)
	}

	assignment, err := domain.NewAssignment(taskID, resourceID, start, end)
	if err != nil {
		return fmt.Errorf("assignment of %q: %w", a.Task, err)
	}
	if a.Status != "" {
		if assignment.Status, err = domain.ParseStatus(a.Status); err != nil {
			return err
		}
	}
	return l.assignments.Insert(ctx, assignment)
}

func optionalDate(s string) (domain.Date, error) {
	if s == "" {
		return domain.Date{}, nil
	}
	return domain.ParseDate(s)
}

func window(start, end string) (domain.Date, domain.Date, error) {
	s, err := optionalDate(start)
	if err != nil {
		return domain.Date{}, domain.Date{}, err
	}
	e, err := optionalDate(end)
	if err != nil {
		return domain.Date{}, domain.Date{}, err
	}
	if !s.IsZero() && !e.IsZero() && e.Before(s) {
		return domain.Date{}, domain.Date{}, domain.ErrEndBeforeStart
	}
	return s, e, nil
}
