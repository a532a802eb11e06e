package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/felixgeelhaar/allot/internal/allocation/application/commands"
	"github.com/felixgeelhaar/allot/internal/allocation/application/queries"
	"github.com/felixgeelhaar/allot/internal/allocation/application/services"
	"github.com/felixgeelhaar/allot/internal/allocation/domain"
)

// AllocationHandler handles allocation API requests.
type AllocationHandler struct {
	batch            *commands.BatchHandler
	updateAssignment *commands.UpdateAssignmentHandler
	completeTask     *commands.CompleteTaskHandler
	deletes          *commands.DeleteHandler
	resourceSchedule *queries.ResourceScheduleHandler
	taskAssignment   *queries.TaskAssignmentHandler
	logger           *slog.Logger
}

// AllocationHandlerConfig holds dependencies for the allocation handler.
type AllocationHandlerConfig struct {
	Batch            *commands.BatchHandler
	UpdateAssignment *commands.UpdateAssignmentHandler
	CompleteTask     *commands.CompleteTaskHandler
	Deletes          *commands.DeleteHandler
	ResourceSchedule *queries.ResourceScheduleHandler
	TaskAssignment   *queries.TaskAssignmentHandler
	Logger           *slog.Logger
}

// NewAllocationHandler creates a new allocation handler.
func NewAllocationHandler(cfg AllocationHandlerConfig) *AllocationHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AllocationHandler{
		batch:            cfg.Batch,
		updateAssignment: cfg.UpdateAssignment,
		completeTask:     cfg.CompleteTask,
		deletes:          cfg.Deletes,
		resourceSchedule: cfg.ResourceSchedule,
		taskAssignment:   cfg.TaskAssignment,
		logger:           cfg.Logger,
	}
}

// BatchRequest is the body of plan and assign requests.
type BatchRequest struct {
	ProjectID int64         `json:"project_id,omitempty"`
	Tasks     []TaskRequest `json:"tasks,omitempty"`
}

// TaskRequest names one task of an explicit batch.
type TaskRequest struct {
	TaskID     int64       `json:"task_id"`
	ResourceID int64       `json:"resource_id,omitempty"`
	StartDate  domain.Date `json:"start_date"`
	EndDate    domain.Date `json:"end_date"`
}

// Items converts the request into planner items.
func (r BatchRequest) Items() []services.Item {
	if len(r.Tasks) == 0 {
		return nil
	}
	items := make([]services.Item, len(r.Tasks))
	for i, t := range r.Tasks {
		items[i] = services.Item{
			TaskID:     t.TaskID,
			ResourceID: t.ResourceID,
			Start:      t.StartDate,
			End:        t.EndDate,
		}
	}
	return items
}

// UpdateAssignmentRequest is the body of PATCH /api/v1/assignments/{id}.
type UpdateAssignmentRequest struct {
	ResourceID int64       `json:"resource_id,omitempty"`
	StartDate  domain.Date `json:"start_date"`
	EndDate    domain.Date `json:"end_date"`
	Status     string      `json:"status,omitempty"`
}

// Plan handles POST /api/v1/plan
func (h *AllocationHandler) Plan(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, commands.ModePlan)
}

// Assign handles POST /api/v1/assign
func (h *AllocationHandler) Assign(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, commands.ModeAssign)
}

func (h *AllocationHandler) runBatch(w http.ResponseWriter, r *http.Request, mode commands.Mode) {
	var req BatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	batch, err := h.batch.Handle(r.Context(), commands.BatchCommand{
		Mode:      mode,
		ProjectID: req.ProjectID,
		Items:     req.Items(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if mode == commands.ModeAssign {
		status = http.StatusCreated
	}
	writeJSON(w, status, batch)
}

// UpdateAssignment handles PATCH /api/v1/assignments/{id}
func (h *AllocationHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateAssignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := commands.UpdateAssignmentCommand{
		AssignmentID: id,
		ResourceID:   req.ResourceID,
		Start:        req.StartDate,
		End:          req.EndDate,
	}
	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		cmd.Status = status
	}

	a, err := h.updateAssignment.Handle(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queries.ToAssignmentDTO(a))
}

// DeleteAssignment handles DELETE /api/v1/assignments/{id}
func (h *AllocationHandler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.deletes.DeleteAssignment(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResourceSchedule handles GET /api/v1/resources/{id}/assignments
//
// Only ASSIGNED assignments are listed unless ?status=all or
// ?status=COMPLETED is given.
func (h *AllocationHandler) ResourceSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	query := queries.ResourceScheduleQuery{ResourceID: id, Status: domain.StatusAssigned}
	switch param := r.URL.Query().Get("status"); param {
	case "":
	case "all":
		query.Status = ""
	default:
		status, err := domain.ParseStatus(param)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		query.Status = status
	}

	schedule, err := h.resourceSchedule.Handle(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// TaskAssignment handles GET /api/v1/tasks/{id}/assignment
func (h *AllocationHandler) TaskAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	dto, err := h.taskAssignment.Handle(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// CompleteTask handles POST /api/v1/tasks/{id}/complete
func (h *AllocationHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.completeTask.Handle(r.Context(), commands.CompleteTaskCommand{TaskID: id}); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTask handles DELETE /api/v1/tasks/{id}
func (h *AllocationHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.deletes.DeleteTask(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProject handles DELETE /api/v1/projects/{id}
func (h *AllocationHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.deletes.DeleteProject(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
