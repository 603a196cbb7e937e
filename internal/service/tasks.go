package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/api"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
)

// DeadlineOutsideMessage is the field message for a deadline outside the
// project window
const DeadlineOutsideMessage = "Deadline must be within project start and end dates"

// TaskForm holds the editable task fields
type TaskForm struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Deadline    time.Time       `json:"deadline"`
	Priority    models.Priority `json:"priority" validate:"required,oneof=Low Medium High Critical"`
	Status      models.Status   `json:"status" validate:"omitempty,oneof=ToDo InProgress Review Done"`
	AssignedTo  string          `json:"assigned_to"`
}

func (f *TaskForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.AssignedTo = strings.TrimSpace(f.AssignedTo)
	if f.Priority == "" {
		f.Priority = models.PriorityMedium
	}
}

// check validates the form against the project it belongs to
func (f *TaskForm) check(p models.Project) error {
	fields := validateStruct(f)
	if !f.Deadline.IsZero() && !p.WithinWindow(f.Deadline) {
		fields["deadline"] = DeadlineOutsideMessage
	}
	if f.AssignedTo != "" && !p.HasMember(f.AssignedTo) {
		fields["assigned_to"] = fmt.Sprintf("%s is not a member of this project", f.AssignedTo)
	}
	return invalid(fields)
}

// editableProject loads a project the actor may change tasks in
func (s *Service) editableProject(ctx context.Context, id string) (models.User, models.Project, error) {
	u, err := s.actor()
	if err != nil {
		return models.User{}, models.Project{}, err
	}
	p, err := s.api.GetProject(ctx, id)
	if err != nil {
		return models.User{}, models.Project{}, fmt.Errorf("loading project: %w", err)
	}
	if p.RoleOf(u.ID) == models.RoleViewer {
		return models.User{}, models.Project{}, apperr.Permission("viewers cannot change tasks")
	}
	return u, p, nil
}

// CreateTask adds a task to a project
func (s *Service) CreateTask(ctx context.Context, projectID string, form TaskForm) (models.Task, error) {
	const op = "service.Service.CreateTask"
	log := s.log.WithFields(logrus.Fields{"operation": op, "project": projectID})

	if _, err := s.actor(); err != nil {
		return models.Task{}, err
	}
	form.normalize()
	if form.Status == "" {
		form.Status = models.StatusToDo
	}
	_, p, err := s.editableProject(ctx, projectID)
	if err != nil {
		return models.Task{}, err
	}
	if err := form.check(p); err != nil {
		return models.Task{}, err
	}

	t, err := s.api.CreateTask(ctx, models.Task{
		ProjectID:   projectID,
		Name:        form.Name,
		Description: form.Description,
		Deadline:    form.Deadline,
		Priority:    form.Priority,
		Status:      form.Status,
		AssignedTo:  form.AssignedTo,
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}

	taskIDs := append(append([]string{}, p.TaskIDs...), t.ID)
	if _, err := s.api.UpdateProject(ctx, projectID, api.ProjectUpdate{TaskIDs: taskIDs}); err != nil {
		log.WithError(err).WithField("task", t.ID).Error("task created but not linked to project")
		return t, fmt.Errorf("linking task to project: %w", err)
	}
	log.WithField("task", t.ID).Info("task created")
	return t, nil
}

// UpdateTask edits a task's fields. The status is kept as it is; moving a
// task between columns goes through the board.
func (s *Service) UpdateTask(ctx context.Context, projectID, taskID string, form TaskForm) (models.Task, error) {
	const op = "service.Service.UpdateTask"
	if _, err := s.actor(); err != nil {
		return models.Task{}, err
	}
	form.normalize()
	_, p, err := s.editableProject(ctx, projectID)
	if err != nil {
		return models.Task{}, err
	}
	if !contains(p.TaskIDs, taskID) {
		return models.Task{}, apperr.NotFound("task %s is not in this project", taskID)
	}
	cur, err := s.api.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("loading task: %w", err)
	}
	form.Status = cur.Status
	if err := form.check(p); err != nil {
		return models.Task{}, err
	}

	next := cur
	next.ProjectID = projectID
	next.Name = form.Name
	next.Description = form.Description
	next.Deadline = form.Deadline
	next.Priority = form.Priority
	next.AssignedTo = form.AssignedTo
	updated, err := s.api.UpdateTask(ctx, next)
	if err != nil {
		return models.Task{}, fmt.Errorf("updating task: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "task": taskID}).Info("task updated")
	return updated, nil
}

// DeleteTask deletes a task and drops it from its project
func (s *Service) DeleteTask(ctx context.Context, projectID, taskID string) error {
	const op = "service.Service.DeleteTask"
	_, p, err := s.editableProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !contains(p.TaskIDs, taskID) {
		return apperr.NotFound("task %s is not in this project", taskID)
	}

	if err := s.api.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if _, err := s.api.UpdateProject(ctx, projectID, api.ProjectUpdate{TaskIDs: without(p.TaskIDs, taskID)}); err != nil {
		return fmt.Errorf("unlinking task from project: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "task": taskID}).Info("task deleted")
	return nil
}

// Unassign gives a task back. Only its assignee can do that.
func (s *Service) Unassign(ctx context.Context, taskID string) error {
	const op = "service.Service.Unassign"
	u, err := s.actor()
	if err != nil {
		return err
	}
	t, err := s.api.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("loading task: %w", err)
	}
	if t.AssignedTo != u.ID {
		return apperr.Permission("only the assignee can unassign a task")
	}

	none := ""
	if err := s.api.PatchTask(ctx, taskID, api.TaskPatch{AssignedTo: &none}); err != nil {
		return fmt.Errorf("unassigning task: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "task": taskID}).Info("task unassigned")
	return nil
}
