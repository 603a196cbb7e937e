package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/toman/internal/models"
)

// TaskPatch is a partial task update sent with PATCH
type TaskPatch struct {
	Status     *models.Status
	AssignedTo *string
}

func (p TaskPatch) wire() map[string]any {
	body := map[string]any{}
	if p.Status != nil {
		body["status"] = string(*p.Status)
	}
	if p.AssignedTo != nil {
		body["assignedTo"] = *p.AssignedTo
	}
	return body
}

// ListTasks returns every task the backend exposes
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var out []wireTask
	if err := c.call(ctx, http.MethodGet, "/task", nil, &out, "tasks", "data"); err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(out))
	for _, t := range out {
		tasks = append(tasks, t.model())
	}
	return tasks, nil
}

// GetTask fetches one task
func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var out wireTask
	if err := c.call(ctx, http.MethodGet, "/task/"+url.PathEscape(id), nil, &out, "task", "data"); err != nil {
		return models.Task{}, err
	}
	return out.model(), nil
}

// CreateTask creates a task in t.ProjectID and returns it with its assigned id.
// The caller still has to append the id to the project.
func (c *Client) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	in := newTaskPayload(t)
	in.ProjectID = t.ProjectID
	var out wireTask
	if err := c.call(ctx, http.MethodPost, "/task", in, &out, "task", "data"); err != nil {
		return models.Task{}, err
	}
	created := out.model()
	if created.ProjectID == "" {
		created.ProjectID = t.ProjectID
	}
	return created, nil
}

// UpdateTask replaces the full task record and returns the server's copy
func (c *Client) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	var out wireTask
	if err := c.call(ctx, http.MethodPut, "/task/"+url.PathEscape(t.ID), newTaskPayload(t), &out, "task", "data"); err != nil {
		return models.Task{}, err
	}
	updated := out.model()
	if updated.ID == "" {
		updated.ID = t.ID
	}
	if updated.ProjectID == "" {
		updated.ProjectID = t.ProjectID
	}
	return updated, nil
}

// PatchTask applies a partial update
func (c *Client) PatchTask(ctx context.Context, id string, p TaskPatch) error {
	return c.call(ctx, http.MethodPatch, "/task/"+url.PathEscape(id), p.wire(), nil)
}

// DeleteTask removes a task. The caller still has to drop the id from the project.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/task/"+url.PathEscape(id), nil, nil)
}
