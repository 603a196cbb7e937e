package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/tgienger/toman/internal/models"
)

// ProjectUpdate is a partial project update; nil fields are left alone
type ProjectUpdate struct {
	Name        *string
	Description *string
	Color       *string
	StartDate   *time.Time
	EndDate     *time.Time
	TaskIDs     []string        // replaces the task list when non-nil
	Members     []models.Member // replaces the role bindings when non-nil
}

func (u ProjectUpdate) wire() map[string]any {
	body := map[string]any{}
	if u.Name != nil {
		body["projectName"] = *u.Name
	}
	if u.Description != nil {
		body["projectDescription"] = *u.Description
	}
	if u.Color != nil {
		body["colorCode"] = *u.Color
	}
	if u.StartDate != nil {
		body["startDate"] = wt(*u.StartDate)
	}
	if u.EndDate != nil {
		body["endDate"] = wt(*u.EndDate)
	}
	if u.TaskIDs != nil {
		body["taskIds"] = u.TaskIDs
	}
	if u.Members != nil {
		body["members"] = wireMembers(u.Members)
	}
	return body
}

// GetProject fetches one project
func (c *Client) GetProject(ctx context.Context, id string) (models.Project, error) {
	var out wireProject
	if err := c.call(ctx, http.MethodGet, "/project/"+url.PathEscape(id), nil, &out, "project", "data"); err != nil {
		return models.Project{}, err
	}
	return out.model(), nil
}

// CreateProject creates a project and returns it with its assigned id
func (c *Client) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	color := p.Color
	if color == "" {
		color = defaultProjectColor
	}
	in := projectPayload{
		ProjectName:        p.Name,
		ProjectDescription: p.Description,
		StartDate:          wt(p.StartDate),
		EndDate:            wt(p.EndDate),
		ColorCode:          color,
		Members:            wireMembers(p.Members),
		TaskIDs:            nonNil(p.TaskIDs),
	}
	var out wireProject
	if err := c.call(ctx, http.MethodPost, "/project", in, &out, "project", "data"); err != nil {
		return models.Project{}, err
	}
	return out.model(), nil
}

// UpdateProject applies a partial update
func (c *Client) UpdateProject(ctx context.Context, id string, u ProjectUpdate) (models.Project, error) {
	var out wireProject
	if err := c.call(ctx, http.MethodPut, "/project/"+url.PathEscape(id), u.wire(), &out, "project", "data"); err != nil {
		return models.Project{}, err
	}
	return out.model(), nil
}

// DeleteProject removes a project
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/project/"+url.PathEscape(id), nil, nil)
}
