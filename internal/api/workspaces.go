package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/toman/internal/models"
)

// WorkspaceUpdate is a partial workspace update; nil fields are left alone
type WorkspaceUpdate struct {
	Name        *string
	Description *string
	Visibility  *models.Visibility
	Avatar      *string
	Members     []string // replaces the member list when non-nil
	ProjectIDs  []string // replaces the project list when non-nil
}

func (u WorkspaceUpdate) wire() map[string]any {
	body := map[string]any{}
	if u.Name != nil {
		body["name"] = *u.Name
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.Visibility != nil {
		body["visibility"] = string(*u.Visibility)
	}
	if u.Avatar != nil {
		body["avatar"] = *u.Avatar
	}
	if u.Members != nil {
		body["members"] = u.Members
	}
	if u.ProjectIDs != nil {
		body["projectIds"] = u.ProjectIDs
	}
	return body
}

// ListWorkspaces returns every workspace the backend exposes
func (c *Client) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	var out []wireWorkspace
	if err := c.call(ctx, http.MethodGet, "/workspace", nil, &out, "workspaces", "data"); err != nil {
		return nil, err
	}
	ws := make([]models.Workspace, 0, len(out))
	for _, w := range out {
		ws = append(ws, w.model())
	}
	return ws, nil
}

// GetWorkspace fetches one workspace
func (c *Client) GetWorkspace(ctx context.Context, id string) (models.Workspace, error) {
	var out wireWorkspace
	if err := c.call(ctx, http.MethodGet, "/workspace/"+url.PathEscape(id), nil, &out, "workspace", "data"); err != nil {
		return models.Workspace{}, err
	}
	return out.model(), nil
}

// CreateWorkspace creates a workspace and returns it with its assigned id
func (c *Client) CreateWorkspace(ctx context.Context, w models.Workspace) (models.Workspace, error) {
	in := workspacePayload{
		Name:        w.Name,
		Description: w.Description,
		Visibility:  string(w.Visibility),
		Avatar:      w.Avatar,
		UserID:      w.OwnerID,
		Members:     nonNil(w.Members),
		ProjectIDs:  nonNil(w.ProjectIDs),
	}
	var out wireWorkspace
	if err := c.call(ctx, http.MethodPost, "/workspace", in, &out, "workspace", "data"); err != nil {
		return models.Workspace{}, err
	}
	return out.model(), nil
}

// UpdateWorkspace applies a partial update
func (c *Client) UpdateWorkspace(ctx context.Context, id string, u WorkspaceUpdate) (models.Workspace, error) {
	var out wireWorkspace
	if err := c.call(ctx, http.MethodPut, "/workspace/"+url.PathEscape(id), u.wire(), &out, "workspace", "data"); err != nil {
		return models.Workspace{}, err
	}
	return out.model(), nil
}

// TransferWorkspace hands ownership of a workspace to userID
func (c *Client) TransferWorkspace(ctx context.Context, id, userID string) error {
	return c.call(ctx, http.MethodPut, "/workspace/"+url.PathEscape(id), map[string]string{"userId": userID}, nil)
}

// DeleteWorkspace removes a workspace
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/workspace/"+url.PathEscape(id), nil, nil)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
