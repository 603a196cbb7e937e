package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/toman/internal/models"
)

// ListInvitations returns every outstanding invitation
func (c *Client) ListInvitations(ctx context.Context) ([]models.Invitation, error) {
	var out []wireInvite
	if err := c.call(ctx, http.MethodGet, "/invite", nil, &out, "data", "invites"); err != nil {
		return nil, err
	}
	invites := make([]models.Invitation, 0, len(out))
	for _, i := range out {
		invites = append(invites, i.model())
	}
	return invites, nil
}

// GetInvitation looks up an invitation by its code
func (c *Client) GetInvitation(ctx context.Context, code string) (models.Invitation, error) {
	var out wireInvite
	if err := c.call(ctx, http.MethodGet, "/invite/"+url.PathEscape(code), nil, &out, "data", "invite"); err != nil {
		return models.Invitation{}, err
	}
	return out.model(), nil
}

// CreateInvitation stores a new invitation code for a workspace
func (c *Client) CreateInvitation(ctx context.Context, code, workspaceID string) (models.Invitation, error) {
	in := map[string]string{"invitationCode": code, "workspaceId": workspaceID}
	var out wireInvite
	if err := c.call(ctx, http.MethodPost, "/invite", in, &out, "data", "invite"); err != nil {
		return models.Invitation{}, err
	}
	inv := out.model()
	if inv.Code == "" {
		inv.Code = code
	}
	if inv.WorkspaceID == "" {
		inv.WorkspaceID = workspaceID
	}
	return inv, nil
}

// DeleteInvitation removes an invitation by its code
func (c *Client) DeleteInvitation(ctx context.Context, code string) error {
	return c.call(ctx, http.MethodDelete, "/invite/"+url.PathEscape(code), nil, nil)
}

// SendInvitation asks the backend to email an invitation code
func (c *Client) SendInvitation(ctx context.Context, email, code, workspaceID string) error {
	in := map[string]string{"email": email, "invitationCode": code, "workspaceId": workspaceID}
	return c.call(ctx, http.MethodPost, "/send-invite", in, nil)
}
