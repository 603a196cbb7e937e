package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/toman/internal/models"
)

// GetUser resolves a user profile
func (c *Client) GetUser(ctx context.Context, id string) (models.User, error) {
	var out wireUser
	if err := c.call(ctx, http.MethodGet, "/user/"+url.PathEscape(id), nil, &out, "user", "data"); err != nil {
		return models.User{}, err
	}
	u := out.model()
	if u.ID == "" {
		u.ID = id
	}
	return u, nil
}
