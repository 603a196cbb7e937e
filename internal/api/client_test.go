package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/fakeapi"
	"github.com/tgienger/toman/internal/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, cfg Config) (*Client, *fakeapi.Backend) {
	t.Helper()
	backend := fakeapi.New(nil)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	return New(cfg, staticToken("tok-123"), nil), backend
}

func TestGetTaskNormalizesBareRecord(t *testing.T) {
	c, backend := newTestClient(t, Config{})
	backend.AddTask(fakeapi.Task{
		ID:              "t1",
		ProjectID:       "p1",
		TaskName:        "Write docs",
		TaskDescription: "all of them",
		Deadline:        "2025-03-01T00:00:00.000Z",
		Priority:        "High",
		Status:          "Review",
		AssignedTo:      "u1",
	})

	task, err := c.GetTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, "Write docs", task.Name)
	assert.Equal(t, "all of them", task.Description)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, models.StatusReview, task.Status)
	assert.Equal(t, "u1", task.AssignedTo)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), task.Deadline.UTC())
}

func TestWorkspaceEnvelopes(t *testing.T) {
	c, backend := newTestClient(t, Config{})
	ws := backend.AddWorkspace(fakeapi.Workspace{Name: "Acme", UserID: "u1", Members: []string{"u1"}})
	ctx := context.Background()

	got, err := c.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, models.VisibilityPrivate, got.Visibility)

	name := "Acme Corp"
	updated, err := c.UpdateWorkspace(ctx, ws.ID, WorkspaceUpdate{Name: &name, Members: []string{"u1", "u2"}})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)
	assert.Equal(t, []string{"u1", "u2"}, updated.Members)

	list, err := c.ListWorkspaces(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ws.ID, list[0].ID)
}

func TestProjectDefaultsColor(t *testing.T) {
	c, backend := newTestClient(t, Config{})
	p := backend.AddProject(fakeapi.Project{
		ProjectName: "Launch",
		Members:     []fakeapi.Member{{ID: "u1", Role: "Admin"}},
		TaskIDs:     []string{"t1", "t2"},
	})

	got, err := c.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, defaultProjectColor, got.Color)
	assert.Equal(t, []string{"t1", "t2"}, got.TaskIDs)
	assert.Equal(t, []models.Member{{ID: "u1", Role: models.RoleAdmin}}, got.Members)
	assert.True(t, got.StartDate.IsZero())
}

func TestEveryRequestCarriesTokenAndRequestID(t *testing.T) {
	c, backend := newTestClient(t, Config{})
	backend.AddUser(fakeapi.User{ID: "u1", Name: "Ada"})
	ctx := context.Background()

	_, err := c.GetUser(ctx, "u1")
	require.NoError(t, err)
	_, err = c.ListTasks(ctx)
	require.NoError(t, err)

	reqs := backend.Requests()
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, "tok-123", r.Token)
		assert.Len(t, r.RequestID, 36)
	}
	assert.NotEqual(t, reqs[0].RequestID, reqs[1].RequestID)
}

func TestUpdateTaskSendsFullRecord(t *testing.T) {
	c, backend := newTestClient(t, Config{})
	backend.AddTask(fakeapi.Task{ID: "t1", TaskName: "a", Priority: "Low", Status: "ToDo"})

	task := models.Task{
		ID:          "t1",
		Name:        "a",
		Description: "desc",
		Priority:    models.PriorityLow,
		Status:      models.StatusInProgress,
		Deadline:    time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	updated, err := c.UpdateTask(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	reqs := backend.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)

	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, map[string]any{
		"taskName":        "a",
		"taskDescription": "desc",
		"deadline":        "2025-01-02T00:00:00.000Z",
		"priority":        "Low",
		"status":          "InProgress",
		"assignedTo":      "",
	}, body)
}

func TestNotFound(t *testing.T) {
	c, _ := newTestClient(t, Config{})

	_, err := c.GetProject(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Project not found")
}

func TestHTTPErrorCarriesStatusAndMessage(t *testing.T) {
	c, backend := newTestClient(t, Config{})
	backend.Fail(http.MethodGet, "/task/t1", http.StatusForbidden)

	_, err := c.GetTask(context.Background(), "t1")
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, apperr.KindHTTP, e.Kind)
	assert.Equal(t, http.StatusForbidden, e.Status)
	assert.Equal(t, "injected failure", e.Message)
}

func TestSuccessFalseIsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"workspace is archived"}`))
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL}, nil, nil)

	_, err := c.GetWorkspace(context.Background(), "w1")
	assert.ErrorIs(t, err, apperr.ErrHTTP)
	assert.Contains(t, err.Error(), "workspace is archived")

	err = c.DeleteWorkspace(context.Background(), "w1")
	assert.ErrorIs(t, err, apperr.ErrHTTP)
}

func TestNetworkFailure(t *testing.T) {
	c, backend := newTestClient(t, Config{})
	backend.Disconnect(http.MethodGet, "/task/t1")

	_, err := c.GetTask(context.Background(), "t1")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	c, backend := newTestClient(t, Config{MaxFailures: 2, Cooldown: time.Minute})
	backend.Fail(http.MethodGet, "/task/t1", http.StatusInternalServerError)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.GetTask(ctx, "t1")
		assert.ErrorIs(t, err, apperr.ErrHTTP)
	}
	_, err := c.GetTask(ctx, "t1")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Equal(t, 2, backend.Count(http.MethodGet, "/task/t1"))
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	c, backend := newTestClient(t, Config{MaxFailures: 1, Cooldown: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.GetTask(ctx, "missing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	}
	assert.Equal(t, 3, backend.Count(http.MethodGet, "/task/missing"))
}

func TestInvitationsUseDataEnvelope(t *testing.T) {
	c, backend := newTestClient(t, Config{})
	ctx := context.Background()

	inv, err := c.CreateInvitation(ctx, "INV-2025-ABC", "w1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-ABC", inv.Code)
	assert.Equal(t, "w1", inv.WorkspaceID)

	got, err := c.GetInvitation(ctx, "INV-2025-ABC")
	require.NoError(t, err)
	assert.Equal(t, "w1", got.WorkspaceID)

	list, err := c.ListInvitations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.SendInvitation(ctx, "bob@example.com", "INV-2025-ABC", "w1"))
	assert.Equal(t, []fakeapi.SentInvite{{Email: "bob@example.com", InvitationCode: "INV-2025-ABC", WorkspaceID: "w1"}}, backend.Sent())

	require.NoError(t, c.DeleteInvitation(ctx, "INV-2025-ABC"))
	_, ok := backend.Invite("INV-2025-ABC")
	assert.False(t, ok)
}
