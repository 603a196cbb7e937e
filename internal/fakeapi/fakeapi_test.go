package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemo(t *testing.T) {
	b := New(nil)
	ws := SeedDemo(b, "owner")

	got, ok := b.Workspace(ws.ID)
	require.True(t, ok)
	assert.Equal(t, "owner", got.UserID)
	require.Len(t, got.ProjectIDs, 2)

	launch, ok := b.Project(got.ProjectIDs[0])
	require.True(t, ok)
	assert.Len(t, launch.TaskIDs, 4)

	inv, ok := b.Invite("INV-DEMO-WELCOME")
	require.True(t, ok)
	assert.Equal(t, ws.ID, inv.WorkspaceID)
}

func TestGetWorkspaceWrapsRecord(t *testing.T) {
	b := New(nil)
	ws := b.AddWorkspace(Workspace{Name: "Acme", Visibility: "private", UserID: "u1", Members: []string{"u1"}})

	req := httptest.NewRequest(http.MethodGet, "/workspace/"+ws.ID, nil)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success   bool      `json:"success"`
		Workspace Workspace `json:"workspace"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Acme", body.Workspace.Name)

	reqs := b.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "tok", reqs[0].Token)
	assert.Equal(t, "req-1", reqs[0].RequestID)
}

func TestInjectedFailure(t *testing.T) {
	b := New(nil)
	ws := b.AddWorkspace(Workspace{Name: "Acme"})
	path := "/workspace/" + ws.ID

	b.Fail(http.MethodGet, path, http.StatusServiceUnavailable)
	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	b.Heal(http.MethodGet, path)
	rec = httptest.NewRecorder()
	b.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, b.Count(http.MethodGet, "/workspace/"))
}

func TestUnknownRecordIsNotFound(t *testing.T) {
	b := New(nil)

	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/task/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	b := New(nil)

	req := httptest.NewRequest(http.MethodOptions, "/task/abc", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}
