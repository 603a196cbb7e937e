package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/db"
	"github.com/tgienger/toman/internal/fakeapi"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/session"
)

const ownerID = "user_owner"

type harness struct {
	t       *testing.T
	backend *fakeapi.Backend
	ws      fakeapi.Workspace
	dataDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := fakeapi.New(nil)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	h := &harness{t: t, backend: backend, dataDir: t.TempDir()}
	h.ws = fakeapi.SeedDemo(backend, ownerID)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TOMAN_BACKEND_URL", srv.URL)
	t.Setenv("TOMAN_DATA_DIR", h.dataDir)
	t.Setenv("TOMAN_LOG_OUTPUT", "discard")
	h.as(ownerID, "Demo Owner")
	return h
}

// as signs the following commands in as user id
func (h *harness) as(id, name string) {
	h.t.Helper()
	token, err := mintToken(models.User{ID: id, Name: name}, time.Hour)
	require.NoError(h.t, err)
	h.t.Setenv("TOMAN_TOKEN", token)
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(BuildInfo{Version: "test"})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// launchTask finds a seeded Launch task by its column
func (h *harness) launchTask(status string) fakeapi.Task {
	h.t.Helper()
	p, ok := h.backend.Project(h.ws.ProjectIDs[0])
	require.True(h.t, ok)
	for _, id := range p.TaskIDs {
		if t, ok := h.backend.Task(id); ok && t.Status == status {
			return t
		}
	}
	h.t.Fatalf("no %s task in Launch", status)
	return fakeapi.Task{}
}

func TestWorkspaceList(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("workspace", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo")
	assert.Contains(t, out, h.ws.ID)
	assert.NotContains(t, out, "Open Source")
}

func TestWorkspacePublicListsUnjoined(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("ws", "public")
	require.NoError(t, err)
	assert.Contains(t, out, "Open Source")
	assert.NotContains(t, out, h.ws.ID)
}

func TestWorkspaceShowRemembersVisit(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("workspace", "show", h.ws.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Demo Owner (owner)")
	assert.Contains(t, out, "Launch")
	assert.Contains(t, out, "Roadmap")

	store, err := db.Open(h.dataDir)
	require.NoError(t, err)
	defer store.Close()
	recent, err := store.RecentWorkspaces(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, h.ws.ID, recent[0].ID)
	assert.Equal(t, "Demo", recent[0].Name)
}

func TestTaskMoveByAdmin(t *testing.T) {
	h := newHarness(t)
	task := h.launchTask("Review")

	out, err := h.run("task", "move", task.ID, "done")
	require.NoError(t, err)
	assert.Contains(t, out, "from Review to Done")

	after, _ := h.backend.Task(task.ID)
	assert.Equal(t, "Done", after.Status)
}

func TestTaskMoveRefusedForContributor(t *testing.T) {
	h := newHarness(t)
	h.as("user_contrib", "Casey Contributor")
	task := h.launchTask("Review")

	_, err := h.run("task", "move", task.ID, "Done")
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))

	after, _ := h.backend.Task(task.ID)
	assert.Equal(t, "Review", after.Status)
}

func TestTaskMoveSameColumn(t *testing.T) {
	h := newHarness(t)
	task := h.launchTask("ToDo")

	out, err := h.run("task", "move", task.ID, "to-do")
	require.NoError(t, err)
	assert.Contains(t, out, "already in ToDo")
}

func TestTaskMoveNeedsSession(t *testing.T) {
	h := newHarness(t)
	t.Setenv("TOMAN_TOKEN", "")
	task := h.launchTask("ToDo")

	_, err := h.run("task", "move", task.ID, "InProgress")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotLoaded, apperr.KindOf(err))
}

func TestProjectCreateRejectsBadDate(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("project", "create", h.ws.ID, "Docs", "--end", "next week")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Contains(t, buf.String(), "  end: must be a date")
}

func TestProjectCreate(t *testing.T) {
	h := newHarness(t)
	end := time.Now().AddDate(0, 1, 0).Format(dateLayout)

	out, err := h.run("project", "create", h.ws.ID, "Docs", "--end", end, "--color", "#6B46C1")
	require.NoError(t, err)
	assert.Contains(t, out, `Created project "Docs"`)

	ws, _ := h.backend.Workspace(h.ws.ID)
	assert.Len(t, ws.ProjectIDs, 3)
}

func TestJoinWithInvitation(t *testing.T) {
	h := newHarness(t)
	h.as("user_new", "Nia Newcomer")

	out, err := h.run("join", "INV-DEMO-WELCOME")
	require.NoError(t, err)
	assert.Contains(t, out, `Joined "Demo"`)

	ws, _ := h.backend.Workspace(h.ws.ID)
	assert.Contains(t, ws.Members, "user_new")
	_, ok := h.backend.Invite("INV-DEMO-WELCOME")
	assert.False(t, ok)
}

func TestJoinUnknownCode(t *testing.T) {
	h := newHarness(t)
	h.as("user_new", "Nia Newcomer")

	_, err := h.run("join", "INV-NOPE")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestVersionNeedsNoConfig(t *testing.T) {
	t.Setenv("TOMAN_TIMEOUT", "-1s")

	var out bytes.Buffer
	cmd := NewRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2025-06-01"})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "toman 1.2.3 (commit: abc123, built: 2025-06-01)\n", out.String())
}

func TestMintTokenRoundTrips(t *testing.T) {
	token, err := mintToken(models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}, time.Hour)
	require.NoError(t, err)

	sess, err := session.FromToken(token)
	require.NoError(t, err)
	u, err := sess.Current()
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]models.Status{
		"ToDo":        models.StatusToDo,
		"todo":        models.StatusToDo,
		"in-progress": models.StatusInProgress,
		"In Progress": models.StatusInProgress,
		"review":      models.StatusReview,
		"DONE":        models.StatusDone,
	} {
		got, err := parseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseStatus("blocked")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestParseMember(t *testing.T) {
	m, err := parseMember("user_contrib:contributor")
	require.NoError(t, err)
	assert.Equal(t, models.Member{ID: "user_contrib", Role: models.RoleContributor}, m)

	_, err = parseMember("user_contrib")
	assert.Error(t, err)
	_, err = parseMember("user_contrib:owner")
	assert.Error(t, err)
}
