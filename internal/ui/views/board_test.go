package views

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/board"
	"github.com/tgienger/toman/internal/db"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/session"
)

type mockLoader struct {
	dashboard models.Dashboard
	workspace models.WorkspaceView
	project   models.ProjectView
	err       error
}

func (m *mockLoader) LoadDashboard(ctx context.Context) (models.Dashboard, error) {
	return m.dashboard, m.err
}

func (m *mockLoader) LoadWorkspaceView(ctx context.Context, id string) (models.WorkspaceView, error) {
	return m.workspace, m.err
}

func (m *mockLoader) LoadProjectView(ctx context.Context, id string) (models.ProjectView, error) {
	return m.project, m.err
}

type mockTasks struct {
	calls []models.Task
	err   error
}

func (m *mockTasks) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	m.calls = append(m.calls, t)
	if m.err != nil {
		return models.Task{}, m.err
	}
	t.UpdatedAt = time.Now()
	return t, nil
}

type mockStore struct {
	settings map[string]string
	recent   []db.RecentWorkspace
}

func (m *mockStore) GetSetting(key string) (string, error) { return m.settings[key], nil }
func (m *mockStore) SetSetting(key, value string) error {
	m.settings[key] = value
	return nil
}
func (m *mockStore) RecentWorkspaces(limit int) ([]db.RecentWorkspace, error) {
	return m.recent, nil
}

var (
	ada  = models.User{ID: "u-ada", Name: "Ada"}
	cole = models.User{ID: "u-cole", Name: "Cole"}
)

func projectView() models.ProjectView {
	return models.ProjectView{
		Project: models.Project{
			ID:   "p1",
			Name: "Launch",
			Members: []models.Member{
				{ID: ada.ID, Role: models.RoleAdmin},
				{ID: cole.ID, Role: models.RoleContributor},
			},
			TaskIDs: []string{"t1", "t2", "t3"},
		},
		Tasks: []models.Task{
			{ID: "t1", Name: "Draft copy", Status: models.StatusToDo, Priority: models.PriorityLow},
			{ID: "t2", Name: "Review copy", Status: models.StatusReview, Priority: models.PriorityHigh, AssignedTo: cole.ID, AssigneeName: "Cole"},
			{ID: "t3", Name: "Wire up CDN", Status: models.StatusToDo, Priority: models.PriorityCritical},
		},
	}
}

type harness struct {
	view  *BoardView
	tasks *mockTasks
	store *mockStore
}

func newBoard(t *testing.T, actor models.User) *harness {
	t.Helper()
	h := &harness{
		tasks: &mockTasks{},
		store: &mockStore{settings: map[string]string{}},
	}
	env := Env{
		Loader:  &mockLoader{project: projectView()},
		Board:   board.Deps{Tasks: h.tasks},
		Session: session.New(actor, "token"),
		Store:   h.store,
	}
	h.view = NewBoardView(env, "w1", models.Project{ID: "p1"})
	h.view.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.run(h.view.Init())
	require.True(t, h.view.loaded)
	require.NoError(t, h.view.err)
	return h
}

// run executes cmd and feeds its message back, like the runtime would
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		h.view.Update(msg)
	}
}

func (h *harness) press(keys ...tea.KeyMsg) tea.Cmd {
	var last tea.Cmd
	for _, k := range keys {
		_, last = h.view.Update(k)
	}
	return last
}

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEscape}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBoardRendersColumnsWithCounts(t *testing.T) {
	h := newBoard(t, ada)

	out := h.view.View()
	assert.Contains(t, out, "To Do (2)")
	assert.Contains(t, out, "In Progress (0)")
	assert.Contains(t, out, "Review (1)")
	assert.Contains(t, out, "Done (0)")
	assert.Contains(t, out, "Launch")
}

func TestAdminMovesReviewToDone(t *testing.T) {
	h := newBoard(t, ada)

	h.press(keyRight, keyRight, keySpace)
	assert.Equal(t, "t2", h.view.grabbed)

	h.press(keyRight)
	assert.Equal(t, dropAccept, h.view.dropState(3, models.StatusDone))

	cmd := h.press(keyEnter)
	require.NotNil(t, cmd)
	assert.True(t, h.view.busy)
	h.run(cmd)

	require.Len(t, h.tasks.calls, 1)
	assert.Equal(t, models.StatusDone, h.tasks.calls[0].Status)
	assert.False(t, h.view.busy)
	assert.False(t, h.view.statusErr)

	counts := h.view.board.Counts()
	assert.Equal(t, 1, counts[models.StatusDone])
	assert.Equal(t, 0, counts[models.StatusReview])
	assert.Equal(t, 3, h.view.col)
}

func TestContributorCannotApprove(t *testing.T) {
	h := newBoard(t, cole)

	h.press(keyRight, keyRight, keySpace, keyRight)
	assert.Equal(t, dropReject, h.view.dropState(3, models.StatusDone))

	cmd := h.press(keyEnter)
	assert.False(t, h.view.busy)
	h.run(cmd)

	assert.Empty(t, h.tasks.calls)
	assert.True(t, h.view.statusErr)
	assert.NotEmpty(t, h.view.status)
	task, _ := h.view.board.Task("t2")
	assert.Equal(t, models.StatusReview, task.Status)
}

func TestDropOnOwnColumnSendsNothing(t *testing.T) {
	h := newBoard(t, ada)

	cmd := h.press(keySpace, keyRight, keyLeft, keyEnter)
	assert.Nil(t, cmd)
	assert.Empty(t, h.tasks.calls)
	assert.Empty(t, h.view.grabbed)
}

func TestEscCancelsGrabBeforeLeaving(t *testing.T) {
	h := newBoard(t, ada)

	h.press(keySpace)
	require.NotEmpty(t, h.view.grabbed)

	assert.Nil(t, h.press(keyEsc))
	assert.Empty(t, h.view.grabbed)

	cmd := h.press(keyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, BackToProjects{}, cmd())
}

func TestFailedMoveShowsErrorAndKeepsBoard(t *testing.T) {
	h := newBoard(t, ada)
	h.tasks.err = apperr.Network("PUT /tasks/t1", errors.New("connection refused"))

	h.run(h.press(keySpace, keyRight, keyEnter))

	require.Len(t, h.tasks.calls, 1)
	assert.True(t, h.view.statusErr)
	assert.Equal(t, apperr.UserMessage(h.tasks.err), h.view.status)
	task, _ := h.view.board.Task("t1")
	assert.Equal(t, models.StatusToDo, task.Status)
}

func TestAssignToSelf(t *testing.T) {
	h := newBoard(t, cole)

	h.run(h.press(runes("a")))

	require.Len(t, h.tasks.calls, 1)
	assert.Equal(t, cole.ID, h.tasks.calls[0].AssignedTo)
	assert.False(t, h.view.statusErr)
}

func TestSortTogglesAndIsRemembered(t *testing.T) {
	h := newBoard(t, ada)

	// deadline order keeps load order for tasks without deadlines
	assert.Equal(t, "t1", h.view.column(0)[0].ID)

	h.press(runes("s"))
	assert.Equal(t, board.SortPriority, h.view.board.Sort())
	assert.Equal(t, "t3", h.view.column(0)[0].ID)
	assert.Equal(t, "priority", h.store.settings[db.KeyBoardSort])

	h.press(runes("s"))
	assert.Equal(t, "deadline", h.store.settings[db.KeyBoardSort])
}

func TestSearchFiltersColumns(t *testing.T) {
	h := newBoard(t, ada)
	h.press(keyDown)

	h.press(runes("/"))
	require.True(t, h.view.searching)
	h.press(runes("c"), runes("d"), runes("n"))

	assert.Equal(t, "cdn", h.view.board.Query())
	require.Len(t, h.view.column(0), 1)
	assert.Equal(t, 0, h.view.rows[0])

	h.press(keyEsc)
	assert.False(t, h.view.searching)
	assert.Empty(t, h.view.board.Query())
	assert.Len(t, h.view.column(0), 2)
}

func TestLoadErrorRendersMessage(t *testing.T) {
	v := NewBoardView(Env{Loader: &mockLoader{err: apperr.NotFound("project p1")}}, "w1", models.Project{ID: "p1"})
	v.Update(v.Init()())

	assert.Contains(t, v.View(), "Could not load board")
	assert.Contains(t, v.View(), apperr.UserMessage(apperr.NotFound("project p1")))
}

func TestOrderByRecent(t *testing.T) {
	all := []models.Workspace{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	got := orderByRecent(all, []string{"c", "gone", "a"})
	ids := make([]string, len(got))
	for i, ws := range got {
		ids[i] = ws.ID
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids)
}

func TestWorkspaceListSelects(t *testing.T) {
	loader := &mockLoader{dashboard: models.Dashboard{Workspaces: []models.Workspace{
		{ID: "w1", Name: "Demo"},
		{ID: "w2", Name: "Open Source"},
	}}}
	store := &mockStore{recent: []db.RecentWorkspace{{ID: "w2", Name: "Open Source"}}}
	v := NewWorkspaceListView(Env{Loader: loader, Store: store})
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	v.Update(v.Init()())

	_, cmd := v.Update(keyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedWorkspace{ID: "w2", Name: "Open Source"}, cmd())
}

func TestProjectListShowsProgress(t *testing.T) {
	loader := &mockLoader{workspace: models.WorkspaceView{
		Workspace: models.Workspace{ID: "w1", Name: "Demo", OwnerID: ada.ID},
		Members:   []models.User{ada},
		Projects: []models.ProjectSummary{
			{Project: models.Project{ID: "p1", Name: "Launch", TaskIDs: []string{"a", "b", "c"}}, Status: models.BucketInProgress, Progress: 33},
		},
	}}
	v := NewProjectListView(Env{Loader: loader}, "w1", "")
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	v.Update(v.Init()())

	out := v.View()
	assert.Contains(t, out, "Launch")
	assert.Contains(t, out, "33%")
	assert.Contains(t, out, "in-progress")

	_, cmd := v.Update(keyEnter)
	require.NotNil(t, cmd)
	sel, ok := cmd().(SelectedProject)
	require.True(t, ok)
	assert.Equal(t, "w1", sel.WorkspaceID)
	assert.Equal(t, "p1", sel.Project.ID)
}

// keyedLoader answers by id, so results for different screens differ
type keyedLoader struct {
	mockLoader
	projects   map[string]models.ProjectView
	workspaces map[string]models.WorkspaceView
}

func (k *keyedLoader) LoadProjectView(ctx context.Context, id string) (models.ProjectView, error) {
	return k.projects[id], nil
}

func (k *keyedLoader) LoadWorkspaceView(ctx context.Context, id string) (models.WorkspaceView, error) {
	return k.workspaces[id], nil
}

func TestLateLoadForLeftBoardIsDropped(t *testing.T) {
	roadmap := models.ProjectView{
		Project: models.Project{ID: "p2", Name: "Roadmap", Members: []models.Member{{ID: ada.ID, Role: models.RoleAdmin}}},
		Tasks:   []models.Task{{ID: "r1", Name: "Plan Q3", Status: models.StatusToDo, Priority: models.PriorityMedium}},
	}
	loader := &keyedLoader{projects: map[string]models.ProjectView{"p1": projectView(), "p2": roadmap}}
	env := Env{Loader: loader, Board: board.Deps{Tasks: &mockTasks{}}, Session: session.New(ada, "token")}

	left := NewBoardView(env, "w1", models.Project{ID: "p1"})
	late := left.Init()

	current := NewBoardView(env, "w1", models.Project{ID: "p2"})
	current.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	current.Update(current.Init()())
	require.Equal(t, "Roadmap", current.Project().Name)

	current.Update(late())

	assert.Equal(t, "p2", current.Project().ID)
	_, ok := current.board.Task("r1")
	assert.True(t, ok)
	_, ok = current.board.Task("t1")
	assert.False(t, ok)
	assert.NotContains(t, current.View(), "Draft copy")
}

func TestLateMoveFromLeftBoardKeepsBusy(t *testing.T) {
	left := newBoard(t, ada)
	leftMove := left.press(keyRight, keyRight, keySpace, keyRight, keyEnter)
	require.NotNil(t, leftMove)

	current := newBoard(t, ada)
	currentMove := current.press(keyRight, keyRight, keySpace, keyRight, keyEnter)
	require.NotNil(t, currentMove)
	require.True(t, current.view.busy)

	current.view.Update(leftMove())
	assert.True(t, current.view.busy)
	assert.NotContains(t, current.view.status, "Moved")

	current.run(currentMove)
	assert.False(t, current.view.busy)
	assert.Contains(t, current.view.status, "Moved")
}

func TestRefreshSupersedesEarlierLoad(t *testing.T) {
	h := newBoard(t, ada)
	loader := h.view.env.Loader.(*mockLoader)

	older := h.press(runes("r"))
	newer := h.press(runes("r"))
	require.NotNil(t, older)
	require.NotNil(t, newer)

	fresh := newer()
	stale := projectView()
	stale.Tasks = stale.Tasks[:1]
	loader.project = stale
	outdated := older()

	h.view.Update(fresh)
	h.view.Update(outdated)
	assert.Len(t, h.view.board.Tasks(), 3)
}

func TestLateLoadForLeftProjectListIsDropped(t *testing.T) {
	loader := &keyedLoader{workspaces: map[string]models.WorkspaceView{
		"w1": {Workspace: models.Workspace{ID: "w1", Name: "Demo"}, Projects: []models.ProjectSummary{
			{Project: models.Project{ID: "p1", Name: "Launch"}, Status: models.BucketPlanning},
		}},
		"w2": {Workspace: models.Workspace{ID: "w2", Name: "Open Source"}, Projects: []models.ProjectSummary{
			{Project: models.Project{ID: "p9", Name: "Docs"}, Status: models.BucketPlanning},
		}},
	}}
	env := Env{Loader: loader}

	left := NewProjectListView(env, "w1", "Demo")
	late := left.Init()

	current := NewProjectListView(env, "w2", "Open Source")
	current.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	current.Update(current.Init()())
	current.Update(late())

	assert.Equal(t, "w2", current.Workspace().ID)
	out := current.View()
	assert.Contains(t, out, "Docs")
	assert.NotContains(t, out, "Launch")
}
