package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/toman/internal/db"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/ui/views"
)

type stubLoader struct{}

func (stubLoader) LoadDashboard(ctx context.Context) (models.Dashboard, error) {
	return models.Dashboard{}, nil
}

func (stubLoader) LoadWorkspaceView(ctx context.Context, id string) (models.WorkspaceView, error) {
	return models.WorkspaceView{Workspace: models.Workspace{ID: id, Name: "Demo"}}, nil
}

func (stubLoader) LoadProjectView(ctx context.Context, id string) (models.ProjectView, error) {
	return models.ProjectView{Project: models.Project{ID: id, Name: "Launch"}}, nil
}

func openStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStartsOnWorkspaces(t *testing.T) {
	app := NewApp(views.Env{Loader: stubLoader{}}, openStore(t))
	require.NotNil(t, app.Init())
	assert.Equal(t, ViewWorkspaces, app.Current())
}

func TestNavigationIsRemembered(t *testing.T) {
	store := openStore(t)
	app := NewApp(views.Env{Loader: stubLoader{}}, store)
	app.Init()

	app.Update(views.SelectedWorkspace{ID: "w1", Name: "Demo"})
	assert.Equal(t, ViewProjects, app.Current())

	app.Update(views.SelectedProject{WorkspaceID: "w1", Project: models.Project{ID: "p1", Name: "Launch"}})
	assert.Equal(t, ViewBoard, app.Current())

	ws, _ := store.GetSetting(db.KeyLastWorkspace)
	p, _ := store.GetSetting(db.KeyLastProject)
	assert.Equal(t, "w1", ws)
	assert.Equal(t, "p1", p)

	recents, err := store.RecentWorkspaces(5)
	require.NoError(t, err)
	require.Len(t, recents, 1)
	assert.Equal(t, "Demo", recents[0].Name)

	app.Update(views.BackToProjects{})
	assert.Equal(t, ViewProjects, app.Current())
	p, _ = store.GetSetting(db.KeyLastProject)
	assert.Empty(t, p)

	app.Update(views.BackToWorkspaces{})
	assert.Equal(t, ViewWorkspaces, app.Current())
	ws, _ = store.GetSetting(db.KeyLastWorkspace)
	assert.Empty(t, ws)
}

func TestRestoresLastBoard(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.SetSetting(db.KeyLastWorkspace, "w1"))
	require.NoError(t, store.SetSetting(db.KeyLastProject, "p1"))

	app := NewApp(views.Env{Loader: stubLoader{}}, store)
	require.NotNil(t, app.Init())
	assert.Equal(t, ViewBoard, app.Current())

	app.Update(views.BackToProjects{})
	assert.Equal(t, ViewProjects, app.Current())
}

func TestRunsWithoutStore(t *testing.T) {
	app := NewApp(views.Env{Loader: stubLoader{}}, nil)
	app.Init()
	app.Update(views.SelectedWorkspace{ID: "w1", Name: "Demo"})
	assert.Equal(t, ViewProjects, app.Current())
}

// brokenStore reads nothing and fails every write
type brokenStore struct{}

func (brokenStore) GetSetting(key string) (string, error) { return "", nil }
func (brokenStore) SetSetting(key, value string) error    { return errors.New("disk full") }
func (brokenStore) DeleteSetting(key string) error        { return errors.New("disk full") }
func (brokenStore) TouchWorkspace(id, name string) error  { return errors.New("disk full") }
func (brokenStore) RecentWorkspaces(limit int) ([]db.RecentWorkspace, error) {
	return nil, nil
}

func TestStoreFailuresAreLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	app := NewApp(views.Env{Loader: stubLoader{}, Log: log}, brokenStore{})
	app.Init()

	app.Update(views.SelectedWorkspace{ID: "w1", Name: "Demo"})
	app.Update(views.BackToWorkspaces{})

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
		assert.EqualError(t, e.Data["error"].(error), "disk full")
	}
	assert.Contains(t, messages, "saving setting")
	assert.Contains(t, messages, "recording recent workspace")
	assert.Equal(t, ViewWorkspaces, app.Current())
}
