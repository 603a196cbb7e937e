// Package ui is the terminal client: workspaces, their projects and the
// project board.
package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/db"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/ui/views"
)

// View is the active screen
type View int

const (
	ViewWorkspaces View = iota
	ViewProjects
	ViewBoard
)

// Store is the local state the app persists navigation into
type Store interface {
	views.Store
	DeleteSetting(key string) error
	TouchWorkspace(id, name string) error
}

// App routes between the screens
type App struct {
	env         views.Env
	store       Store
	currentView View
	workspaces  *views.WorkspaceListView
	projects    *views.ProjectListView
	board       *views.BoardView
	width       int
	height      int
}

// NewApp creates the application. store may be nil, in which case nothing
// is remembered between runs.
func NewApp(env views.Env, store Store) *App {
	if store != nil {
		env.Store = store
	}
	return &App{
		env:         env,
		store:       store,
		currentView: ViewWorkspaces,
		workspaces:  views.NewWorkspaceListView(env),
	}
}

// Current returns the active screen
func (a *App) Current() View {
	return a.currentView
}

func (a *App) Init() tea.Cmd {
	wsID := a.setting(db.KeyLastWorkspace)
	if wsID == "" {
		return a.workspaces.Init()
	}
	cmd := a.openWorkspace(wsID, "")
	if projectID := a.setting(db.KeyLastProject); projectID != "" {
		// the project list loads when the user steps back to it
		return a.openBoard(wsID, models.Project{ID: projectID})
	}
	return cmd
}

func (a *App) setting(key string) string {
	if a.store == nil {
		return ""
	}
	v, err := a.store.GetSetting(key)
	if err != nil {
		return ""
	}
	return v
}

func (a *App) log() logrus.FieldLogger {
	if a.env.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return a.env.Log
}

// remember stores value under key; an empty value forgets the key
func (a *App) remember(key, value string) {
	if a.store == nil {
		return
	}
	var err error
	if value == "" {
		err = a.store.DeleteSetting(key)
	} else {
		err = a.store.SetSetting(key, value)
	}
	if err != nil {
		a.log().WithError(err).WithField("key", key).Warn("saving setting")
	}
}

// visited moves the workspace to the top of the recents
func (a *App) visited(id, name string) {
	if a.store == nil || name == "" {
		return
	}
	if err := a.store.TouchWorkspace(id, name); err != nil {
		a.log().WithError(err).WithField("workspace", id).Warn("recording recent workspace")
	}
}

func (a *App) openWorkspace(id, name string) tea.Cmd {
	a.currentView = ViewProjects
	a.projects = views.NewProjectListView(a.env, id, name)
	a.remember(db.KeyLastWorkspace, id)
	a.visited(id, name)
	return tea.Batch(a.projects.Init(), views.Resize(a.width, a.height))
}

func (a *App) openBoard(workspaceID string, project models.Project) tea.Cmd {
	a.currentView = ViewBoard
	a.board = views.NewBoardView(a.env, workspaceID, project)
	a.remember(db.KeyLastProject, project.ID)
	return tea.Batch(a.board.Init(), views.Resize(a.width, a.height))
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// The workspace list persists behind the other screens
		a.workspaces.Update(msg)

	case views.SelectedWorkspace:
		return a, a.openWorkspace(msg.ID, msg.Name)

	case views.SelectedProject:
		return a, a.openBoard(msg.WorkspaceID, msg.Project)

	case views.BackToWorkspaces:
		a.currentView = ViewWorkspaces
		a.remember(db.KeyLastWorkspace, "")
		a.remember(db.KeyLastProject, "")
		return a, tea.Batch(a.workspaces.Init(), views.Resize(a.width, a.height))

	case views.BackToProjects:
		a.currentView = ViewProjects
		a.remember(db.KeyLastProject, "")
		if a.projects == nil {
			a.currentView = ViewWorkspaces
			return a, a.workspaces.Init()
		}
		ws := a.projects.Workspace()
		a.visited(ws.ID, ws.Name)
		return a, tea.Batch(a.projects.Init(), views.Resize(a.width, a.height))
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewWorkspaces:
		_, cmd = a.workspaces.Update(msg)
	case ViewProjects:
		_, cmd = a.projects.Update(msg)
	case ViewBoard:
		_, cmd = a.board.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewBoard:
		if a.board != nil {
			return a.board.View()
		}
	case ViewProjects:
		if a.projects != nil {
			return a.projects.View()
		}
	}
	return a.workspaces.View()
}
