package views

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/board"
	"github.com/tgienger/toman/internal/db"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/session"
)

// screens numbers screen instances across the program
var screens atomic.Uint64

// ticket names the screen and the load an async result belongs to
type ticket struct {
	screen uint64
	load   uint64
}

// tickets issues tickets for one screen. A result whose ticket is not
// current is dropped: its screen was left or a newer load replaced it.
type tickets struct {
	screen uint64
	load   uint64
}

func newTickets() tickets {
	return tickets{screen: screens.Add(1)}
}

// nextLoad issues a ticket that makes every earlier load stale
func (t *tickets) nextLoad() ticket {
	t.load++
	return ticket{screen: t.screen, load: t.load}
}

// action issues a ticket for a mutation started on this screen
func (t *tickets) action() ticket {
	return ticket{screen: t.screen}
}

func (t *tickets) currentLoad(k ticket) bool {
	return k.screen == t.screen && k.load == t.load
}

func (t *tickets) owns(k ticket) bool {
	return k.screen == t.screen
}

// Loader assembles the views the screens render
type Loader interface {
	LoadDashboard(ctx context.Context) (models.Dashboard, error)
	LoadWorkspaceView(ctx context.Context, workspaceID string) (models.WorkspaceView, error)
	LoadProjectView(ctx context.Context, projectID string) (models.ProjectView, error)
}

// Store is the local state the views read and write
type Store interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	RecentWorkspaces(limit int) ([]db.RecentWorkspace, error)
}

// Env carries the collaborators every view shares
type Env struct {
	Loader  Loader
	Board   board.Deps
	Session session.Provider
	Store   Store // optional
	Log     logrus.FieldLogger
	Timeout time.Duration
}

func (e Env) ctx() (context.Context, context.CancelFunc) {
	d := e.Timeout
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), d)
}

func (e Env) log() logrus.FieldLogger {
	if e.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return e.Log
}

func (e Env) actor() models.User {
	if e.Session == nil {
		return models.User{}
	}
	u, err := e.Session.Current()
	if err != nil {
		return models.User{}
	}
	return u
}

func (e Env) setting(key string) string {
	if e.Store == nil {
		return ""
	}
	v, err := e.Store.GetSetting(key)
	if err != nil {
		e.log().WithError(err).WithField("key", key).Debug("reading setting")
	}
	return v
}

func (e Env) saveSetting(key, value string) {
	if e.Store == nil {
		return
	}
	if err := e.Store.SetSetting(key, value); err != nil {
		e.log().WithError(err).WithField("key", key).Warn("saving setting")
	}
}

// SelectedWorkspace asks the app to open a workspace
type SelectedWorkspace struct {
	ID   string
	Name string
}

// SelectedProject asks the app to open a project board
type SelectedProject struct {
	WorkspaceID string
	Project     models.Project
}

// BackToWorkspaces signals to go back to the workspace list
type BackToWorkspaces struct{}

// BackToProjects signals to go back to the project list
type BackToProjects struct{}

// Resize replays the last window size into a freshly created view
func Resize(width, height int) tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: width, Height: height}
	}
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
