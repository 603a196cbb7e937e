// Package service carries the workflows around the board: creating and
// administering workspaces, projects, tasks and invitations. Every
// operation needs a signed-in user and checks its rules before sending
// anything to the backend.
package service

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/api"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/session"
)

// Backend is the part of the REST adapter the workflows use
type Backend interface {
	GetWorkspace(ctx context.Context, id string) (models.Workspace, error)
	CreateWorkspace(ctx context.Context, w models.Workspace) (models.Workspace, error)
	UpdateWorkspace(ctx context.Context, id string, u api.WorkspaceUpdate) (models.Workspace, error)
	TransferWorkspace(ctx context.Context, id, userID string) error
	DeleteWorkspace(ctx context.Context, id string) error

	GetProject(ctx context.Context, id string) (models.Project, error)
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	UpdateProject(ctx context.Context, id string, u api.ProjectUpdate) (models.Project, error)
	DeleteProject(ctx context.Context, id string) error

	GetTask(ctx context.Context, id string) (models.Task, error)
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, t models.Task) (models.Task, error)
	PatchTask(ctx context.Context, id string, p api.TaskPatch) error
	DeleteTask(ctx context.Context, id string) error

	ListInvitations(ctx context.Context) ([]models.Invitation, error)
	GetInvitation(ctx context.Context, code string) (models.Invitation, error)
	CreateInvitation(ctx context.Context, code, workspaceID string) (models.Invitation, error)
	DeleteInvitation(ctx context.Context, code string) error
	SendInvitation(ctx context.Context, email, code, workspaceID string) error
}

// Service runs workflows for the session's user
type Service struct {
	api  Backend
	sess session.Provider
	log  logrus.FieldLogger
	now  func() time.Time
}

// New creates a Service
func New(backend Backend, sess session.Provider, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Service{api: backend, sess: sess, log: log, now: time.Now}
}

// actor returns the signed-in user or a NotLoaded error
func (s *Service) actor() (models.User, error) {
	return s.sess.Current()
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
