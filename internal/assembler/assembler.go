// Package assembler builds the nested views the client renders
// (workspace → projects → tasks → users) from many small backend reads.
//
// Every fan-out is all-settled: a failed branch is logged and left out, and
// only a failure of the root resource fails the whole view. Views are not
// snapshots; branches fetched at different moments may disagree.
package assembler

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/session"
	"golang.org/x/sync/errgroup"
)

// DefaultFanout bounds concurrent requests per fan-out level
const DefaultFanout = 8

// Source is the read side of the backend
type Source interface {
	ListWorkspaces(ctx context.Context) ([]models.Workspace, error)
	GetWorkspace(ctx context.Context, id string) (models.Workspace, error)
	GetProject(ctx context.Context, id string) (models.Project, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	GetUser(ctx context.Context, id string) (models.User, error)
}

// Assembler loads views for the session's user
type Assembler struct {
	src    Source
	sess   session.Provider
	fanout int
	log    logrus.FieldLogger
}

// Option customises an Assembler
type Option func(*Assembler)

// WithFanout sets the per-level concurrency bound
func WithFanout(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.fanout = n
		}
	}
}

// New creates an Assembler
func New(src Source, sess session.Provider, log logrus.FieldLogger, opts ...Option) *Assembler {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	a := &Assembler{src: src, sess: sess, fanout: DefaultFanout, log: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadWorkspaceView fetches a workspace, its member profiles and every
// project with its derived status bucket and progress.
func (a *Assembler) LoadWorkspaceView(ctx context.Context, workspaceID string) (models.WorkspaceView, error) {
	const op = "assembler.Assembler.LoadWorkspaceView"
	log := a.log.WithFields(logrus.Fields{"operation": op, "workspace": workspaceID})

	ws, err := a.src.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return models.WorkspaceView{}, fmt.Errorf("loading workspace %s: %w", workspaceID, err)
	}
	if ws.Visibility != models.VisibilityPublic {
		// a missing session counts as an outsider
		u, _ := a.sess.Current()
		if !ws.IsMember(u.ID) {
			log.Debug("refusing private workspace to non-member")
			return models.WorkspaceView{}, apperr.Permission("%s is a private workspace", ws.Name)
		}
	}

	view := models.WorkspaceView{Workspace: ws}
	var g errgroup.Group
	g.Go(func() error {
		view.Members = a.profiles(ctx, log, unique(ws.Members))
		return nil
	})
	g.Go(func() error {
		view.Projects = a.summaries(ctx, log, ws.ProjectIDs)
		return nil
	})
	_ = g.Wait()

	log.WithFields(logrus.Fields{
		"projects": len(view.Projects),
		"members":  len(view.Members),
	}).Debug("workspace view assembled")
	return view, nil
}

func (a *Assembler) summaries(ctx context.Context, log logrus.FieldLogger, projectIDs []string) []models.ProjectSummary {
	results := fetchAll(ctx, a.fanout, projectIDs, func(ctx context.Context, id string) (models.ProjectSummary, error) {
		p, err := a.src.GetProject(ctx, id)
		if err != nil {
			return models.ProjectSummary{}, err
		}
		return a.summarize(ctx, log, p), nil
	})

	out := make([]models.ProjectSummary, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			log.WithError(r.err).WithField("project", projectIDs[i]).Warn("skipping project that failed to load")
			continue
		}
		out = append(out, r.val)
	}
	return out
}

// summarize derives a project's status bucket from its tasks. The
// denominator is the project's task id count, so tasks that fail to load
// count as neither done nor todo.
func (a *Assembler) summarize(ctx context.Context, log logrus.FieldLogger, p models.Project) models.ProjectSummary {
	total := len(p.TaskIDs)
	if total == 0 {
		return models.ProjectSummary{Project: p, Status: models.BucketPlanning}
	}

	results := fetchAll(ctx, a.fanout, p.TaskIDs, a.src.GetTask)
	done, todo := 0, 0
	for i, r := range results {
		if r.err != nil {
			log.WithError(r.err).WithFields(logrus.Fields{"project": p.ID, "task": p.TaskIDs[i]}).Warn("task failed to load")
			continue
		}
		switch r.val.Status {
		case models.StatusDone:
			done++
		case models.StatusToDo:
			todo++
		}
	}
	return models.ProjectSummary{Project: p, Status: bucket(done, todo, total), Progress: progress(done, total)}
}

func progress(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}

func bucket(done, todo, total int) models.StatusBucket {
	switch {
	case total == 0:
		return models.BucketPlanning
	case progress(done, total) == 100:
		return models.BucketCompleted
	case todo == total:
		return models.BucketPlanning
	}
	return models.BucketInProgress
}

// LoadProjectView fetches one project with its member profiles and tasks.
// It is the lazy per-project load behind the board.
func (a *Assembler) LoadProjectView(ctx context.Context, projectID string) (models.ProjectView, error) {
	const op = "assembler.Assembler.LoadProjectView"
	log := a.log.WithFields(logrus.Fields{"operation": op, "project": projectID})

	p, err := a.src.GetProject(ctx, projectID)
	if err != nil {
		return models.ProjectView{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}

	view := models.ProjectView{Project: p, ActorRole: models.RoleViewer}
	if u, err := a.sess.Current(); err == nil {
		view.ActorRole = p.RoleOf(u.ID)
	}

	memberIDs := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		memberIDs = append(memberIDs, m.ID)
	}

	var profiles []models.User
	var g errgroup.Group
	g.Go(func() error {
		profiles = a.profiles(ctx, log, memberIDs)
		return nil
	})
	g.Go(func() error {
		view.Tasks = a.tasks(ctx, log, p.TaskIDs)
		return nil
	})
	_ = g.Wait()

	view.Members = make([]models.ProjectMember, 0, len(p.Members))
	names := make(map[string]string, len(profiles))
	for i, m := range p.Members {
		view.Members = append(view.Members, models.ProjectMember{User: profiles[i], Role: m.Role})
		if profiles[i].Name != models.UnknownUserName {
			names[m.ID] = profiles[i].Name
		}
	}
	a.resolveAssignees(ctx, log, view.Tasks, names)
	return view, nil
}

// tasks fetches ids in order, dropping the ones that fail
func (a *Assembler) tasks(ctx context.Context, log logrus.FieldLogger, ids []string) []models.Task {
	results := fetchAll(ctx, a.fanout, ids, a.src.GetTask)
	out := make([]models.Task, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			log.WithError(r.err).WithField("task", ids[i]).Warn("skipping task that failed to load")
			continue
		}
		out = append(out, r.val)
	}
	return out
}

// resolveAssignees fills AssigneeName, looking up anyone not already known.
// Unresolvable assignees keep an empty name.
func (a *Assembler) resolveAssignees(ctx context.Context, log logrus.FieldLogger, tasks []models.Task, known map[string]string) {
	var missing []string
	for _, t := range tasks {
		if t.AssignedTo != "" {
			if _, ok := known[t.AssignedTo]; !ok {
				missing = append(missing, t.AssignedTo)
			}
		}
	}
	missing = unique(missing)
	results := fetchAll(ctx, a.fanout, missing, a.src.GetUser)
	for i, r := range results {
		if r.err != nil {
			log.WithError(r.err).WithField("user", missing[i]).Debug("assignee lookup failed")
			continue
		}
		known[missing[i]] = r.val.Name
	}
	for i := range tasks {
		tasks[i].AssigneeName = known[tasks[i].AssignedTo]
	}
}

// profiles resolves users in order, substituting a placeholder on failure
func (a *Assembler) profiles(ctx context.Context, log logrus.FieldLogger, ids []string) []models.User {
	results := fetchAll(ctx, a.fanout, ids, a.src.GetUser)
	out := make([]models.User, len(results))
	for i, r := range results {
		if r.err != nil {
			log.WithError(r.err).WithField("user", ids[i]).Warn("using placeholder profile")
			out[i] = models.PlaceholderUser(ids[i])
			continue
		}
		out[i] = r.val
		if out[i].ID == "" {
			out[i].ID = ids[i]
		}
	}
	return out
}

// LoadDashboard collects the workspaces the user belongs to with their
// projects and tasks.
func (a *Assembler) LoadDashboard(ctx context.Context) (models.Dashboard, error) {
	const op = "assembler.Assembler.LoadDashboard"
	log := a.log.WithField("operation", op)

	user, err := a.sess.Current()
	if err != nil {
		return models.Dashboard{}, err
	}
	all, err := a.src.ListWorkspaces(ctx)
	if err != nil {
		return models.Dashboard{}, fmt.Errorf("listing workspaces: %w", err)
	}

	var dash models.Dashboard
	var projectIDs []string
	for _, ws := range all {
		if ws.IsMember(user.ID) {
			dash.Workspaces = append(dash.Workspaces, ws)
			projectIDs = append(projectIDs, ws.ProjectIDs...)
		}
	}

	projectIDs = unique(projectIDs)
	var taskIDs []string
	for i, r := range fetchAll(ctx, a.fanout, projectIDs, a.src.GetProject) {
		if r.err != nil {
			log.WithError(r.err).WithField("project", projectIDs[i]).Warn("skipping project that failed to load")
			continue
		}
		dash.Projects = append(dash.Projects, r.val)
		taskIDs = append(taskIDs, r.val.TaskIDs...)
	}
	dash.Tasks = a.tasks(ctx, log, unique(taskIDs))
	return dash, nil
}

// PublicWorkspaces lists public workspaces the user has not joined, newest first
func (a *Assembler) PublicWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	user, err := a.sess.Current()
	if err != nil {
		return nil, err
	}
	all, err := a.src.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}

	var out []models.Workspace
	for _, ws := range all {
		if ws.Visibility == models.VisibilityPublic && !ws.IsMember(user.ID) {
			out = append(out, ws)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MyTasks returns every task assigned to the user
func (a *Assembler) MyTasks(ctx context.Context) ([]models.Task, error) {
	user, err := a.sess.Current()
	if err != nil {
		return nil, err
	}
	all, err := a.src.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	var out []models.Task
	for _, t := range all {
		if t.AssignedTo == user.ID {
			t.AssigneeName = user.Name
			out = append(out, t)
		}
	}
	return out, nil
}

type outcome[T any] struct {
	val T
	err error
}

// fetchAll calls fetch for every id with at most limit in flight and waits
// for all of them. Results keep the order of ids.
func fetchAll[T any](ctx context.Context, limit int, ids []string, fetch func(context.Context, string) (T, error)) []outcome[T] {
	out := make([]outcome[T], len(ids))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		g.Go(func() error {
			v, err := fetch(ctx, id)
			out[i] = outcome[T]{val: v, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
