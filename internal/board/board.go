package board

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
)

// TaskUpdater persists a full task record and returns the server's copy
type TaskUpdater interface {
	UpdateTask(ctx context.Context, t models.Task) (models.Task, error)
}

// UserLookup resolves assignee display names
type UserLookup interface {
	GetUser(ctx context.Context, id string) (models.User, error)
}

// SortOrder for columns
type SortOrder int

const (
	SortDeadline SortOrder = iota
	SortPriority
)

func (s SortOrder) String() string {
	if s == SortPriority {
		return "priority"
	}
	return "deadline"
}

// Deps are the collaborators a Board writes through
type Deps struct {
	Tasks TaskUpdater
	Users UserLookup
	Log   logrus.FieldLogger
}

// Board is the in-memory task set of one project as seen by one actor.
// It is safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	project models.Project
	tasks   []models.Task
	actor   models.User
	role    models.Role
	order   SortOrder
	query   string

	updater TaskUpdater
	users   UserLookup
	log     logrus.FieldLogger
}

// New creates a board for project with its loaded tasks
func New(project models.Project, tasks []models.Task, actor models.User, deps Deps) *Board {
	log := deps.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Board{
		project: project,
		tasks:   append([]models.Task(nil), tasks...),
		actor:   actor,
		role:    project.RoleOf(actor.ID),
		updater: deps.Tasks,
		users:   deps.Users,
		log:     log.WithField("project", project.ID),
	}
}

// FromView creates a board from an assembled project view
func FromView(view models.ProjectView, actor models.User, deps Deps) *Board {
	return New(view.Project, view.Tasks, actor, deps)
}

// Project returns the project the board shows
func (b *Board) Project() models.Project {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.project
}

// Role returns the actor's role on the project
func (b *Board) Role() models.Role {
	return b.role
}

// Actor returns the user the board acts for
func (b *Board) Actor() models.User {
	return b.actor
}

// CanMove reports whether the actor may move task id into target
func (b *Board) CanMove(id string, target models.Status) bool {
	t, ok := b.Task(id)
	return ok && CanTransition(t, target, b.role)
}

// Move is the gated transition used by interactive callers. Dropping a task
// on its own column does nothing. A move the actor's role does not allow is
// refused before any request is sent.
func (b *Board) Move(ctx context.Context, id string, target models.Status) (models.Task, error) {
	t, ok := b.Task(id)
	if !ok {
		return models.Task{}, apperr.NotFound("task %s is not on this board", id)
	}
	if t.Status == target {
		return t, nil
	}
	if !CanTransition(t, target, b.role) {
		if !target.Valid() {
			return models.Task{}, apperr.Invalid("%s", refusal(t, target, b.role))
		}
		return models.Task{}, apperr.Permission("%s", refusal(t, target, b.role))
	}
	return b.ApplyTransition(ctx, id, target)
}

// ApplyTransition writes target as the task's status and reconciles the
// server's copy into the board. It does not check the actor's role; callers
// that need the gate use Move. On failure the board is left unchanged.
func (b *Board) ApplyTransition(ctx context.Context, id string, target models.Status) (models.Task, error) {
	const op = "board.Board.ApplyTransition"
	log := b.log.WithFields(logrus.Fields{"operation": op, "task": id, "target": target})

	cur, ok := b.Task(id)
	if !ok {
		return models.Task{}, apperr.NotFound("task %s is not on this board", id)
	}
	if !target.Valid() {
		return models.Task{}, apperr.Invalid("unknown status %s", target)
	}
	if cur.Status == target {
		return models.Task{}, apperr.Invalid("task is already in %s", target)
	}

	next := cur
	next.Status = target
	updated, err := b.updater.UpdateTask(ctx, next)
	if err != nil {
		log.WithError(err).Warn("status update failed")
		return models.Task{}, fmt.Errorf("moving %q to %s: %w", cur.Name, target, err)
	}

	updated = b.resolveAssignee(ctx, cur, updated)
	b.replace(updated)
	log.WithField("from", cur.Status).Info("task moved")
	return updated, nil
}

// AssignToSelf makes the actor the assignee of an unassigned task
func (b *Board) AssignToSelf(ctx context.Context, id string) (models.Task, error) {
	const op = "board.Board.AssignToSelf"
	log := b.log.WithFields(logrus.Fields{"operation": op, "task": id})

	cur, ok := b.Task(id)
	if !ok {
		return models.Task{}, apperr.NotFound("task %s is not on this board", id)
	}
	if !cur.Unassigned() {
		return models.Task{}, apperr.Invalid("task is already assigned")
	}
	if !canEdit(b.role) {
		return models.Task{}, apperr.Permission("viewers cannot take tasks")
	}

	next := cur
	next.AssignedTo = b.actor.ID
	updated, err := b.updater.UpdateTask(ctx, next)
	if err != nil {
		log.WithError(err).Warn("assignment failed")
		return models.Task{}, fmt.Errorf("assigning %q: %w", cur.Name, err)
	}

	if updated.AssignedTo == b.actor.ID {
		updated.AssigneeName = b.actor.Name
	} else {
		updated = b.resolveAssignee(ctx, cur, updated)
	}
	b.replace(updated)
	log.Info("task assigned to actor")
	return updated, nil
}

// resolveAssignee fills AssigneeName on a task returned by the server.
// Lookups are best effort.
func (b *Board) resolveAssignee(ctx context.Context, before, after models.Task) models.Task {
	switch {
	case after.AssignedTo == "":
		after.AssigneeName = ""
	case after.AssignedTo == before.AssignedTo && before.AssigneeName != "":
		after.AssigneeName = before.AssigneeName
	case b.users == nil:
		after.AssigneeName = ""
	default:
		u, err := b.users.GetUser(ctx, after.AssignedTo)
		if err != nil {
			b.log.WithError(err).WithField("user", after.AssignedTo).Debug("assignee lookup failed")
			after.AssigneeName = ""
		} else {
			after.AssigneeName = u.Name
		}
	}
	return after
}

// replace swaps the entry with the same id in place. A task that vanished
// in the meantime is not re-added.
func (b *Board) replace(t models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.tasks {
		if b.tasks[i].ID == t.ID {
			b.tasks[i] = t
			return
		}
	}
}

// Task returns the task with id
func (b *Board) Task(id string) (models.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, t := range b.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Tasks returns every task in load order
func (b *Board) Tasks() []models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Task(nil), b.tasks...)
}

// SetSort changes the column order
func (b *Board) SetSort(o SortOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order = o
}

// Sort returns the column order
func (b *Board) Sort() SortOrder {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.order
}

// SetQuery filters columns to tasks whose name or description contain q
func (b *Board) SetQuery(q string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = strings.TrimSpace(q)
}

// Query returns the active search
func (b *Board) Query() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.query
}

// Column returns the tasks in status that match the search, sorted
func (b *Board) Column(status models.Status) []models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []models.Task
	for _, t := range b.tasks {
		if t.Status == status && matches(t, b.query) {
			out = append(out, t)
		}
	}
	sortTasks(out, b.order)
	return out
}

// Counts returns how many matching tasks sit in each column
func (b *Board) Counts() map[models.Status]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[models.Status]int, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, t := range b.tasks {
		if matches(t, b.query) {
			counts[t.Status]++
		}
	}
	return counts
}

func matches(t models.Task, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func sortTasks(tasks []models.Task, order SortOrder) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if order == SortPriority && a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		return deadlineBefore(a, b)
	})
}

// deadlineBefore sorts tasks without a deadline last
func deadlineBefore(a, b models.Task) bool {
	switch {
	case a.Deadline.IsZero():
		return false
	case b.Deadline.IsZero():
		return true
	}
	return a.Deadline.Before(b.Deadline)
}
