// Package board holds the tasks of one project grouped into status columns
// and enforces who may move them between columns.
package board

import "github.com/tgienger/toman/internal/models"

// CanTransition reports whether role may move task into target.
//
// Viewers can never move tasks. Leaving Review for Done needs an Admin.
// Everything else is open to Contributors and Admins. Dropping a task on
// its own column is never a transition.
func CanTransition(task models.Task, target models.Status, role models.Role) bool {
	if !target.Valid() || target == task.Status {
		return false
	}
	if !canEdit(role) {
		return false
	}
	if task.Status == models.StatusReview && target == models.StatusDone {
		return role == models.RoleAdmin
	}
	return true
}

// CanAssign reports whether role may take an unassigned task
func CanAssign(task models.Task, role models.Role) bool {
	return task.Unassigned() && canEdit(role)
}

// canEdit treats unknown roles like viewers
func canEdit(role models.Role) bool {
	return role == models.RoleAdmin || role == models.RoleContributor
}

// refusal explains why CanTransition said no
func refusal(task models.Task, target models.Status, role models.Role) string {
	switch {
	case !target.Valid():
		return "unknown status " + string(target)
	case !canEdit(role):
		return "viewers cannot move tasks"
	case task.Status == models.StatusReview && target == models.StatusDone:
		return "only Admins can move tasks out of Review into Done"
	}
	return "task is already in " + string(target)
}
