package models

import (
	"fmt"
	"time"
)

// Status is the board column a task sits in
type Status string

const (
	StatusToDo       Status = "ToDo"
	StatusInProgress Status = "InProgress"
	StatusReview     Status = "Review"
	StatusDone       Status = "Done"
)

// Statuses lists the board columns in display order
var Statuses = []Status{StatusToDo, StatusInProgress, StatusReview, StatusDone}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// ParseStatus converts a wire string into a Status
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown task status %q", v)
	}
	return s, nil
}

// Priority of a task
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Rank orders priorities for sorting, most urgent first. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 4
	}
	return 5
}

// Role a user holds on a single project
type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleContributor Role = "Contributor"
	RoleViewer      Role = "Viewer"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleContributor, RoleViewer:
		return true
	}
	return false
}

// Visibility of a workspace
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Task represents a single task on a project board
type Task struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Deadline    time.Time // zero when unset
	Priority    Priority
	Status      Status
	AssignedTo  string // user id, empty = unassigned
	CreatedAt   time.Time
	UpdatedAt   time.Time

	AssigneeName string // resolved when loading a board
}

// Unassigned reports whether nobody has picked the task up yet
func (t Task) Unassigned() bool {
	return t.AssignedTo == ""
}

// Member is a role binding on a project
type Member struct {
	ID   string
	Role Role
}

// Project groups tasks and holds per-project role bindings
type Project struct {
	ID          string
	Name        string
	Description string
	Color       string
	StartDate   time.Time
	EndDate     time.Time
	TaskIDs     []string
	Members     []Member
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleOf returns the role userID holds on the project. Users without a
// binding act as viewers.
func (p Project) RoleOf(userID string) Role {
	for _, m := range p.Members {
		if m.ID == userID && m.Role.Valid() {
			return m.Role
		}
	}
	return RoleViewer
}

// HasMember reports whether userID has any role binding on the project
func (p Project) HasMember(userID string) bool {
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// WithinWindow reports whether t falls inside [StartDate, EndDate].
// Unset dates on either side leave that bound open.
func (p Project) WithinWindow(t time.Time) bool {
	if !p.StartDate.IsZero() && t.Before(p.StartDate) {
		return false
	}
	if !p.EndDate.IsZero() && t.After(p.EndDate) {
		return false
	}
	return true
}

// Workspace is the top-level container for projects
type Workspace struct {
	ID          string
	Name        string
	Description string
	Visibility  Visibility
	Avatar      string
	OwnerID     string
	Members     []string
	ProjectIDs  []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsMember reports whether userID belongs to the workspace. The owner is
// always a member.
func (w Workspace) IsMember(userID string) bool {
	if userID == "" {
		return false
	}
	if w.OwnerID == userID {
		return true
	}
	for _, m := range w.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Invitation grants one user access to a workspace
type Invitation struct {
	ID          string
	Code        string
	WorkspaceID string
	CreatedAt   time.Time
}

// User is a profile resolved from the identity provider
type User struct {
	ID     string
	Name   string
	Email  string
	Avatar string
}

// UnknownUserName is shown for profiles that failed to resolve
const UnknownUserName = "Unknown User"

// PlaceholderUser stands in for a profile that could not be fetched
func PlaceholderUser(id string) User {
	return User{ID: id, Name: UnknownUserName, Email: id}
}

// ProjectMember is a resolved profile with its project role
type ProjectMember struct {
	User
	Role Role
}
