package models

// StatusBucket is the derived lifecycle stage of a project
type StatusBucket string

const (
	BucketPlanning   StatusBucket = "planning"
	BucketInProgress StatusBucket = "in-progress"
	BucketCompleted  StatusBucket = "completed"
)

// ProjectSummary is a project with its derived status and progress
type ProjectSummary struct {
	Project  Project
	Status   StatusBucket
	Progress int // percent of tasks done, 0-100
}

// WorkspaceView is everything the workspace page renders
type WorkspaceView struct {
	Workspace Workspace
	Members   []User
	Projects  []ProjectSummary
}

// ProjectView is everything the board page renders
type ProjectView struct {
	Project   Project
	Members   []ProjectMember
	Tasks     []Task
	ActorRole Role
}

// Dashboard collects the signed-in user's workspaces and their contents
type Dashboard struct {
	Workspaces []Workspace
	Projects   []Project
	Tasks      []Task
}
