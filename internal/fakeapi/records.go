package fakeapi

import "encoding/json"

// Records use the backend's wire names. Dates are ISO strings, "" when unset.

// Task as stored by the backend
type Task struct {
	ID              string `json:"_id"`
	ProjectID       string `json:"projectId,omitempty"`
	TaskName        string `json:"taskName"`
	TaskDescription string `json:"taskDescription"`
	Deadline        string `json:"deadline,omitempty"`
	Priority        string `json:"priority"`
	Status          string `json:"status"`
	AssignedTo      string `json:"assignedTo"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// Member is a project role binding
type Member struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Project as stored by the backend
type Project struct {
	ID                 string   `json:"_id"`
	ProjectName        string   `json:"projectName"`
	ProjectDescription string   `json:"projectDescription"`
	ColorCode          string   `json:"colorCode,omitempty"`
	StartDate          string   `json:"startDate,omitempty"`
	EndDate            string   `json:"endDate,omitempty"`
	TaskIDs            []string `json:"taskIds"`
	Members            []Member `json:"members"`
	CreatedAt          string   `json:"createdAt,omitempty"`
	UpdatedAt          string   `json:"updatedAt,omitempty"`
}

// Workspace as stored by the backend
type Workspace struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Visibility  string   `json:"visibility"`
	Avatar      string   `json:"avatar,omitempty"`
	UserID      string   `json:"userId"`
	Members     []string `json:"members"`
	ProjectIDs  []string `json:"projectIds"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// User profile served by /user/:id
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// Invite as stored by the backend
type Invite struct {
	ID             string `json:"_id"`
	InvitationCode string `json:"invitationCode"`
	WorkspaceID    string `json:"workspaceId"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// SentInvite records a /send-invite call
type SentInvite struct {
	Email          string `json:"email"`
	InvitationCode string `json:"invitationCode"`
	WorkspaceID    string `json:"workspaceId"`
}

// merge overlays the JSON object in body onto dst, keeping the id
func merge(dst any, body []byte) error {
	cur, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(cur, &fields); err != nil {
		return err
	}
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(body, &patch); err != nil {
		return err
	}
	for k, v := range patch {
		if k == "_id" || k == "id" {
			continue
		}
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, dst)
}
