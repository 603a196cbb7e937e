package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
)

// defaultProjectColor is used when the backend has no colorCode for a project
const defaultProjectColor = "#6B46C1"

// isoLayout matches what browsers produce with Date.toISOString
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// wireTime accepts the date shapes the backend hands out: null, "", full
// ISO timestamps and bare dates.
type wireTime struct {
	time.Time
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, raw); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("unrecognised date %q", raw)
}

func (t wireTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(isoLayout))
}

func wt(t time.Time) wireTime { return wireTime{t} }

// memberIDs decodes workspace members given either as ids or as {id} objects
type memberIDs []string

func (m *memberIDs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			out = append(out, id)
			continue
		}
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		out = append(out, obj.ID)
	}
	*m = out
	return nil
}

type wireTask struct {
	ID              string   `json:"_id"`
	AltID           string   `json:"id"`
	ProjectID       string   `json:"projectId"`
	TaskName        string   `json:"taskName"`
	Name            string   `json:"name"`
	TaskDescription string   `json:"taskDescription"`
	Description     string   `json:"description"`
	Deadline        wireTime `json:"deadline"`
	Priority        string   `json:"priority"`
	Status          string   `json:"status"`
	AssignedTo      *string  `json:"assignedTo"`
	CreatedAt       wireTime `json:"createdAt"`
	UpdatedAt       wireTime `json:"updatedAt"`
}

func (w wireTask) model() models.Task {
	t := models.Task{
		ID:          firstNonEmpty(w.ID, w.AltID),
		ProjectID:   w.ProjectID,
		Name:        firstNonEmpty(w.TaskName, w.Name),
		Description: firstNonEmpty(w.TaskDescription, w.Description),
		Deadline:    w.Deadline.Time,
		Priority:    models.Priority(w.Priority),
		Status:      models.Status(w.Status),
		CreatedAt:   w.CreatedAt.Time,
		UpdatedAt:   w.UpdatedAt.Time,
	}
	if w.AssignedTo != nil {
		t.AssignedTo = *w.AssignedTo
	}
	return t
}

// taskPayload is the full task record the backend expects on create and update
type taskPayload struct {
	ProjectID       string   `json:"projectId,omitempty"`
	TaskName        string   `json:"taskName"`
	TaskDescription string   `json:"taskDescription"`
	Deadline        wireTime `json:"deadline"`
	Priority        string   `json:"priority"`
	Status          string   `json:"status"`
	AssignedTo      string   `json:"assignedTo"`
}

func newTaskPayload(t models.Task) taskPayload {
	return taskPayload{
		TaskName:        t.Name,
		TaskDescription: t.Description,
		Deadline:        wt(t.Deadline),
		Priority:        string(t.Priority),
		Status:          string(t.Status),
		AssignedTo:      t.AssignedTo,
	}
}

type wireMember struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type wireProject struct {
	ID                 string       `json:"_id"`
	AltID              string       `json:"id"`
	ProjectName        string       `json:"projectName"`
	ProjectDescription string       `json:"projectDescription"`
	ColorCode          string       `json:"colorCode"`
	StartDate          wireTime     `json:"startDate"`
	EndDate            wireTime     `json:"endDate"`
	TaskIDs            []string     `json:"taskIds"`
	Members            []wireMember `json:"members"`
	CreatedAt          wireTime     `json:"createdAt"`
	UpdatedAt          wireTime     `json:"updatedAt"`
}

func (w wireProject) model() models.Project {
	p := models.Project{
		ID:          firstNonEmpty(w.ID, w.AltID),
		Name:        w.ProjectName,
		Description: w.ProjectDescription,
		Color:       firstNonEmpty(w.ColorCode, defaultProjectColor),
		StartDate:   w.StartDate.Time,
		EndDate:     w.EndDate.Time,
		TaskIDs:     append([]string{}, w.TaskIDs...),
		CreatedAt:   w.CreatedAt.Time,
		UpdatedAt:   w.UpdatedAt.Time,
	}
	p.Members = make([]models.Member, 0, len(w.Members))
	for _, m := range w.Members {
		p.Members = append(p.Members, models.Member{ID: m.ID, Role: models.Role(m.Role)})
	}
	return p
}

func wireMembers(members []models.Member) []wireMember {
	out := make([]wireMember, 0, len(members))
	for _, m := range members {
		out = append(out, wireMember{ID: m.ID, Role: string(m.Role)})
	}
	return out
}

type projectPayload struct {
	ProjectName        string       `json:"projectName"`
	ProjectDescription string       `json:"projectDescription"`
	StartDate          wireTime     `json:"startDate"`
	EndDate            wireTime     `json:"endDate"`
	ColorCode          string       `json:"colorCode"`
	Members            []wireMember `json:"members"`
	TaskIDs            []string     `json:"taskIds"`
}

type wireWorkspace struct {
	ID          string    `json:"_id"`
	AltID       string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Visibility  string    `json:"visibility"`
	Avatar      string    `json:"avatar"`
	UserID      string    `json:"userId"`
	Members     memberIDs `json:"members"`
	ProjectIDs  []string  `json:"projectIds"`
	CreatedAt   wireTime  `json:"createdAt"`
	UpdatedAt   wireTime  `json:"updatedAt"`
}

func (w wireWorkspace) model() models.Workspace {
	vis := models.Visibility(w.Visibility)
	if vis != models.VisibilityPublic {
		vis = models.VisibilityPrivate
	}
	return models.Workspace{
		ID:          firstNonEmpty(w.ID, w.AltID),
		Name:        w.Name,
		Description: w.Description,
		Visibility:  vis,
		Avatar:      w.Avatar,
		OwnerID:     w.UserID,
		Members:     append([]string{}, w.Members...),
		ProjectIDs:  append([]string{}, w.ProjectIDs...),
		CreatedAt:   w.CreatedAt.Time,
		UpdatedAt:   w.UpdatedAt.Time,
	}
}

type workspacePayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Visibility  string   `json:"visibility"`
	Avatar      string   `json:"avatar"`
	UserID      string   `json:"userId"`
	Members     []string `json:"members"`
	ProjectIDs  []string `json:"projectIds"`
}

type wireUser struct {
	ID       string `json:"id"`
	AltID    string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Image    string `json:"image"`
	ImageURL string `json:"imageUrl"`
	Avatar   string `json:"avatar"`
}

func (w wireUser) model() models.User {
	return models.User{
		ID:     firstNonEmpty(w.ID, w.AltID),
		Name:   w.Name,
		Email:  w.Email,
		Avatar: firstNonEmpty(w.Image, w.ImageURL, w.Avatar),
	}
}

type wireInvite struct {
	ID             string   `json:"_id"`
	InvitationCode string   `json:"invitationCode"`
	WorkspaceID    string   `json:"workspaceId"`
	CreatedAt      wireTime `json:"createdAt"`
}

func (w wireInvite) model() models.Invitation {
	return models.Invitation{
		ID:          w.ID,
		Code:        w.InvitationCode,
		WorkspaceID: w.WorkspaceID,
		CreatedAt:   w.CreatedAt.Time,
	}
}

// unwrap is the normalization boundary: it strips the {success, <key>: ...}
// envelope some endpoints use and returns the resource. Bare resources pass
// through untouched.
func unwrap(data []byte, keys ...string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] != '{' {
		return trimmed, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, malformed(err)
	}
	if raw, ok := env["success"]; ok {
		var success bool
		if err := json.Unmarshal(raw, &success); err == nil && !success {
			return nil, apperr.HTTP(0, serverMessage(env, "request was not successful"))
		}
	}
	for _, k := range keys {
		if raw, ok := env[k]; ok && !isNull(raw) {
			return raw, nil
		}
	}
	return trimmed, nil
}

func decode(data []byte, out any, keys ...string) error {
	raw, err := unwrap(data, keys...)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return malformed(fmt.Errorf("empty response body"))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformed(err)
	}
	return nil
}

func malformed(err error) error {
	return &apperr.Error{Kind: apperr.KindHTTP, Message: "malformed response from server", Err: err}
}

func serverMessage(env map[string]json.RawMessage, fallback string) string {
	for _, k := range []string{"message", "error"} {
		if raw, ok := env[k]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
		}
	}
	return fallback
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
