package fakeapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

var (
	validStatus   = map[string]bool{"ToDo": true, "InProgress": true, "Review": true, "Done": true}
	validPriority = map[string]bool{"Low": true, "Medium": true, "High": true, "Critical": true}
)

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, err
}

func decodeBody(r *http.Request, v any) ([]byte, bool) {
	body, err := readBody(r)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, false
	}
	return body, true
}

// Workspaces answer with {success, workspace(s)}, except updates which use {data}.

func (b *Backend) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]Workspace, 0, len(b.wsOrder))
	for _, id := range b.wsOrder {
		out = append(out, *b.workspaces[id])
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "workspaces": out})
}

func (b *Backend) getWorkspace(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	ws, ok := b.workspaces[chi.URLParam(r, "id")]
	var out Workspace
	if ok {
		out = *ws
	}
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Workspace not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "workspace": out})
}

func (b *Backend) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var in Workspace
	if _, ok := decodeBody(r, &in); !ok || in.Name == "" || in.UserID == "" {
		writeError(w, http.StatusBadRequest, "name and userId are required")
		return
	}
	out := b.AddWorkspace(in)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "workspace": out})
}

func (b *Backend) updateWorkspace(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	b.mu.Lock()
	ws, ok := b.workspaces[chi.URLParam(r, "id")]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusNotFound, "Workspace not found")
		return
	}
	if err := merge(ws, body); err != nil {
		b.mu.Unlock()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ws.UpdatedAt = b.stamp()
	out := *ws
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (b *Backend) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	_, ok := b.workspaces[id]
	if ok {
		delete(b.workspaces, id)
		b.wsOrder = removeID(b.wsOrder, id)
	}
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Workspace not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Workspace deleted"})
}

// Projects answer with {success, project}.

func (b *Backend) getProject(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	p, ok := b.projects[chi.URLParam(r, "id")]
	var out Project
	if ok {
		out = *p
	}
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": out})
}

func (b *Backend) createProject(w http.ResponseWriter, r *http.Request) {
	var in Project
	if _, ok := decodeBody(r, &in); !ok || in.ProjectName == "" {
		writeError(w, http.StatusBadRequest, "projectName is required")
		return
	}
	out := b.AddProject(in)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "project": out})
}

func (b *Backend) updateProject(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	b.mu.Lock()
	p, ok := b.projects[chi.URLParam(r, "id")]
	if !ok {
		b.mu.Unlock()
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err := merge(p, body); err != nil {
		b.mu.Unlock()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.UpdatedAt = b.stamp()
	out := *p
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": out})
}

func (b *Backend) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	_, ok := b.projects[id]
	delete(b.projects, id)
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Project deleted"})
}

// Tasks are returned bare.

func (b *Backend) listTasks(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		out = append(out, *t)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt < out[j].CreatedAt || (out[i].CreatedAt == out[j].CreatedAt && out[i].ID < out[j].ID)
	})
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	t, ok := b.tasks[chi.URLParam(r, "id")]
	var out Task
	if ok {
		out = *t
	}
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createTask(w http.ResponseWriter, r *http.Request) {
	var in Task
	if _, ok := decodeBody(r, &in); !ok || in.TaskName == "" {
		writeError(w, http.StatusBadRequest, "taskName is required")
		return
	}
	if in.Status == "" {
		in.Status = "ToDo"
	}
	if !validStatus[in.Status] || !validPriority[in.Priority] {
		writeError(w, http.StatusBadRequest, "invalid status or priority")
		return
	}
	writeJSON(w, http.StatusCreated, b.AddTask(in))
}

func (b *Backend) updateTask(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	next := *t
	if err := merge(&next, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validStatus[next.Status] || !validPriority[next.Priority] {
		writeError(w, http.StatusBadRequest, "invalid status or priority")
		return
	}
	next.UpdatedAt = b.stamp()
	*t = next
	writeJSON(w, http.StatusOK, next)
}

func (b *Backend) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	_, ok := b.tasks[id]
	delete(b.tasks, id)
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Task deleted"})
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u, ok := b.users[chi.URLParam(r, "id")]
	var out User
	if ok {
		out = *u
	}
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": out})
}

// Invites answer with {data}.

func (b *Backend) listInvites(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]Invite, 0, len(b.invites))
	for _, inv := range b.invites {
		out = append(out, *inv)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].InvitationCode < out[j].InvitationCode })
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (b *Backend) getInvite(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	inv, ok := b.invites[chi.URLParam(r, "code")]
	var out Invite
	if ok {
		out = *inv
	}
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Invitation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (b *Backend) createInvite(w http.ResponseWriter, r *http.Request) {
	var in Invite
	if _, ok := decodeBody(r, &in); !ok || in.InvitationCode == "" || in.WorkspaceID == "" {
		writeError(w, http.StatusBadRequest, "invitationCode and workspaceId are required")
		return
	}
	b.mu.Lock()
	_, dup := b.invites[in.InvitationCode]
	b.mu.Unlock()
	if dup {
		writeError(w, http.StatusConflict, "Invitation code already exists")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": b.AddInvite(in)})
}

func (b *Backend) deleteInvite(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	b.mu.Lock()
	_, ok := b.invites[code]
	delete(b.invites, code)
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Invitation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) sendInvite(w http.ResponseWriter, r *http.Request) {
	var in SentInvite
	if _, ok := decodeBody(r, &in); !ok || in.Email == "" || in.InvitationCode == "" {
		writeError(w, http.StatusBadRequest, "email and invitationCode are required")
		return
	}
	b.mu.Lock()
	b.sent = append(b.sent, in)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Invitation sent"})
}

func removeID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
