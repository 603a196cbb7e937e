package fakeapi

import "time"

// AddWorkspace stores w, assigning an id when it has none
func (b *Backend) AddWorkspace(w Workspace) Workspace {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w.ID == "" {
		w.ID = b.newID()
	}
	if w.Visibility == "" {
		w.Visibility = "private"
	}
	if w.Members == nil {
		w.Members = []string{}
	}
	if w.ProjectIDs == nil {
		w.ProjectIDs = []string{}
	}
	if w.CreatedAt == "" {
		w.CreatedAt = b.stamp()
	}
	if _, exists := b.workspaces[w.ID]; !exists {
		b.wsOrder = append(b.wsOrder, w.ID)
	}
	b.workspaces[w.ID] = &w
	return w
}

// AddProject stores p, assigning an id when it has none
func (b *Backend) AddProject(p Project) Project {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = b.newID()
	}
	if p.TaskIDs == nil {
		p.TaskIDs = []string{}
	}
	if p.Members == nil {
		p.Members = []Member{}
	}
	if p.CreatedAt == "" {
		p.CreatedAt = b.stamp()
	}
	b.projects[p.ID] = &p
	return p
}

// AddTask stores t, assigning an id when it has none
func (b *Backend) AddTask(t Task) Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.ID == "" {
		t.ID = b.newID()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = b.stamp()
	}
	b.tasks[t.ID] = &t
	return t
}

// AddUser stores a profile
func (b *Backend) AddUser(u User) User {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[u.ID] = &u
	return u
}

// AddInvite stores an invitation keyed by its code
func (b *Backend) AddInvite(inv Invite) Invite {
	b.mu.Lock()
	defer b.mu.Unlock()
	if inv.ID == "" {
		inv.ID = b.newID()
	}
	if inv.CreatedAt == "" {
		inv.CreatedAt = b.stamp()
	}
	b.invites[inv.InvitationCode] = &inv
	return inv
}

// Task returns the stored task
func (b *Backend) Task(id string) (Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Project returns the stored project
func (b *Backend) Project(id string) (Project, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.projects[id]
	if !ok {
		return Project{}, false
	}
	out := *p
	out.TaskIDs = append([]string{}, p.TaskIDs...)
	out.Members = append([]Member{}, p.Members...)
	return out, true
}

// Workspace returns the stored workspace
func (b *Backend) Workspace(id string) (Workspace, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.workspaces[id]
	if !ok {
		return Workspace{}, false
	}
	out := *w
	out.Members = append([]string{}, w.Members...)
	out.ProjectIDs = append([]string{}, w.ProjectIDs...)
	return out, true
}

// Invite returns the stored invitation
func (b *Backend) Invite(code string) (Invite, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inv, ok := b.invites[code]
	if !ok {
		return Invite{}, false
	}
	return *inv, true
}

// SeedDemo fills the backend with a small workspace owned by ownerID so the
// terminal client has something to show.
func SeedDemo(b *Backend, ownerID string) Workspace {
	day := func(n int) string {
		return time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, n).Format("2006-01-02T15:04:05.000Z")
	}

	b.AddUser(User{ID: ownerID, Name: "Demo Owner", Email: "owner@toman.local"})
	b.AddUser(User{ID: "user_contrib", Name: "Casey Contributor", Email: "casey@toman.local"})
	b.AddUser(User{ID: "user_viewer", Name: "Vic Viewer", Email: "vic@toman.local"})

	members := []Member{
		{ID: ownerID, Role: "Admin"},
		{ID: "user_contrib", Role: "Contributor"},
		{ID: "user_viewer", Role: "Viewer"},
	}

	launch := b.AddProject(Project{
		ProjectName:        "Launch",
		ProjectDescription: "Ship the first public release",
		ColorCode:          "#2F855A",
		StartDate:          day(-14),
		EndDate:            day(30),
		Members:            members,
	})
	var launchTasks []string
	for _, t := range []Task{
		{TaskName: "Write release notes", Priority: "Medium", Status: "ToDo", Deadline: day(10)},
		{TaskName: "Fix login redirect", Priority: "Critical", Status: "InProgress", AssignedTo: "user_contrib", Deadline: day(2)},
		{TaskName: "Review onboarding copy", Priority: "Low", Status: "Review", AssignedTo: ownerID, Deadline: day(5)},
		{TaskName: "Set up CI", Priority: "High", Status: "Done", AssignedTo: "user_contrib", Deadline: day(-3)},
	} {
		t.ProjectID = launch.ID
		t.TaskDescription = t.TaskName
		launchTasks = append(launchTasks, b.AddTask(t).ID)
	}
	b.mu.Lock()
	b.projects[launch.ID].TaskIDs = launchTasks
	b.mu.Unlock()

	roadmap := b.AddProject(Project{
		ProjectName:        "Roadmap",
		ProjectDescription: "Plan the next quarter",
		StartDate:          day(0),
		EndDate:            day(90),
		Members:            members[:1],
	})

	ws := b.AddWorkspace(Workspace{
		Name:        "Demo",
		Description: "Local development workspace",
		Visibility:  "public",
		UserID:      ownerID,
		Members:     []string{ownerID, "user_contrib", "user_viewer"},
		ProjectIDs:  []string{launch.ID, roadmap.ID},
	})
	b.AddWorkspace(Workspace{
		Name:        "Open Source",
		Description: "A public workspace you have not joined yet",
		Visibility:  "public",
		UserID:      "user_contrib",
		Members:     []string{"user_contrib"},
	})
	b.AddInvite(Invite{InvitationCode: "INV-DEMO-WELCOME", WorkspaceID: ws.ID})
	return ws
}
