package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/api"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
)

// ProjectForm holds the editable project fields
type ProjectForm struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Description string    `json:"description" validate:"required,max=1000"`
	Color       string    `json:"color" validate:"omitempty,hexcolor"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

func (f *ProjectForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
}

// CreateProject creates a project inside a workspace and links it there.
// When the workspace has members at least one must be selected, and at
// least one selected member must be an Admin.
func (s *Service) CreateProject(ctx context.Context, workspaceID string, form ProjectForm, members []models.Member) (models.Project, error) {
	const op = "service.Service.CreateProject"
	log := s.log.WithFields(logrus.Fields{"operation": op, "workspace": workspaceID})

	if _, err := s.actor(); err != nil {
		return models.Project{}, err
	}
	form.normalize()
	if err := invalid(validateStruct(&form)); err != nil {
		return models.Project{}, err
	}

	_, ws, err := s.memberWorkspace(ctx, workspaceID)
	if err != nil {
		return models.Project{}, err
	}
	if msg := checkMembers(ws, members); msg != "" {
		return models.Project{}, invalid(map[string]string{"members": msg})
	}

	p, err := s.api.CreateProject(ctx, models.Project{
		Name:        form.Name,
		Description: form.Description,
		Color:       form.Color,
		StartDate:   form.StartDate,
		EndDate:     form.EndDate,
		Members:     members,
	})
	if err != nil {
		return models.Project{}, fmt.Errorf("creating project: %w", err)
	}

	projectIDs := append(append([]string{}, ws.ProjectIDs...), p.ID)
	if _, err := s.api.UpdateWorkspace(ctx, workspaceID, api.WorkspaceUpdate{ProjectIDs: projectIDs}); err != nil {
		log.WithError(err).WithField("project", p.ID).Error("project created but not linked to workspace")
		return p, fmt.Errorf("linking project to workspace: %w", err)
	}
	log.WithField("project", p.ID).Info("project created")
	return p, nil
}

func checkMembers(ws models.Workspace, members []models.Member) string {
	if len(ws.Members) > 0 && len(members) == 0 {
		return "Select at least one member"
	}
	seen := map[string]bool{}
	admin := false
	for _, m := range members {
		switch {
		case !m.Role.Valid():
			return fmt.Sprintf("Unknown role %q", m.Role)
		case !ws.IsMember(m.ID):
			return fmt.Sprintf("%s is not a member of this workspace", m.ID)
		case seen[m.ID]:
			return fmt.Sprintf("%s is selected twice", m.ID)
		}
		seen[m.ID] = true
		admin = admin || m.Role == models.RoleAdmin
	}
	if len(members) > 0 && !admin {
		return "At least one member must be an Admin"
	}
	return ""
}

// adminProject loads a project the actor must administer
func (s *Service) adminProject(ctx context.Context, id string) (models.User, models.Project, error) {
	u, err := s.actor()
	if err != nil {
		return models.User{}, models.Project{}, err
	}
	p, err := s.api.GetProject(ctx, id)
	if err != nil {
		return models.User{}, models.Project{}, fmt.Errorf("loading project: %w", err)
	}
	if p.RoleOf(u.ID) != models.RoleAdmin {
		return models.User{}, models.Project{}, apperr.Permission("only project Admins can change project settings")
	}
	return u, p, nil
}

// UpdateProject edits the project details. Admin only.
func (s *Service) UpdateProject(ctx context.Context, id string, form ProjectForm) (models.Project, error) {
	const op = "service.Service.UpdateProject"
	if _, err := s.actor(); err != nil {
		return models.Project{}, err
	}
	form.normalize()
	if err := invalid(validateStruct(&form)); err != nil {
		return models.Project{}, err
	}
	if _, _, err := s.adminProject(ctx, id); err != nil {
		return models.Project{}, err
	}

	u := api.ProjectUpdate{
		Name:        &form.Name,
		Description: &form.Description,
		StartDate:   &form.StartDate,
		EndDate:     &form.EndDate,
	}
	if form.Color != "" {
		u.Color = &form.Color
	}
	p, err := s.api.UpdateProject(ctx, id, u)
	if err != nil {
		return models.Project{}, fmt.Errorf("updating project: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "project": id}).Info("project updated")
	return p, nil
}

// AddProjectMember binds a workspace member to the project. Admin only.
func (s *Service) AddProjectMember(ctx context.Context, workspaceID, projectID string, m models.Member) (models.Project, error) {
	const op = "service.Service.AddProjectMember"
	_, p, err := s.adminProject(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if !m.Role.Valid() {
		return models.Project{}, apperr.Invalid("unknown role %q", m.Role)
	}
	if p.HasMember(m.ID) {
		return models.Project{}, apperr.Invalid("%s is already a member of this project", m.ID)
	}
	ws, err := s.api.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return models.Project{}, fmt.Errorf("loading workspace: %w", err)
	}
	if !ws.IsMember(m.ID) || !contains(ws.ProjectIDs, projectID) {
		return models.Project{}, apperr.Invalid("%s is not a member of this workspace", m.ID)
	}

	members := append(append([]models.Member{}, p.Members...), m)
	updated, err := s.api.UpdateProject(ctx, projectID, api.ProjectUpdate{Members: members})
	if err != nil {
		return models.Project{}, fmt.Errorf("adding member: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "project": projectID, "member": m.ID}).Info("project member added")
	return updated, nil
}

// ChangeMemberRole changes a member's role. Admin only; the project keeps
// at least one Admin.
func (s *Service) ChangeMemberRole(ctx context.Context, projectID, memberID string, role models.Role) (models.Project, error) {
	const op = "service.Service.ChangeMemberRole"
	_, p, err := s.adminProject(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if !role.Valid() {
		return models.Project{}, apperr.Invalid("unknown role %q", role)
	}
	if !p.HasMember(memberID) {
		return models.Project{}, apperr.NotFound("%s is not a member of this project", memberID)
	}

	members := make([]models.Member, 0, len(p.Members))
	admins := 0
	for _, m := range p.Members {
		if m.ID == memberID {
			m.Role = role
		}
		if m.Role == models.RoleAdmin {
			admins++
		}
		members = append(members, m)
	}
	if admins == 0 {
		return models.Project{}, apperr.Invalid("a project needs at least one Admin")
	}

	updated, err := s.api.UpdateProject(ctx, projectID, api.ProjectUpdate{Members: members})
	if err != nil {
		return models.Project{}, fmt.Errorf("changing role: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "project": projectID, "member": memberID, "role": role}).Info("member role changed")
	return updated, nil
}

// RemoveProjectMember drops a member's binding. Admin only; Admins cannot
// remove themselves.
func (s *Service) RemoveProjectMember(ctx context.Context, projectID, memberID string) (models.Project, error) {
	const op = "service.Service.RemoveProjectMember"
	u, p, err := s.adminProject(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if memberID == u.ID {
		return models.Project{}, apperr.Invalid("you cannot remove yourself from the project")
	}
	if !p.HasMember(memberID) {
		return models.Project{}, apperr.NotFound("%s is not a member of this project", memberID)
	}

	members := make([]models.Member, 0, len(p.Members))
	for _, m := range p.Members {
		if m.ID != memberID {
			members = append(members, m)
		}
	}
	updated, err := s.api.UpdateProject(ctx, projectID, api.ProjectUpdate{Members: members})
	if err != nil {
		return models.Project{}, fmt.Errorf("removing member: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "project": projectID, "member": memberID}).Info("project member removed")
	return updated, nil
}

// DeleteProject deletes a project without tasks and unlinks it from its
// workspace. Admin only.
func (s *Service) DeleteProject(ctx context.Context, workspaceID, projectID string) error {
	const op = "service.Service.DeleteProject"
	_, p, err := s.adminProject(ctx, projectID)
	if err != nil {
		return err
	}
	if len(p.TaskIDs) > 0 {
		return apperr.Invalid("delete all tasks before deleting the project")
	}
	ws, err := s.api.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("loading workspace: %w", err)
	}
	if !contains(ws.ProjectIDs, projectID) {
		return apperr.NotFound("project %s is not in workspace %s", projectID, workspaceID)
	}

	if err := s.api.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if _, err := s.api.UpdateWorkspace(ctx, workspaceID, api.WorkspaceUpdate{ProjectIDs: without(ws.ProjectIDs, projectID)}); err != nil {
		return fmt.Errorf("unlinking project from workspace: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "project": projectID}).Info("project deleted")
	return nil
}
