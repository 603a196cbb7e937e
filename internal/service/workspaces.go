package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/api"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
)

// WorkspaceForm holds the editable workspace fields
type WorkspaceForm struct {
	Name        string            `json:"name" validate:"required,max=100"`
	Description string            `json:"description" validate:"max=500"`
	Visibility  models.Visibility `json:"visibility" validate:"required,oneof=public private"`
	Avatar      string            `json:"avatar" validate:"omitempty,url"`
}

func (f *WorkspaceForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	if f.Visibility == "" {
		f.Visibility = models.VisibilityPrivate
	}
}

// CreateWorkspace creates a workspace owned by the actor, who becomes its
// only member.
func (s *Service) CreateWorkspace(ctx context.Context, form WorkspaceForm) (models.Workspace, error) {
	const op = "service.Service.CreateWorkspace"
	u, err := s.actor()
	if err != nil {
		return models.Workspace{}, err
	}
	form.normalize()
	if err := invalid(validateStruct(&form)); err != nil {
		return models.Workspace{}, err
	}

	ws, err := s.api.CreateWorkspace(ctx, models.Workspace{
		Name:        form.Name,
		Description: form.Description,
		Visibility:  form.Visibility,
		Avatar:      form.Avatar,
		OwnerID:     u.ID,
		Members:     []string{u.ID},
		ProjectIDs:  []string{},
	})
	if err != nil {
		return models.Workspace{}, fmt.Errorf("creating workspace: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "workspace": ws.ID}).Info("workspace created")
	return ws, nil
}

// ownedWorkspace loads a workspace the actor must own
func (s *Service) ownedWorkspace(ctx context.Context, id string) (models.User, models.Workspace, error) {
	u, err := s.actor()
	if err != nil {
		return models.User{}, models.Workspace{}, err
	}
	ws, err := s.api.GetWorkspace(ctx, id)
	if err != nil {
		return models.User{}, models.Workspace{}, fmt.Errorf("loading workspace: %w", err)
	}
	if ws.OwnerID != u.ID {
		return models.User{}, models.Workspace{}, apperr.Permission("only the workspace owner can change workspace settings")
	}
	return u, ws, nil
}

// UpdateWorkspace edits the workspace details. Owner only.
func (s *Service) UpdateWorkspace(ctx context.Context, id string, form WorkspaceForm) (models.Workspace, error) {
	const op = "service.Service.UpdateWorkspace"
	if _, err := s.actor(); err != nil {
		return models.Workspace{}, err
	}
	form.normalize()
	if err := invalid(validateStruct(&form)); err != nil {
		return models.Workspace{}, err
	}
	_, _, err := s.ownedWorkspace(ctx, id)
	if err != nil {
		return models.Workspace{}, err
	}

	ws, err := s.api.UpdateWorkspace(ctx, id, api.WorkspaceUpdate{
		Name:        &form.Name,
		Description: &form.Description,
		Visibility:  &form.Visibility,
		Avatar:      &form.Avatar,
	})
	if err != nil {
		return models.Workspace{}, fmt.Errorf("updating workspace: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "workspace": id}).Info("workspace updated")
	return ws, nil
}

// TransferOwnership hands the workspace to another current member
func (s *Service) TransferOwnership(ctx context.Context, id, userID string) error {
	const op = "service.Service.TransferOwnership"
	u, ws, err := s.ownedWorkspace(ctx, id)
	if err != nil {
		return err
	}
	if userID == u.ID {
		return apperr.Invalid("you already own this workspace")
	}
	if !contains(ws.Members, userID) {
		return apperr.Invalid("ownership can only be transferred to a workspace member")
	}

	if err := s.api.TransferWorkspace(ctx, id, userID); err != nil {
		return fmt.Errorf("transferring workspace: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "workspace": id, "owner": userID}).Info("ownership transferred")
	return nil
}

// RemoveWorkspaceMember removes someone other than the owner. Members can
// only be removed while the workspace has no projects.
func (s *Service) RemoveWorkspaceMember(ctx context.Context, id, memberID string) (models.Workspace, error) {
	const op = "service.Service.RemoveWorkspaceMember"
	_, ws, err := s.ownedWorkspace(ctx, id)
	if err != nil {
		return models.Workspace{}, err
	}
	switch {
	case memberID == ws.OwnerID:
		return models.Workspace{}, apperr.Invalid("the workspace owner cannot be removed")
	case !contains(ws.Members, memberID):
		return models.Workspace{}, apperr.NotFound("%s is not a member of this workspace", memberID)
	case len(ws.ProjectIDs) > 0:
		return models.Workspace{}, apperr.Invalid("remove all projects before removing members")
	}

	updated, err := s.api.UpdateWorkspace(ctx, id, api.WorkspaceUpdate{Members: without(ws.Members, memberID)})
	if err != nil {
		return models.Workspace{}, fmt.Errorf("removing member: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "workspace": id, "member": memberID}).Info("member removed")
	return updated, nil
}

// DeleteWorkspace deletes an empty workspace. confirmName must repeat the
// workspace name.
func (s *Service) DeleteWorkspace(ctx context.Context, id, confirmName string) error {
	const op = "service.Service.DeleteWorkspace"
	_, ws, err := s.ownedWorkspace(ctx, id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(confirmName) != ws.Name {
		return apperr.Invalid("type the workspace name %q to confirm", ws.Name)
	}
	if len(ws.ProjectIDs) > 0 {
		return apperr.Invalid("delete all projects before deleting the workspace")
	}

	if err := s.api.DeleteWorkspace(ctx, id); err != nil {
		return fmt.Errorf("deleting workspace: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "workspace": id}).Info("workspace deleted")
	return nil
}
