package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
	"github.com/tgienger/toman/internal/api"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// AlreadyMemberMessage is returned when redeeming a code for a workspace
// the user already belongs to
const AlreadyMemberMessage = "You are already a member of this workspace."

// newInviteCode builds INV-<year>-<base36 millis><6 random>, upper case
func (s *Service) newInviteCode() (string, error) {
	now := s.now()
	suffix, err := gonanoid.Generate(base36, 6)
	if err != nil {
		return "", fmt.Errorf("generating invitation code: %w", err)
	}
	code := fmt.Sprintf("INV-%d-%s%s", now.Year(), strconv.FormatInt(now.UnixMilli(), 36), suffix)
	return strings.ToUpper(code), nil
}

// memberWorkspace loads a workspace the actor belongs to
func (s *Service) memberWorkspace(ctx context.Context, id string) (models.User, models.Workspace, error) {
	u, err := s.actor()
	if err != nil {
		return models.User{}, models.Workspace{}, err
	}
	ws, err := s.api.GetWorkspace(ctx, id)
	if err != nil {
		return models.User{}, models.Workspace{}, fmt.Errorf("loading workspace: %w", err)
	}
	if !ws.IsMember(u.ID) {
		return models.User{}, models.Workspace{}, apperr.Permission("you are not a member of this workspace")
	}
	return u, ws, nil
}

// CreateInvitation generates and stores a new invitation code
func (s *Service) CreateInvitation(ctx context.Context, workspaceID string) (models.Invitation, error) {
	const op = "service.Service.CreateInvitation"
	if _, _, err := s.memberWorkspace(ctx, workspaceID); err != nil {
		return models.Invitation{}, err
	}
	code, err := s.newInviteCode()
	if err != nil {
		return models.Invitation{}, err
	}

	inv, err := s.api.CreateInvitation(ctx, code, workspaceID)
	if err != nil {
		return models.Invitation{}, fmt.Errorf("creating invitation: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "workspace": workspaceID, "code": inv.Code}).Info("invitation created")
	return inv, nil
}

// ListInvitations returns the outstanding invitations of a workspace
func (s *Service) ListInvitations(ctx context.Context, workspaceID string) ([]models.Invitation, error) {
	if _, _, err := s.memberWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}
	all, err := s.api.ListInvitations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	var out []models.Invitation
	for _, inv := range all {
		if inv.WorkspaceID == workspaceID {
			out = append(out, inv)
		}
	}
	return out, nil
}

// DeleteInvitation revokes a code
func (s *Service) DeleteInvitation(ctx context.Context, code string) error {
	const op = "service.Service.DeleteInvitation"
	if _, err := s.actor(); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return apperr.Invalid("enter an invitation code")
	}
	if err := s.api.DeleteInvitation(ctx, code); err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "code": code}).Info("invitation deleted")
	return nil
}

type inviteEmail struct {
	Email string `json:"email" validate:"required,email"`
}

// SendInvitation creates a code and asks the backend to email it
func (s *Service) SendInvitation(ctx context.Context, workspaceID, email string) (models.Invitation, error) {
	const op = "service.Service.SendInvitation"
	if _, err := s.actor(); err != nil {
		return models.Invitation{}, err
	}
	form := inviteEmail{Email: strings.TrimSpace(email)}
	if err := invalid(validateStruct(&form)); err != nil {
		return models.Invitation{}, err
	}

	inv, err := s.CreateInvitation(ctx, workspaceID)
	if err != nil {
		return models.Invitation{}, err
	}
	if err := s.api.SendInvitation(ctx, form.Email, inv.Code, workspaceID); err != nil {
		return inv, fmt.Errorf("sending invitation: %w", err)
	}
	s.log.WithFields(logrus.Fields{"operation": op, "workspace": workspaceID, "code": inv.Code}).Info("invitation sent")
	return inv, nil
}

// RedeemInvitation joins the actor to the workspace behind code and
// consumes the invitation.
func (s *Service) RedeemInvitation(ctx context.Context, code string) (models.Workspace, error) {
	const op = "service.Service.RedeemInvitation"
	log := s.log.WithFields(logrus.Fields{"operation": op, "code": code})

	u, err := s.actor()
	if err != nil {
		return models.Workspace{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Workspace{}, apperr.Invalid("enter an invitation code")
	}

	inv, err := s.api.GetInvitation(ctx, code)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return models.Workspace{}, apperr.NotFound("invitation code %s is not valid", code)
		}
		return models.Workspace{}, fmt.Errorf("looking up invitation: %w", err)
	}
	ws, err := s.api.GetWorkspace(ctx, inv.WorkspaceID)
	if err != nil {
		return models.Workspace{}, fmt.Errorf("loading workspace: %w", err)
	}
	if ws.IsMember(u.ID) {
		return models.Workspace{}, apperr.Invalid(AlreadyMemberMessage)
	}

	members := append(append([]string{}, ws.Members...), u.ID)
	updated, err := s.api.UpdateWorkspace(ctx, ws.ID, api.WorkspaceUpdate{Members: members})
	if err != nil {
		return models.Workspace{}, fmt.Errorf("joining workspace: %w", err)
	}
	if err := s.api.DeleteInvitation(ctx, code); err != nil {
		log.WithError(err).Warn("joined workspace but could not delete the invitation")
	}
	log.WithField("workspace", ws.ID).Info("invitation redeemed")
	return updated, nil
}
