package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) inviteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Manage workspace invitation codes",
	}

	create := &cobra.Command{
		Use:   "create <workspace-id>",
		Short: "Create an invitation code",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runInviteCreate,
	}

	list := &cobra.Command{
		Use:   "list <workspace-id>",
		Short: "List a workspace's open invitations",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runInviteList,
	}

	del := &cobra.Command{
		Use:   "delete <code>",
		Short: "Revoke an invitation",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runInviteDelete,
	}

	send := &cobra.Command{
		Use:   "send <workspace-id> <email>",
		Short: "Create an invitation and email it",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runInviteSend,
	}

	cmd.AddCommand(create, list, del, send)
	return cmd
}

func (a *app) runInviteCreate(cmd *cobra.Command, args []string) error {
	inv, err := a.rt.svc.CreateInvitation(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Invitation code: %s\nShare it and redeem with: toman join %s\n", inv.Code, inv.Code)
	return nil
}

func (a *app) runInviteList(cmd *cobra.Command, args []string) error {
	invs, err := a.rt.svc.ListInvitations(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(invs))
	for _, inv := range invs {
		created := "-"
		if !inv.CreatedAt.IsZero() {
			created = inv.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{inv.Code, created})
	}
	printTable(cmd.OutOrStdout(), []string{"CODE", "CREATED"}, rows)
	return nil
}

func (a *app) runInviteDelete(cmd *cobra.Command, args []string) error {
	if err := a.rt.svc.DeleteInvitation(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s\n", args[0])
	return nil
}

func (a *app) runInviteSend(cmd *cobra.Command, args []string) error {
	inv, err := a.rt.svc.SendInvitation(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to %s\n", inv.Code, args[1])
	return nil
}

func (a *app) joinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a workspace with an invitation code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.rt.svc.RedeemInvitation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s := a.rt.localStore(); s != nil {
				if err := s.TouchWorkspace(ws.ID, ws.Name); err != nil {
					a.rt.log.WithError(err).Debug("recording recent workspace")
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Joined %q (%s)\n", ws.Name, ws.ID)
			return nil
		},
	}
}
