package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/service"
)

func (a *app) workspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Browse and manage workspaces",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the workspaces you belong to",
		Args:  cobra.NoArgs,
		RunE:  a.runWorkspaceList,
	}

	show := &cobra.Command{
		Use:   "show <workspace-id>",
		Short: "Show a workspace with its members and project progress",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runWorkspaceShow,
	}

	public := &cobra.Command{
		Use:   "public",
		Short: "List public workspaces you have not joined",
		Args:  cobra.NoArgs,
		RunE:  a.runWorkspacePublic,
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace you own",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runWorkspaceCreate,
	}
	create.Flags().String("description", "", "workspace description")
	create.Flags().Bool("public", false, "make the workspace public")
	create.Flags().String("avatar", "", "avatar image URL")

	transfer := &cobra.Command{
		Use:   "transfer <workspace-id> <user-id>",
		Short: "Hand ownership to another member",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runWorkspaceTransfer,
	}

	removeMember := &cobra.Command{
		Use:   "remove-member <workspace-id> <user-id>",
		Short: "Remove a member from a workspace",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runWorkspaceRemoveMember,
	}

	del := &cobra.Command{
		Use:   "delete <workspace-id>",
		Short: "Delete an empty workspace",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runWorkspaceDelete,
	}
	del.Flags().String("confirm", "", "the workspace name, typed to confirm")
	_ = del.MarkFlagRequired("confirm")

	cmd.AddCommand(list, show, public, create, transfer, removeMember, del)
	return cmd
}

func (a *app) runWorkspaceList(cmd *cobra.Command, args []string) error {
	dash, err := a.rt.asm.LoadDashboard(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(dash.Workspaces))
	for _, ws := range dash.Workspaces {
		rows = append(rows, []string{
			ws.ID,
			ws.Name,
			string(ws.Visibility),
			strconv.Itoa(len(ws.ProjectIDs)),
			strconv.Itoa(len(ws.Members)),
		})
	}
	printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "VISIBILITY", "PROJECTS", "MEMBERS"}, rows)
	return nil
}

func (a *app) runWorkspaceShow(cmd *cobra.Command, args []string) error {
	view, err := a.rt.asm.LoadWorkspaceView(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if s := a.rt.localStore(); s != nil {
		if err := s.TouchWorkspace(view.Workspace.ID, view.Workspace.Name); err != nil {
			a.rt.log.WithError(err).Debug("recording recent workspace")
		}
	}

	out := cmd.OutOrStdout()
	ws := view.Workspace
	fmt.Fprintf(out, "%s (%s)\n", ws.Name, ws.Visibility)
	if ws.Description != "" {
		fmt.Fprintln(out, ws.Description)
	}
	fmt.Fprintln(out)

	members := make([]string, 0, len(view.Members))
	for _, m := range view.Members {
		name := m.Name
		if m.ID == ws.OwnerID {
			name += " (owner)"
		}
		members = append(members, name)
	}
	fmt.Fprintf(out, "Members: %s\n\n", strings.Join(members, ", "))

	rows := make([][]string, 0, len(view.Projects))
	for _, p := range view.Projects {
		rows = append(rows, []string{
			p.Project.ID,
			p.Project.Name,
			string(p.Status),
			fmt.Sprintf("%d%%", p.Progress),
			strconv.Itoa(len(p.Project.TaskIDs)),
		})
	}
	printTable(out, []string{"ID", "PROJECT", "STATUS", "PROGRESS", "TASKS"}, rows)
	return nil
}

func (a *app) runWorkspacePublic(cmd *cobra.Command, args []string) error {
	all, err := a.rt.asm.PublicWorkspaces(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(all))
	for _, ws := range all {
		rows = append(rows, []string{ws.ID, ws.Name, orDash(ws.Description), strconv.Itoa(len(ws.Members))})
	}
	printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "DESCRIPTION", "MEMBERS"}, rows)
	return nil
}

func (a *app) runWorkspaceCreate(cmd *cobra.Command, args []string) error {
	desc, _ := cmd.Flags().GetString("description")
	public, _ := cmd.Flags().GetBool("public")
	avatar, _ := cmd.Flags().GetString("avatar")

	form := service.WorkspaceForm{Name: args[0], Description: desc, Avatar: avatar}
	if public {
		form.Visibility = models.VisibilityPublic
	}
	ws, err := a.rt.svc.CreateWorkspace(cmd.Context(), form)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created workspace %q (%s)\n", ws.Name, ws.ID)
	return nil
}

func (a *app) runWorkspaceTransfer(cmd *cobra.Command, args []string) error {
	if err := a.rt.svc.TransferOwnership(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ownership of %s transferred to %s\n", args[0], args[1])
	return nil
}

func (a *app) runWorkspaceRemoveMember(cmd *cobra.Command, args []string) error {
	ws, err := a.rt.svc.RemoveWorkspaceMember(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %q\n", args[1], ws.Name)
	return nil
}

func (a *app) runWorkspaceDelete(cmd *cobra.Command, args []string) error {
	confirm, _ := cmd.Flags().GetString("confirm")
	if err := a.rt.svc.DeleteWorkspace(cmd.Context(), args[0], confirm); err != nil {
		return err
	}
	if s := a.rt.localStore(); s != nil {
		if err := s.ForgetWorkspace(args[0]); err != nil {
			a.rt.log.WithError(err).Debug("forgetting recent workspace")
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted workspace %s\n", args[0])
	return nil
}
