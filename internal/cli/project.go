package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/board"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/service"
)

const dateLayout = "2006-01-02"

func (a *app) projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Browse and manage projects",
	}

	show := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's board, members and your role",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runProjectShow,
	}

	create := &cobra.Command{
		Use:   "create <workspace-id> <name>",
		Short: "Create a project in a workspace",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runProjectCreate,
	}
	create.Flags().String("description", "", "project description")
	create.Flags().String("color", "", "hex color, e.g. #6B46C1")
	create.Flags().String("start", "", "start date (YYYY-MM-DD, default today)")
	create.Flags().String("end", "", "end date (YYYY-MM-DD)")
	create.Flags().StringSlice("member", nil, "member as <user-id>:<role>; you are added as Admin when omitted")
	_ = create.MarkFlagRequired("end")

	addMember := &cobra.Command{
		Use:   "add-member <workspace-id> <project-id> <user-id> <role>",
		Short: "Add a workspace member to a project",
		Args:  cobra.ExactArgs(4),
		RunE:  a.runProjectAddMember,
	}

	setRole := &cobra.Command{
		Use:   "set-role <project-id> <user-id> <role>",
		Short: "Change a member's role",
		Args:  cobra.ExactArgs(3),
		RunE:  a.runProjectSetRole,
	}

	removeMember := &cobra.Command{
		Use:   "remove-member <project-id> <user-id>",
		Short: "Remove a member from a project",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runProjectRemoveMember,
	}

	del := &cobra.Command{
		Use:   "delete <workspace-id> <project-id>",
		Short: "Delete a project without tasks",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runProjectDelete,
	}

	cmd.AddCommand(show, create, addMember, setRole, removeMember, del)
	return cmd
}

func (a *app) runProjectShow(cmd *cobra.Command, args []string) error {
	view, err := a.rt.asm.LoadProjectView(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	b := board.FromView(view, a.actor(), a.rt.boardDeps())

	out := cmd.OutOrStdout()
	p := view.Project
	fmt.Fprintf(out, "%s  (your role: %s)\n", p.Name, view.ActorRole)
	if p.Description != "" {
		fmt.Fprintln(out, p.Description)
	}
	if !p.StartDate.IsZero() || !p.EndDate.IsZero() {
		fmt.Fprintf(out, "%s to %s\n", p.StartDate.Format(dateLayout), p.EndDate.Format(dateLayout))
	}

	members := make([]string, 0, len(view.Members))
	for _, m := range view.Members {
		members = append(members, fmt.Sprintf("%s (%s)", m.Name, m.Role))
	}
	fmt.Fprintf(out, "Members: %s\n\n", strings.Join(members, ", "))

	counts := b.Counts()
	var rows [][]string
	for _, s := range models.Statuses {
		for _, t := range b.Column(s) {
			rows = append(rows, []string{string(s), t.ID, t.Name, string(t.Priority), orDash(t.AssigneeName), deadline(t)})
		}
	}
	printTable(out, []string{"STATUS", "ID", "TASK", "PRIORITY", "ASSIGNEE", "DEADLINE"}, rows)
	fmt.Fprintf(out, "ToDo %d • InProgress %d • Review %d • Done %d\n",
		counts[models.StatusToDo], counts[models.StatusInProgress], counts[models.StatusReview], counts[models.StatusDone])
	return nil
}

func (a *app) runProjectCreate(cmd *cobra.Command, args []string) error {
	desc, _ := cmd.Flags().GetString("description")
	color, _ := cmd.Flags().GetString("color")
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")
	memberFlags, _ := cmd.Flags().GetStringSlice("member")

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if startFlag != "" {
		d, err := parseDate("start", startFlag)
		if err != nil {
			return err
		}
		start = d
	}
	end, err := parseDate("end", endFlag)
	if err != nil {
		return err
	}

	var members []models.Member
	for _, f := range memberFlags {
		m, err := parseMember(f)
		if err != nil {
			return err
		}
		members = append(members, m)
	}
	if len(members) == 0 {
		members = []models.Member{{ID: a.actor().ID, Role: models.RoleAdmin}}
	}

	form := service.ProjectForm{
		Name:        args[1],
		Description: desc,
		Color:       color,
		StartDate:   start,
		EndDate:     end,
	}
	p, err := a.rt.svc.CreateProject(cmd.Context(), args[0], form, members)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project %q (%s)\n", p.Name, p.ID)
	return nil
}

func (a *app) runProjectAddMember(cmd *cobra.Command, args []string) error {
	role, err := parseRole(args[3])
	if err != nil {
		return err
	}
	p, err := a.rt.svc.AddProjectMember(cmd.Context(), args[0], args[1], models.Member{ID: args[2], Role: role})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %q as %s\n", args[2], p.Name, role)
	return nil
}

func (a *app) runProjectSetRole(cmd *cobra.Command, args []string) error {
	role, err := parseRole(args[2])
	if err != nil {
		return err
	}
	p, err := a.rt.svc.ChangeMemberRole(cmd.Context(), args[0], args[1], role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s on %q\n", args[1], role, p.Name)
	return nil
}

func (a *app) runProjectRemoveMember(cmd *cobra.Command, args []string) error {
	p, err := a.rt.svc.RemoveProjectMember(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %q\n", args[1], p.Name)
	return nil
}

func (a *app) runProjectDelete(cmd *cobra.Command, args []string) error {
	if err := a.rt.svc.DeleteProject(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[1])
	return nil
}

// actor is the signed-in user, or the zero user when there is no session
func (a *app) actor() models.User {
	u, err := a.rt.sess.Current()
	if err != nil {
		return models.User{}
	}
	return u
}

func parseDate(field, v string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, apperr.InvalidFields(map[string]string{field: "must be a date like 2025-01-31."})
	}
	return d, nil
}

func parseRole(v string) (models.Role, error) {
	for _, r := range []models.Role{models.RoleAdmin, models.RoleContributor, models.RoleViewer} {
		if strings.EqualFold(v, string(r)) {
			return r, nil
		}
	}
	return "", apperr.Invalid("unknown role %q, use Admin, Contributor or Viewer", v)
}

func parseMember(v string) (models.Member, error) {
	id, role, ok := strings.Cut(v, ":")
	if !ok || strings.TrimSpace(id) == "" {
		return models.Member{}, apperr.Invalid("member %q must look like <user-id>:<role>", v)
	}
	r, err := parseRole(role)
	if err != nil {
		return models.Member{}, err
	}
	return models.Member{ID: strings.TrimSpace(id), Role: r}, nil
}
