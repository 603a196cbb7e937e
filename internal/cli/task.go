package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/board"
	"github.com/tgienger/toman/internal/models"
	"github.com/tgienger/toman/internal/service"
)

func (a *app) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Move, assign and manage tasks",
	}

	move := &cobra.Command{
		Use:   "move <task-id> <status>",
		Short: "Move a task to ToDo, InProgress, Review or Done",
		Long: `Move a task to another column. Viewers cannot move tasks and only
Admins can approve a task from Review to Done.`,
		Args: cobra.ExactArgs(2),
		RunE: a.runTaskMove,
	}

	assign := &cobra.Command{
		Use:   "assign <task-id>",
		Short: "Take an unassigned task",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runTaskAssign,
	}

	unassign := &cobra.Command{
		Use:   "unassign <task-id>",
		Short: "Give back a task assigned to you",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runTaskUnassign,
	}

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List tasks assigned to you",
		Args:  cobra.NoArgs,
		RunE:  a.runTaskMine,
	}

	create := &cobra.Command{
		Use:   "create <project-id> <name>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runTaskCreate,
	}
	taskFlags(create)

	update := &cobra.Command{
		Use:   "update <project-id> <task-id>",
		Short: "Edit a task; flags left out keep their value",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runTaskUpdate,
	}
	taskFlags(update)
	update.Flags().String("name", "", "task name")

	del := &cobra.Command{
		Use:   "delete <project-id> <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runTaskDelete,
	}

	cmd.AddCommand(move, assign, unassign, mine, create, update, del)
	return cmd
}

func taskFlags(cmd *cobra.Command) {
	cmd.Flags().String("description", "", "task description")
	cmd.Flags().String("deadline", "", "deadline (YYYY-MM-DD)")
	cmd.Flags().String("priority", "", "Low, Medium, High or Critical")
	cmd.Flags().String("status", "", "ToDo, InProgress, Review or Done")
	cmd.Flags().String("assignee", "", "user id of the assignee")
}

// boardFor loads the board holding task id
func (a *app) boardFor(ctx context.Context, id string) (*board.Board, error) {
	t, err := a.rt.client.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.ProjectID == "" {
		return nil, apperr.Invalid("task %s does not belong to a project", id)
	}
	view, err := a.rt.asm.LoadProjectView(ctx, t.ProjectID)
	if err != nil {
		return nil, err
	}
	return board.FromView(view, a.actor(), a.rt.boardDeps()), nil
}

func (a *app) runTaskMove(cmd *cobra.Command, args []string) error {
	if _, err := a.rt.sess.Current(); err != nil {
		return err
	}
	target, err := parseStatus(args[1])
	if err != nil {
		return err
	}
	b, err := a.boardFor(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	before, _ := b.Task(args[0])
	t, err := b.Move(cmd.Context(), args[0], target)
	if err != nil {
		return err
	}
	if before.Status == t.Status {
		fmt.Fprintf(cmd.OutOrStdout(), "%q is already in %s\n", t.Name, t.Status)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %q from %s to %s\n", t.Name, before.Status, t.Status)
	return nil
}

func (a *app) runTaskAssign(cmd *cobra.Command, args []string) error {
	if _, err := a.rt.sess.Current(); err != nil {
		return err
	}
	b, err := a.boardFor(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	t, err := b.AssignToSelf(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%q is now assigned to you\n", t.Name)
	return nil
}

func (a *app) runTaskUnassign(cmd *cobra.Command, args []string) error {
	if err := a.rt.svc.Unassign(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Unassigned %s\n", args[0])
	return nil
}

func (a *app) runTaskMine(cmd *cobra.Command, args []string) error {
	tasks, err := a.rt.asm.MyTasks(cmd.Context())
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{t.ID, t.Name, string(t.Status), string(t.Priority), deadline(t)})
	}
	printTable(cmd.OutOrStdout(), []string{"ID", "TASK", "STATUS", "PRIORITY", "DEADLINE"}, rows)
	return nil
}

func (a *app) runTaskCreate(cmd *cobra.Command, args []string) error {
	form := service.TaskForm{Name: args[1]}
	if err := applyTaskFlags(cmd, &form); err != nil {
		return err
	}
	t, err := a.rt.svc.CreateTask(cmd.Context(), args[0], form)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %q (%s) in %s\n", t.Name, t.ID, t.Status)
	return nil
}

func (a *app) runTaskUpdate(cmd *cobra.Command, args []string) error {
	cur, err := a.rt.client.GetTask(cmd.Context(), args[1])
	if err != nil {
		return err
	}
	form := service.TaskForm{
		Name:        cur.Name,
		Description: cur.Description,
		Deadline:    cur.Deadline,
		Priority:    cur.Priority,
		AssignedTo:  cur.AssignedTo,
	}
	if cmd.Flags().Changed("name") {
		form.Name, _ = cmd.Flags().GetString("name")
	}
	if err := applyTaskFlags(cmd, &form); err != nil {
		return err
	}
	t, err := a.rt.svc.UpdateTask(cmd.Context(), args[0], args[1], form)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated task %q\n", t.Name)
	return nil
}

func (a *app) runTaskDelete(cmd *cobra.Command, args []string) error {
	if err := a.rt.svc.DeleteTask(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[1])
	return nil
}

// applyTaskFlags copies the flags the user set onto form
func applyTaskFlags(cmd *cobra.Command, form *service.TaskForm) error {
	f := cmd.Flags()
	if f.Changed("description") {
		form.Description, _ = f.GetString("description")
	}
	if f.Changed("assignee") {
		form.AssignedTo, _ = f.GetString("assignee")
	}
	if f.Changed("deadline") {
		v, _ := f.GetString("deadline")
		if strings.TrimSpace(v) == "" {
			form.Deadline = time.Time{}
		} else {
			d, err := parseDate("deadline", v)
			if err != nil {
				return err
			}
			form.Deadline = d
		}
	}
	if f.Changed("priority") {
		v, _ := f.GetString("priority")
		p, err := parsePriority(v)
		if err != nil {
			return err
		}
		form.Priority = p
	}
	if f.Changed("status") {
		v, _ := f.GetString("status")
		s, err := parseStatus(v)
		if err != nil {
			return err
		}
		form.Status = s
	}
	return nil
}

// parseStatus accepts the wire names case-insensitively, with or without
// separators, e.g. "in-progress"
func parseStatus(v string) (models.Status, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(v)
	for _, s := range models.Statuses {
		if strings.EqualFold(norm, string(s)) {
			return s, nil
		}
	}
	return "", apperr.Invalid("unknown status %q, use ToDo, InProgress, Review or Done", v)
}

func parsePriority(v string) (models.Priority, error) {
	for _, p := range []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical} {
		if strings.EqualFold(v, string(p)) {
			return p, nil
		}
	}
	return "", apperr.Invalid("unknown priority %q, use Low, Medium, High or Critical", v)
}
