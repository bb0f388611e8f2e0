package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskview/internal/store"
	"taskview/internal/task"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.call(cmd.Context(), task.ActionHydrate, "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(st.Tasks) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No tasks yet."))
				return nil
			}
			for _, t := range st.Tasks {
				fmt.Fprintf(out, "%s  %s\n", mutedStyle.Render(fmt.Sprintf("#%d", t.ID)), t.Title)
			}
			return nil
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			title := strings.Join(args, " ")
			if _, err := a.call(cmd.Context(), task.ActionAdd, title); err != nil {
				return err
			}
			if title == "" {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("nothing to add"))
				return nil
			}
			ok(cmd.OutOrStdout(), "added: "+title)
			return nil
		},
	}
}

func newRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := task.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireTask(cmd, a, id); err != nil {
				return err
			}
			if _, err := a.call(cmd.Context(), task.ActionDelete, "", id); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), fmt.Sprintf("deleted task %d", id))
			return nil
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title...>",
		Short: "Rename a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := task.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := requireTask(cmd, a, id); err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			if _, err := a.call(cmd.Context(), task.ActionUpdate, title, id); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), fmt.Sprintf("updated task %d: %s", id, title))
			return nil
		},
	}
}

// requireTask turns the component's silent miss into store.ErrNotFound so the
// command can report it.
func requireTask(cmd *cobra.Command, a *app, id int64) error {
	_, found, err := a.store.GetTask(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("task %d: %w", id, store.ErrNotFound)
	}
	return nil
}
