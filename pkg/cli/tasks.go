package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect committed tasks",
	}

	var clientID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List committed tasks by serial number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := a.openBackend(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			if clientID != "" {
				if _, err := store.GetClient(cmd.Context(), clientID); err != nil {
					return err
				}
			}
			tasks, err := store.ListTasks(cmd.Context(), clientID)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks yet.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTasks(tasks))
			fmt.Fprintln(cmd.OutOrStdout(), summaryStyle.Render(fmt.Sprintf("%d task(s)", len(tasks))))
			return nil
		},
	}
	list.Flags().StringVar(&clientID, "client", "", "only tasks of this client id")

	cmd.AddCommand(list)
	return cmd
}
