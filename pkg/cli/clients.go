package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/spf13/cobra"
)

func (a *app) clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage the clients tasks are imported under",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := a.openBackend(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			clients, err := store.ListClients(cmd.Context())
			if err != nil {
				return err
			}
			if len(clients) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clients yet. Add one with 'opsboard clients add --name <name>'.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderClients(clients))
			return nil
		},
	}

	var name, email string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}
			store, closeFn, err := a.openBackend(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			c := &model.Client{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
			if err := store.CreateClient(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added client %s (%s)\n", c.Name, c.ID)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "client name")
	add.Flags().StringVar(&email, "email", "", "client email")

	cmd.AddCommand(list, add)
	return cmd
}
