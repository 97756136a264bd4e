package cli

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/opsboard/pkg/auth"
	"github.com/harrisonrobin/opsboard/pkg/config"
	"github.com/harrisonrobin/opsboard/pkg/ingest"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/harrisonrobin/opsboard/pkg/normalize"
	"github.com/spf13/cobra"
)

func (a *app) authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google Sheets, replacing any saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := auth.Reset(); err != nil {
				return err
			}
			if _, err := auth.GetSheetsService(cmd.Context()); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			path, _ := auth.TokenPath()
			a.log.Info("authentication successful", "token", path)
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config file:            %s\n", path)
			fmt.Fprintf(out, "backend:                %s\n", a.cfg.Backend)
			fmt.Fprintf(out, "database_path:          %s\n", a.cfg.DatabasePath)
			fmt.Fprintf(out, "spreadsheet_id:         %s\n", a.cfg.SpreadsheetID)
			fmt.Fprintf(out, "default_rate:           %s\n", a.cfg.DefaultRate)
			fmt.Fprintf(out, "default_payment_status: %s\n", a.cfg.DefaultPaymentStatus)
			return nil
		},
	}
	cmd.AddCommand(
		a.setCmd("set-default-rate <amount>", "Set the rate used when a row has none", func(v string) (string, error) {
			d, ok := normalize.ParseAmount(v)
			if !ok || !d.IsPositive() {
				return "", fmt.Errorf("default rate must be a positive amount, got %q", v)
			}
			a.cfg.DefaultRate = d.String()
			return a.cfg.DefaultRate, nil
		}),
		a.setCmd("set-payment-status <status>", "Set the payment status used when a row has none", func(v string) (string, error) {
			ps, ok := normalize.ParsePaymentStatus(v)
			if !ok {
				return "", fmt.Errorf("unknown payment status %q (want %s, %s or %s)", v, model.Unpaid, model.Paid, model.PartiallyPaid)
			}
			a.cfg.DefaultPaymentStatus = string(ps)
			return a.cfg.DefaultPaymentStatus, nil
		}),
		a.setCmd("set-backend <sqlite|sheets>", "Choose where committed tasks are stored", func(v string) (string, error) {
			a.cfg.Backend = strings.ToLower(strings.TrimSpace(v))
			return a.cfg.Backend, nil
		}),
		a.setCmd("set-spreadsheet <id>", "Set the Google Sheets spreadsheet id", func(v string) (string, error) {
			a.cfg.SpreadsheetID = strings.TrimSpace(v)
			return a.cfg.SpreadsheetID, nil
		}),
	)
	return cmd
}

func (a *app) setCmd(use, short string, apply func(string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := apply(args[0])
			if err != nil {
				return err
			}
			if err := config.Save(a.cfg); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set to: %s\n", strings.Fields(use)[0][len("set-"):], v)
			return nil
		},
	}
}

func (a *app) sampleCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print a sample import file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ingest.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == ingest.FormatJSON {
				fmt.Fprint(cmd.OutOrStdout(), ingest.SampleJSON())
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), ingest.SampleCSV())
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "sample format: csv or json")
	return cmd
}
