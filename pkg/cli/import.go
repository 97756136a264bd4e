package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/harrisonrobin/opsboard/pkg/commit"
	"github.com/harrisonrobin/opsboard/pkg/ingest"
	"github.com/harrisonrobin/opsboard/pkg/ledger"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/harrisonrobin/opsboard/pkg/normalize"
	"github.com/harrisonrobin/opsboard/pkg/review"
	"github.com/spf13/cobra"
)

const commitLockWait = 10 * time.Second

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Stage, review and commit a task spreadsheet",
	}
	cmd.AddCommand(
		a.previewCmd(),
		a.sessionCmd("list", "Show the staged records", cobra.NoArgs, func(*review.Session, []string) error { return nil }),
		a.sessionCmd("select <id>...", "Select records for commit", cobra.MinimumNArgs(1), func(s *review.Session, args []string) error {
			return eachID(s, args, func(id string) error { return s.SetSelected(id, true) })
		}),
		a.sessionCmd("deselect <id>...", "Exclude records from commit", cobra.MinimumNArgs(1), func(s *review.Session, args []string) error {
			return eachID(s, args, func(id string) error { return s.SetSelected(id, false) })
		}),
		a.sessionCmd("toggle <id>", "Flip a record's selection", cobra.ExactArgs(1), func(s *review.Session, args []string) error {
			return eachID(s, args, s.ToggleSelection)
		}),
		a.sessionCmd("select-all", "Select every staged record", cobra.NoArgs, func(s *review.Session, _ []string) error {
			s.SelectAll()
			return nil
		}),
		a.sessionCmd("deselect-all", "Clear the selection", cobra.NoArgs, func(s *review.Session, _ []string) error {
			s.DeselectAll()
			return nil
		}),
		a.sessionCmd("select-valid", "Select exactly the valid records", cobra.NoArgs, func(s *review.Session, _ []string) error {
			s.SelectValid()
			return nil
		}),
		a.sessionCmd("remove <id>...", "Drop records from the session", cobra.MinimumNArgs(1), func(s *review.Session, args []string) error {
			return eachID(s, args, s.Remove)
		}),
		a.showCmd(),
		a.editCmd(),
		a.pickCmd(),
		a.resetCmd(),
		a.commitCmd(),
	)
	return cmd
}

func (a *app) defaults(rate, paymentStatus string) (normalize.Defaults, error) {
	d := normalize.Defaults{PaymentStatus: model.Unpaid}
	r, err := a.cfg.Rate()
	if err != nil {
		return d, err
	}
	d.Rate = r
	if ps, ok := normalize.ParsePaymentStatus(a.cfg.DefaultPaymentStatus); ok {
		d.PaymentStatus = ps
	}
	if rate != "" {
		r, ok := normalize.ParseAmount(rate)
		if !ok || !r.IsPositive() {
			return d, fmt.Errorf("--rate must be a positive amount, got %q", rate)
		}
		d.Rate = r
	}
	if paymentStatus != "" {
		ps, ok := normalize.ParsePaymentStatus(paymentStatus)
		if !ok {
			return d, fmt.Errorf("unknown payment status %q", paymentStatus)
		}
		d.PaymentStatus = ps
	}
	return d, nil
}

func (a *app) previewCmd() *cobra.Command {
	var format, rate, paymentStatus string
	var appendTo bool
	cmd := &cobra.Command{
		Use:   "preview <file|->",
		Short: "Parse and normalize a file into the review session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ingest.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == ingest.FormatAuto {
				f = ingest.FormatForPath(args[0])
			}
			text, err := ingest.ReadFile(args[0])
			if err != nil {
				return err
			}

			d, err := a.defaults(rate, paymentStatus)
			if err != nil {
				return err
			}
			// The saved session is not touched until the input has parsed.
			results, err := ingest.Preview(text, f, d, a.now())
			if err != nil {
				return err
			}

			var session *review.Session
			if appendTo {
				session, err = review.Load(a.cfg.SessionPath)
				if err != nil && !errors.Is(err, review.ErrNoSession) {
					return err
				}
			}
			if session == nil {
				session = review.NewSession(d)
				session.Path = a.cfg.SessionPath
			} else {
				session.SetDefaults(d)
			}

			staged := session.Stage(results)
			invalid := 0
			for _, r := range staged {
				if !r.IsValid {
					invalid++
				}
			}
			a.log.Info("staged import", "file", args[0], "records", len(staged), "invalid", invalid)
			if session.Len() == 0 {
				if err := review.Discard(a.cfg.SessionPath); err != nil {
					return err
				}
			} else if err := session.Save(); err != nil {
				return fmt.Errorf("failed to save review session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSession(session))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "auto", "input format: csv, json or auto")
	cmd.Flags().StringVar(&rate, "rate", "", "rate for rows without one (overrides config)")
	cmd.Flags().StringVar(&paymentStatus, "payment-status", "", "payment status for rows without one (overrides config)")
	cmd.Flags().BoolVar(&appendTo, "append", false, "add to the current session instead of replacing it")
	return cmd
}

// sessionCmd builds a command that loads the session, applies fn, saves and
// prints the result.
func (a *app) sessionCmd(use, short string, args cobra.PositionalArgs, fn func(*review.Session, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := review.Load(a.cfg.SessionPath)
			if err != nil {
				return err
			}
			if err := fn(session, args); err != nil {
				return err
			}
			if err := session.Save(); err != nil {
				return fmt.Errorf("failed to save review session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSession(session))
			return nil
		},
	}
}

// resolveID accepts a full id, a unique id prefix or a row number.
func resolveID(s *review.Session, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		for _, r := range s.Records {
			if r.OriginalIndex+1 == n {
				return r.ID, nil
			}
		}
		return "", fmt.Errorf("%w: row %d", review.ErrRecordNotFound, n)
	}
	var match string
	for _, r := range s.Records {
		if r.ID == ref {
			return r.ID, nil
		}
		if ref != "" && strings.HasPrefix(r.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", ref)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", review.ErrRecordNotFound, ref)
	}
	return match, nil
}

func eachID(s *review.Session, refs []string, fn func(id string) error) error {
	for _, ref := range refs {
		id, err := resolveID(s, ref)
		if err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a staged record with its source cells and unmapped columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := review.Load(a.cfg.SessionPath)
			if err != nil {
				return err
			}
			id, err := resolveID(session, args[0])
			if err != nil {
				return err
			}
			rec, err := session.Get(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRecord(rec))
			return nil
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	var (
		name, pages, rate, work, payment, notes, accepted, due string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Correct fields of a staged record",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		session, err := review.Load(a.cfg.SessionPath)
		if err != nil {
			return err
		}
		id, err := resolveID(session, args[0])
		if err != nil {
			return err
		}
		p, err := buildPatch(cmd, name, pages, rate, work, payment, notes, accepted, due)
		if err != nil {
			return err
		}
		if err := session.Update(id, p); err != nil {
			return err
		}
		if err := session.Save(); err != nil {
			return fmt.Errorf("failed to save review session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSession(session))
		return nil
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "project name")
	f.StringVar(&pages, "pages", "", "page count")
	f.StringVar(&rate, "rate", "", "rate per page")
	f.StringVar(&work, "work-status", "", "work status")
	f.StringVar(&payment, "payment-status", "", "payment status")
	f.StringVar(&notes, "notes", "", "notes")
	f.StringVar(&accepted, "accepted", "", "accepted date")
	f.StringVar(&due, "due", "", "submission date")
	return cmd
}

// buildPatch turns the flags the operator actually passed into a Patch.
// Values go through the same parsers as imported cells.
func buildPatch(cmd *cobra.Command, name, pages, rate, work, payment, notes, accepted, due string) (review.Patch, error) {
	var p review.Patch
	changed := cmd.Flags().Changed
	if changed("name") {
		v := strings.TrimSpace(name)
		p.ProjectName = &v
	}
	if changed("pages") {
		n, err := strconv.Atoi(strings.TrimSpace(pages))
		if err != nil {
			return p, fmt.Errorf("--pages must be a whole number, got %q", pages)
		}
		p.Pages = &n
	}
	if changed("rate") {
		r, ok := normalize.ParseAmount(rate)
		if !ok {
			return p, fmt.Errorf("--rate must be an amount, got %q", rate)
		}
		p.Rate = &r
	}
	if changed("work-status") {
		ws, ok := normalize.ParseWorkStatus(work)
		if !ok {
			return p, fmt.Errorf("unknown work status %q", work)
		}
		p.WorkStatus = &ws
	}
	if changed("payment-status") {
		ps, ok := normalize.ParsePaymentStatus(payment)
		if !ok {
			return p, fmt.Errorf("unknown payment status %q", payment)
		}
		p.PaymentStatus = &ps
	}
	if changed("notes") {
		p.Notes = &notes
	}
	if changed("accepted") {
		d, ok := normalize.ParseDate(accepted)
		if !ok {
			return p, fmt.Errorf("unrecognized date %q", accepted)
		}
		p.AcceptedDate = &d
	}
	if changed("due") {
		d, ok := normalize.ParseDate(due)
		if !ok {
			return p, fmt.Errorf("unrecognized date %q", due)
		}
		p.SubmissionDate = &d
	}
	if p == (review.Patch{}) {
		return p, errors.New("nothing to change; pass at least one field flag")
	}
	return p, nil
}

func (a *app) pickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose the records to commit interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := review.Load(a.cfg.SessionPath)
			if err != nil {
				return err
			}
			recs := session.All()
			if len(recs) == 0 {
				return errors.New("the review session is empty")
			}
			options := make([]huh.Option[string], len(recs))
			for i, r := range recs {
				label := fmt.Sprintf("#%d %s (%d pages @ %s)", r.OriginalIndex+1, r.ProjectName, r.Pages, r.Rate.StringFixed(2))
				if !r.IsValid {
					label += " ! " + r.Reason
				}
				options[i] = huh.NewOption(label, r.ID).Selected(r.Selected)
			}
			var chosen []string
			field := huh.NewMultiSelect[string]().
				Title("Records to import").
				Description("space toggles, enter confirms").
				Options(options...).
				Value(&chosen)
			if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
				return err
			}

			want := make(map[string]bool, len(chosen))
			for _, id := range chosen {
				want[id] = true
			}
			for _, r := range recs {
				if err := session.SetSelected(r.ID, want[r.ID]); err != nil {
					return err
				}
			}
			if err := session.Save(); err != nil {
				return fmt.Errorf("failed to save review session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSession(session))
			return nil
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the review session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := review.Discard(a.cfg.SessionPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Review session discarded.")
			return nil
		},
	}
}

func (a *app) commitCmd() *cobra.Command {
	var clientID string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Write the selected records as tasks under a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := review.Load(a.cfg.SessionPath)
			if err != nil {
				return err
			}
			store, closeFn, err := a.openBackend(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			opts := []commit.Option{commit.WithLock(a.cfg.LockPath, commitLockWait), commit.WithClock(a.now)}
			if l, err := ledger.Open(a.cfg.LedgerPath); err != nil {
				a.log.Warn("import ledger unavailable, duplicate warnings disabled", "err", err)
			} else {
				opts = append(opts, commit.WithLedger(l))
			}
			engine := commit.NewEngine(store, opts...)

			selected := session.Selected()
			res, err := engine.Commit(ctx, clientID, selected)
			if res != nil {
				// Written records leave the session so a retry cannot repeat them.
				for _, rec := range selected[:res.Committed] {
					if rmErr := session.Remove(rec.ID); rmErr != nil {
						return rmErr
					}
				}
				if session.Len() == 0 {
					if rmErr := review.Discard(a.cfg.SessionPath); rmErr != nil {
						return rmErr
					}
				} else if saveErr := session.Save(); saveErr != nil {
					a.log.Error("failed to save review session", "err", saveErr)
				}
			}
			if err != nil {
				var recErr *commit.RecordError
				if errors.As(err, &recErr) && res != nil {
					return fmt.Errorf("%d task(s) written before failure, %d left in the session: %w", res.Committed, session.Len(), err)
				}
				return err
			}

			first, last := res.Tasks[0].SlNo, res.Tasks[len(res.Tasks)-1].SlNo
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s) as Sl No %d-%d.\n", res.Committed, first, last)
			return nil
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "id of the client the tasks belong to")
	return cmd
}
