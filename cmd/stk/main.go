package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	cl "studiosim/internal/cli"
	"studiosim/internal/config"
	"studiosim/internal/sim"
	"studiosim/internal/syncq"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "stk",
		Short:        "Game studio tycoon client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newNewCmd(&apiBase),
		newForgetCmd(),
		newStatusCmd(&apiBase),
		newHistoryCmd(&apiBase),
		newNextCmd(&apiBase),
		newHireCmd(&apiBase),
		newTrainCmd(&apiBase),
		newVacationCmd(&apiBase),
		newSpecialistCmd(&apiBase),
		newProjectCmd(&apiBase),
		newResearchCmd(&apiBase),
		newEngineCmd(&apiBase),
		newFranchiseCmd(&apiBase),
		newUpgradeCmd(&apiBase),
		newMarketingCmd(&apiBase),
		newDelegateCmd(&apiBase),
		newResetCmd(&apiBase),
		newWatchCmd(&apiBase),
		newDashCmd(&apiBase),
		newSyncCmd(&apiBase),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requireSession() (cl.Session, error) {
	sess, err := cl.LoadSession()
	if err != nil {
		return cl.Session{}, fmt.Errorf("studio required: %w", err)
	}
	return sess, nil
}

// send performs one write. A network failure queues the command for
// `stk sync` and reports queued=true instead of an error.
func send(cmd *cobra.Command, apiBase *string, sess cl.Session, q syncq.Command) (cl.Outcome, bool, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	out, err := newClient(apiBase).Send(ctx, sess.Key, q)
	if err == nil {
		return out, false, nil
	}
	if err := queueOnNetworkError(err, q); err != nil {
		return cl.Outcome{}, false, err
	}
	printWarn(fmt.Sprintf("API unreachable; queued %q. Run `stk sync` when back online.", q.Label))
	return cl.Outcome{}, true, nil
}

// sendAndNotify runs a simple command and prints the studio's notice.
func sendAndNotify(cmd *cobra.Command, apiBase *string, build func(sess cl.Session) syncq.Command) error {
	sess, err := requireSession()
	if err != nil {
		return err
	}
	out, queued, err := send(cmd, apiBase, sess, build(sess))
	if err != nil || queued {
		return err
	}
	if out.Notice != "" {
		printSuccess(out.Notice)
	} else {
		printSuccess("Done.")
	}
	return nil
}

func newNewCmd(apiBase *string) *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "new [name]",
		Short: "Found a new studio and save its key locally",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if existing, err := cl.LoadSession(); err == nil && !force {
				return fmt.Errorf("this terminal already plays %q; use --force to replace it", existing.Name)
			}
			var name string
			if len(args) > 0 {
				name = strings.TrimSpace(args[0])
			} else {
				var err error
				if name, err = promptRequired("Studio name"); err != nil {
					return err
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			created, err := newClient(apiBase).CreateCompany(ctx, name)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{
				CompanyID: created.ID,
				Name:      created.Company.Name,
				Key:       created.Key,
			}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s is open for business with %s.", created.Company.Name, formatMoney(created.Company.Funds)))
			printInfo(fmt.Sprintf("Studio id:  %s", created.ID))
			printWarn(fmt.Sprintf("Studio key: %s (shown once, saved to the local session)", created.Key))
			return nil
		},
	}
	c.Flags().BoolVar(&force, "force", false, "replace the saved studio session")
	return c
}

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Remove the saved studio session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Session cleared.")
			return nil
		},
	}
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the studio",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			view, err := newClient(apiBase).Company(ctx, sess)
			if err != nil {
				return err
			}
			renderStatus(view)
			if pending, err := syncq.Pending(sess.CompanyID); err == nil && len(pending) > 0 {
				printWarn(fmt.Sprintf("%d queued command(s) waiting for `stk sync`.", len(pending)))
			}
			return nil
		},
	}
}

func newHistoryCmd(apiBase *string) *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "history",
		Short: "Show the monthly funds history",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			points, err := newClient(apiBase).History(ctx, sess, limit)
			if err != nil {
				return err
			}
			renderHistory(points)
			return nil
		},
	}
	c.Flags().IntVar(&limit, "limit", 24, "most recent months to show")
	return c
}

func newNextCmd(apiBase *string) *cobra.Command {
	var months int
	c := &cobra.Command{
		Use:   "next",
		Short: "Advance one or more months",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			for i := 0; i < max(1, months); i++ {
				out, queued, err := send(cmd, apiBase, sess, cl.AdvanceCmd(sess.CompanyID))
				if err != nil || queued {
					return err
				}
				rep, _ := out.Tick()
				renderTick(rep, out.Company.Funds)
				if rep.GameOver {
					return nil
				}
			}
			return nil
		},
	}
	c.Flags().IntVarP(&months, "months", "m", 1, "months to advance")
	return c
}

func newHireCmd(apiBase *string) *cobra.Command {
	var count int
	c := &cobra.Command{
		Use:   "hire",
		Short: "List job candidates and hire one",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			cands, err := newClient(apiBase).Candidates(ctx, sess, count)
			if err != nil {
				return err
			}
			if len(cands) == 0 {
				printInfo("Nobody is looking for work right now.")
				return nil
			}
			renderCandidates(cands)
			idx, ok, err := promptPick("Hire", len(cands))
			if err != nil || !ok {
				return err
			}
			out, queued, err := send(cmd, apiBase, sess, cl.HireCmd(sess.CompanyID, cands[idx]))
			if err != nil || queued {
				return err
			}
			printSuccess(out.Notice)
			return nil
		},
	}
	c.Flags().IntVarP(&count, "count", "n", 0, "number of candidates to show")
	return c
}

func newTrainCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "train <staff_id> <skill>",
		Short: "Send an idle staff member on a three month course",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			skill := sim.Skill(strings.ToLower(args[1]))
			if !skill.Valid() {
				return fmt.Errorf("unknown skill %q (one of %v)", args[1], sim.AllSkills)
			}
			return sendAndNotify(cmd, apiBase, func(sess cl.Session) syncq.Command {
				return cl.TrainCmd(sess.CompanyID, args[0], skill)
			})
		},
	}
}

func newVacationCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "vacation <staff_id>",
		Short: "Send an idle staff member on vacation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndNotify(cmd, apiBase, func(sess cl.Session) syncq.Command {
				return cl.VacationCmd(sess.CompanyID, args[0])
			})
		},
	}
}

func newSpecialistCmd(apiBase *string) *cobra.Command {
	spec := &cobra.Command{
		Use:   "specialist",
		Short: "Assign or clear specialist roles",
	}
	spec.AddCommand(&cobra.Command{
		Use:   "assign <staff_id> <role>",
		Short: "Give a staff member a specialist role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := sim.SpecialistRole(strings.ToLower(args[1]))
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}
			return sendAndNotify(cmd, apiBase, func(sess cl.Session) syncq.Command {
				return cl.AssignSpecialistCmd(sess.CompanyID, args[0], role)
			})
		},
	})
	spec.AddCommand(&cobra.Command{
		Use:   "clear <staff_id>",
		Short: "Remove a staff member's specialist role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndNotify(cmd, apiBase, func(sess cl.Session) syncq.Command {
				return cl.ClearSpecialistCmd(sess.CompanyID, args[0])
			})
		},
	})
	return spec
}

func newProjectCmd(apiBase *string) *cobra.Command {
	project := &cobra.Command{
		Use:   "project",
		Short: "Game projects",
	}
	var in sim.StartProject
	var staff string
	start := &cobra.Command{
		Use:   "start",
		Short: "Start developing a game",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			if strings.TrimSpace(in.Name) == "" {
				if in.Name, err = promptRequired("Game name"); err != nil {
					return err
				}
			}
			if staff != "" {
				in.StaffIDs = splitList(staff)
			} else {
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				view, err := newClient(apiBase).Company(ctx, sess)
				cancel()
				if err != nil {
					return err
				}
				for _, m := range view.Company.Staff {
					if m.Status == sim.StatusIdle {
						in.StaffIDs = append(in.StaffIDs, m.ID)
					}
				}
			}
			out, queued, err := send(cmd, apiBase, sess, cl.StartProjectCmd(sess.CompanyID, in))
			if err != nil || queued {
				return err
			}
			printSuccess(out.Notice)
			if p := out.Company.Project; p != nil {
				printInfo(fmt.Sprintf("Ships in %d months with %.0f hype.", p.DevelopmentMonths, p.Hype))
			}
			return nil
		},
	}
	start.Flags().StringVar(&in.Name, "name", "", "game title")
	start.Flags().StringVar(&in.GenreID, "genre", "g1", "genre id")
	start.Flags().StringVar(&in.ThemeID, "theme", "t1", "theme id")
	start.Flags().StringVar(&in.PlatformID, "platform", "p1", "platform id")
	start.Flags().StringVar(&in.EngineID, "engine", "", "engine id (optional)")
	start.Flags().Int64Var(&in.Budget, "budget", 0, "marketing budget")
	start.Flags().StringVar(&staff, "staff", "", "comma separated staff ids (default: every idle member)")
	start.Flags().StringVar(&in.SequelTo, "sequel-to", "", "franchise id to continue")
	project.AddCommand(start)
	return project
}

func newResearchCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "research <genre|theme|platform|engine_blueprint> <item_id>",
		Short: "Research the next level of a genre, theme, platform or engine",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := sim.ResearchKind(strings.ToLower(args[0]))
			if !kind.Valid() {
				return fmt.Errorf("unknown research kind %q", args[0])
			}
			return sendAndNotify(cmd, apiBase, func(sess cl.Session) syncq.Command {
				return cl.ResearchCmd(sess.CompanyID, kind, args[1])
			})
		},
	}
}

func newEngineCmd(apiBase *string) *cobra.Command {
	engine := &cobra.Command{
		Use:   "engine",
		Short: "Build or cancel a game engine",
	}
	engine.AddCommand(&cobra.Command{
		Use:   "build <engine_id> <staff_id>...",
		Short: "Put up to three idle staff on an engine build",
		Args:  cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndNotify(cmd, apiBase, func(sess cl.Session) syncq.Command {
				return cl.EngineBuildCmd(sess.CompanyID, args[0], args[1:])
			})
		},
	})
	engine.AddCommand(&cobra.Command{
		Use:   "cancel",
		Short: "Abandon the engine build (no refund)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndNotify(cmd, apiBase, func(sess cl.Session) syncq.Command {
				return cl.CancelEngineBuildCmd(sess.CompanyID)
			})
		},
	})
	return engine
}

func newFranchiseCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "franchise <game_id>",
		Short: "Turn a well reviewed release into a franchise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndNotify(cmd, apiBase, func(sess cl.Session) syncq.Command {
				return cl.FranchiseCmd(sess.CompanyID, args[0])
			})
		},
	}
}

func newUpgradeCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <upgrade_id> [level]",
		Short: "Buy the next tier of an office upgrade",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			level, err := upgradeLevel(cmd, apiBase, sess, args)
			if err != nil {
				return err
			}
			out, queued, err := send(cmd, apiBase, sess, cl.UpgradeCmd(sess.CompanyID, args[0], level))
			if err != nil || queued {
				return err
			}
			printSuccess(out.Notice)
			return nil
		},
	}
}

// upgradeLevel defaults to the tier after the one currently owned.
func upgradeLevel(cmd *cobra.Command, apiBase *string, sess cl.Session, args []string) (int, error) {
	if len(args) > 1 {
		v, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid level %q", args[1])
		}
		return v, nil
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	view, err := newClient(apiBase).Company(ctx, sess)
	if err != nil {
		return 0, err
	}
	for _, u := range view.Company.Upgrades {
		if u.ID == args[0] {
			return u.CurrentLevel + 1, nil
		}
	}
	return 0, fmt.Errorf("unknown upgrade %q", args[0])
}

func newMarketingCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "marketing <game_id>",
		Short: "Run a three month marketing push for the project or a recent release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndNotify(cmd, apiBase, func(sess cl.Session) syncq.Command {
				return cl.MarketingCmd(sess.CompanyID, args[0])
			})
		},
	}
}

func newDelegateCmd(apiBase *string) *cobra.Command {
	delegate := &cobra.Command{
		Use:   "delegate",
		Short: "Let the studio run itself",
	}
	toggle := func(enabled bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			out, queued, err := send(cmd, apiBase, sess, cl.DelegationCmd(sess.CompanyID, enabled))
			if err != nil || queued {
				return err
			}
			printSuccess(fmt.Sprintf("Delegation is %s.", onOff(out.Company.Delegation)))
			return nil
		}
	}
	delegate.AddCommand(
		&cobra.Command{Use: "on", Short: "Hand control to the studio manager", RunE: toggle(true)},
		&cobra.Command{Use: "off", Short: "Take control back", RunE: toggle(false)},
		&cobra.Command{
			Use:   "cycle",
			Short: "Run one manager decision plus one month by hand",
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := requireSession()
				if err != nil {
					return err
				}
				out, queued, err := send(cmd, apiBase, sess, cl.DelegationCycleCmd(sess.CompanyID))
				if err != nil || queued {
					return err
				}
				rep, _ := out.Cycle()
				renderCycle(rep, out.Company.Funds)
				return nil
			},
		},
	)
	return delegate
}

func newResetCmd(apiBase *string) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "reset",
		Short: "Throw the studio away and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			if !yes {
				ok, err := promptConfirm(fmt.Sprintf("Reset %s and erase its history?", sess.Name))
				if err != nil || !ok {
					return err
				}
			}
			out, queued, err := send(cmd, apiBase, sess, cl.ResetCmd(sess.CompanyID))
			if err != nil || queued {
				return err
			}
			printSuccess(fmt.Sprintf("%s starts over in %02d/%d with %s.", out.Company.Name, out.Company.Month, out.Company.Year, formatMoney(out.Company.Funds)))
			return nil
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return c
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay commands queued while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := requireSession()
			if err != nil {
				return err
			}
			pending, err := syncq.Pending(sess.CompanyID)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			client := newClient(apiBase)
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			res, err := syncq.Replay(ctx, sess.CompanyID, func(ctx context.Context, q syncq.Command) error {
				_, err := client.Send(ctx, sess.Key, q)
				switch {
				case err == nil, cl.IsDuplicate(err):
					return nil
				case !cl.IsAPIError(err):
					printError(fmt.Sprintf("Still offline at %q: %v", q.Label, err))
					return syncq.ErrStop
				}
				printError(fmt.Sprintf("Rejected %q: %v", q.Label, err))
				return err
			})
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d rejected=%d remaining=%d", res.Applied, len(res.Rejected), res.Remaining))
			return nil
		},
	}
}

func queueOnNetworkError(err error, q syncq.Command) error {
	if err == nil {
		return nil
	}
	if cl.IsAPIError(err) || errors.Is(err, context.Canceled) {
		return err
	}
	if qerr := syncq.Push(q); qerr != nil {
		return fmt.Errorf("request failed and could not be queued: %w", errors.Join(err, qerr))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
