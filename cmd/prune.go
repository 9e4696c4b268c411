package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/example/docksweep/internal/engine"
	"github.com/example/docksweep/internal/reclaim"
)

// pruneCmd represents the prune command
var pruneCmd = &cobra.Command{
	Use:   "prune [resource-id...]",
	Short: "Delete resources without opening the dashboard",
	Long: `Build and execute a deletion plan non-interactively. Pass resource IDs
(image IDs, container IDs, volume names, build-cache record IDs) to delete
exactly those, or --unused to target everything not currently in use.
The plan is shown and confirmed before anything is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		unused, _ := cmd.Flags().GetBool("unused")
		cascade, _ := cmd.Flags().GetBool("cascade")
		yes, _ := cmd.Flags().GetBool("yes")
		return runPrune(cmd, args, unused, cascade, yes)
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().Bool("unused", false, "Target every resource not currently in use")
	pruneCmd.Flags().Bool("cascade", false, "Pull dependent resources into the plan")
	pruneCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

func runPrune(cmd *cobra.Command, ids []string, unused, cascade, yes bool) error {
	if len(ids) == 0 && !unused {
		return ExitError{Code: 1, Err: fmt.Errorf("nothing to prune: pass resource IDs or --unused")}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer cleanup()

	sess, err := newSession(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	snap, err := sess.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch disk usage: %w", err)
	}

	if unused {
		for _, kind := range engine.Kinds {
			for _, r := range snap.Kind(kind) {
				if !r.InUse {
					ids = append(ids, r.ID)
				}
			}
		}
	}

	plan, err := sess.BuildPlan(ids, cascade || cfg.Reclaim.Cascade)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, sk := range plan.Skipped {
		fmt.Fprintf(out, "skip  %-12s %-50s (%s)\n", sk.Kind, sk.ID, sk.Reason)
	}
	if len(plan.Items) == 0 {
		fmt.Fprintln(out, "Nothing to delete.")
		return nil
	}
	for _, item := range plan.Items {
		fmt.Fprintf(out, "plan  %-12s %-50s %12s\n", item.Kind, item.Name, sizeOf(item.Bytes))
	}
	fmt.Fprintf(out, "Estimated space to reclaim: %s\n", sizeOf(plan.EstimatedBytes))

	if !yes {
		proceed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Delete %d resources, freeing an estimated %s?",
				len(plan.Items), humanize.IBytes(uint64(plan.EstimatedBytes))),
		}
		if err := survey.AskOne(prompt, &proceed); err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	res, err := sess.Execute(cmd.Context(), plan)
	if err != nil {
		return err
	}

	for _, item := range res.Items {
		switch item.Status {
		case reclaim.StatusRemoved:
			fmt.Fprintf(out, "removed  %-12s %-50s %12s\n", item.Kind, item.Name, sizeOf(item.Bytes))
		case reclaim.StatusFailed:
			fmt.Fprintf(out, "FAILED   %-12s %-50s %s\n", item.Kind, item.Name, item.Reason)
		default:
			fmt.Fprintf(out, "skipped  %-12s %-50s %s\n", item.Kind, item.ID, item.Reason)
		}
	}
	fmt.Fprintf(out, "Reclaimed %s (%d removed, %d failed, %d skipped)\n",
		sizeOf(res.BytesReclaimed), res.Removed, res.Failed, res.Skipped)

	if res.Failed > 0 {
		return ExitError{Code: 1}
	}
	return nil
}
