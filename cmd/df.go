package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/example/docksweep/internal/engine"
	v1 "github.com/example/docksweep/internal/schema/v1"
	"github.com/example/docksweep/internal/snapshot"
)

// dfCmd represents the df command
var dfCmd = &cobra.Command{
	Use:   "df",
	Short: "Print a one-shot disk-usage breakdown",
	Long: `Fetch a single snapshot of the engine's disk usage and print it:
totals, then images, containers, volumes and build cache, largest first.
With --json the snapshot is exported in the stable report schema instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		output, _ := cmd.Flags().GetString("output")
		return runDf(cmd, asJSON, output)
	},
}

func init() {
	rootCmd.AddCommand(dfCmd)

	dfCmd.Flags().Bool("json", false, "Output the snapshot as JSON")
	dfCmd.Flags().StringP("output", "o", "", "Output file for the JSON snapshot (default stdout)")
}

func runDf(cmd *cobra.Command, asJSON bool, output string) error {
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

	if asJSON || output != "" {
		report := v1.BuildFromSnapshot(snap, toolVersion, gitCommit, buildTime)
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if output == "" {
			fmt.Println(string(data))
		} else {
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write to file: %w", err)
			}
			fmt.Printf("Snapshot written to %s\n", output)
		}
		return nil
	}

	printDf(cmd.OutOrStdout(), snap)
	return nil
}

func printDf(w io.Writer, snap *snapshot.Snapshot) {
	sys := snap.System

	title := func(s string) {
		fmt.Fprintln(w, strings.Repeat("-", 120))
		fmt.Fprintln(w, s)
		fmt.Fprintln(w, strings.Repeat("=", len(s)))
	}
	size := func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.IBytes(uint64(n))
	}

	if sys.RootFSTotal > 0 {
		fmt.Fprintf(w, "Engine  disk: %12s / %s\n", humanize.IBytes(sys.RootFSUsed), humanize.IBytes(sys.RootFSTotal))
	}
	fmt.Fprintf(w, "Layers  size: %12s\n", size(snap.LayersSize))
	fmt.Fprintf(w, "Builder size: %12s\n", size(snap.BuilderSize))
	fmt.Fprintf(w, "Total  usage: %12s\n", size(snap.TotalUsage()))

	images := snap.Kind(engine.KindImage)
	title(fmt.Sprintf("Images %d", len(images)))
	for _, r := range images {
		fmt.Fprintf(w, "%-50s  Size: %12s  Shared: %12s  Self: %12s\n",
			clip(r.Name, 48), size(r.TotalSize), size(r.SharedSize), size(r.SelfSize))
	}

	containers := snap.Kind(engine.KindContainer)
	title(fmt.Sprintf("Containers %d", len(containers)))
	for _, r := range containers {
		state := ""
		if r.InUse {
			state = "running"
		}
		fmt.Fprintf(w, "%-25s %-30s %10s  Size: %12s  %s\n",
			clip(r.Name, 25), clip(r.Detail, 30), state, size(r.TotalSize),
			r.Created.Format("2006-01-02 15:04"))
	}

	volumes := snap.Kind(engine.KindVolume)
	title(fmt.Sprintf("Volumes %d", len(volumes)))
	for _, r := range volumes {
		fmt.Fprintf(w, "%-35s %-50s Size: %12s\n",
			clip(r.Name, 32), clip(r.Detail, 46), size(r.TotalSize))
	}

	cache := snap.Kind(engine.KindBuildCache)
	title(fmt.Sprintf("BuildCache %d", len(cache)))
	for _, r := range cache {
		use := ""
		if r.InUse {
			use = "In Use"
		}
		fmt.Fprintf(w, "%-14s %-50s %12s  %s\n",
			snapshot.ShortID(r.ID), clip(r.Detail, 48), size(r.TotalSize), use)
	}
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
