package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/example/docksweep/internal/tui"
)

// dashCmd represents the dash command, the explicit spelling of the default.
var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the interactive disk-usage dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDash(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(dashCmd)
}

func runDash(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer cleanup()

	sess, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	p := tea.NewProgram(tui.New(sess, cfg.Reclaim.Cascade, logger), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
