package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/trelloha/internal/keys"
	appsync "github.com/nhle/trelloha/internal/sync"
	"github.com/nhle/trelloha/internal/ui/watch"
)

func watchCmd(flags *rootFlags) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-scan the board periodically in a terminal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if logFile == "" {
				logFile = filepath.Join(filepath.Dir(flags.configPath), "watch.log")
			}
			if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
				return fmt.Errorf("creating log directory: %w", err)
			}
			f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer f.Close()

			// The terminal belongs to the view; logs go to the file.
			e, err := setup(flags, f, false)
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()

			s, boardID, err := e.scanner(false)
			if err != nil {
				return err
			}

			interval := time.Duration(e.cfg.Scan.WatchIntervalSec) * time.Second
			poller := appsync.New(s, boardID, interval)
			defer poller.Stop()

			final, err := tea.NewProgram(
				watch.New(poller, boardID, keys.DefaultKeyMap()),
				tea.WithAltScreen(),
			).Run()
			if err != nil {
				return fmt.Errorf("running watch view: %w", err)
			}

			if m, ok := final.(watch.Model); ok && m.AuthError() != "" {
				return errors.New(m.AuthError())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "log file (default: watch.log next to the config file)")

	return cmd
}
