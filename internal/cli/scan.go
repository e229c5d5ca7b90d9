package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/trelloha/internal/ui/report"
)

func scanCmd(flags *rootFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the board once and complete finished items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, flags, dryRun)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "resolve items without updating the board")

	return cmd
}

func runScan(cmd *cobra.Command, flags *rootFlags, dryRun bool) error {
	e, err := setup(flags, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	s, boardID, err := e.scanner(dryRun)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := s.Run(ctx, boardID)
	if r != nil && (err == nil || len(r.Completed) > 0) {
		fmt.Fprint(cmd.OutOrStdout(), report.Render(r))
	}
	return err
}
