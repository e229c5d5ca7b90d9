package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/trelloha/internal/board"
	"github.com/nhle/trelloha/internal/credential"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/ui/login"
)

type loginFlags struct {
	boardID string
	token   string
	host    string
	forget  bool
}

func loginCmd(flags *rootFlags) *cobra.Command {
	lf := &loginFlags{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the board token (or a server token) in the system keyring",
		Long: "Without flags, login asks for the board id and the token obtained from\n" +
			"the authorization page. With --host it stores a Personal Access Token\n" +
			"for a Bitbucket or Jira server instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}

			ring, err := credential.OpenKeyring()
			if err != nil {
				return err
			}
			return runLogin(cmd, cfg, credential.NewKeyring(ring), lf, true)
		},
	}

	cmd.Flags().StringVar(&lf.boardID, "board-id", "", "board id (skips the form together with --token)")
	cmd.Flags().StringVar(&lf.token, "token", "", "board token, or server token with --host")
	cmd.Flags().StringVar(&lf.host, "host", "", "Bitbucket or Jira server URL")
	cmd.Flags().BoolVar(&lf.forget, "forget", false, "remove the stored credentials instead")

	return cmd
}

// credentialStore is the keyring subset login needs.
type credentialStore interface {
	Store(machine, login, password string) error
	Forget(machine string) error
}

func runLogin(
	cmd *cobra.Command,
	cfg *model.AppConfig,
	store credentialStore,
	lf *loginFlags,
	interactive bool,
) error {
	out := cmd.OutOrStdout()
	values := login.Values{Login: lf.boardID, Password: lf.token, ServerURL: lf.host}

	if lf.host != "" {
		machine, err := login.HostMachine(lf.host)
		if err != nil {
			return err
		}
		if lf.forget {
			if err := store.Forget(machine); err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed credentials for %s\n", machine)
			return nil
		}
		if values.Password == "" {
			if !interactive {
				return fmt.Errorf("--token is required with --host")
			}
			if err := login.HostForm(&values).Run(); err != nil {
				return fmt.Errorf("login form: %w", err)
			}
			if machine, err = login.HostMachine(values.ServerURL); err != nil {
				return err
			}
		}
		if err := store.Store(machine, "", values.Password); err != nil {
			return err
		}
		fmt.Fprintf(out, "Stored token for %s\n", machine)
		return nil
	}

	machine := cfg.Board.Machine
	if lf.forget {
		if err := store.Forget(machine); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed credentials for %s\n", machine)
		return nil
	}

	if values.Login == "" || values.Password == "" {
		if !interactive {
			return fmt.Errorf("--board-id and --token are required")
		}
		if err := login.BoardForm(board.AuthorizeURL(cfg.Board), &values).Run(); err != nil {
			return fmt.Errorf("login form: %w", err)
		}
	}

	if err := store.Store(machine, values.Login, values.Password); err != nil {
		return err
	}
	fmt.Fprintf(out, "Stored board %s credentials for %s\n", values.Login, machine)
	return nil
}
