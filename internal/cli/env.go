package cli

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/board"
	"github.com/nhle/trelloha/internal/credential"
	"github.com/nhle/trelloha/internal/logging"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/scan"
	"github.com/nhle/trelloha/internal/transport"
)

// env is the runtime state every command builds from its flags.
type env struct {
	cfg   *model.AppConfig
	log   *zap.Logger
	creds credential.Chain
}

// setup loads the config, builds the logger writing to logOut and opens
// the credential chain.
func setup(flags *rootFlags, logOut io.Writer, color bool) (*env, error) {
	cfg, err := model.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if flags.debug {
		level = "debug"
	}
	log, err := logging.NewWithWriter(level, logOut, color)
	if err != nil {
		return nil, err
	}

	creds, err := credential.NewChain(cfg.Credentials)
	if err != nil {
		return nil, err
	}

	log.Debug("configuration loaded",
		zap.String("path", flags.configPath),
		zap.Int("gerrit", len(cfg.Gerrit)),
		zap.Int("bugzilla", len(cfg.Bugzilla)),
		zap.Int("bitbucket", len(cfg.Bitbucket)),
		zap.Int("jira", len(cfg.Jira)),
	)

	return &env{cfg: cfg, log: log, creds: creds}, nil
}

// scanner builds a scanner for the board stored in the credential chain
// and returns it with the board id.
func (e *env) scanner(dryRun bool) (*scan.Scanner, string, error) {
	boardID, token, err := e.creds.BoardCredentials(e.cfg.Board)
	if err != nil {
		return nil, "", err
	}

	timeout := time.Duration(e.cfg.Scan.RequestTimeoutSec) * time.Second
	trust := transport.NewTrust(e.cfg.Trust, timeout)

	httpClient, err := trust.ClientFor(e.cfg.Board.APIURL)
	if err != nil {
		return nil, "", fmt.Errorf("board client: %w", err)
	}
	client := board.NewClient(e.cfg.Board.APIURL, e.cfg.Board.AppKey, token, httpClient)

	s := scan.New(
		client,
		scan.Checkers(e.cfg, trust, e.creds, e.log),
		e.cfg.Board,
		scan.Options{
			Workers: e.cfg.Scan.Workers,
			DryRun:  dryRun || e.cfg.Scan.DryRun,
		},
		e.log,
	)
	return s, boardID, nil
}
