package scan

import (
	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
	"github.com/nhle/trelloha/internal/source/bitbucket"
	"github.com/nhle/trelloha/internal/source/bugzilla"
	"github.com/nhle/trelloha/internal/source/gerrit"
	"github.com/nhle/trelloha/internal/source/github"
	"github.com/nhle/trelloha/internal/source/jira"
	"github.com/nhle/trelloha/internal/transport"
)

// Checkers builds the checker chain for cfg: review, pull request and
// defect, then Bitbucket and Jira when servers are configured.
func Checkers(
	cfg *model.AppConfig,
	trust *transport.Trust,
	tokens source.TokenSource,
	log *zap.Logger,
) []source.Checker {
	checkers := []source.Checker{
		gerrit.NewChecker(cfg.Gerrit, trust, log),
		github.NewChecker(cfg.GitHub, trust, log),
		bugzilla.NewChecker(cfg.Bugzilla, trust, log),
	}
	if len(cfg.Bitbucket) > 0 {
		checkers = append(checkers, bitbucket.NewChecker(cfg.Bitbucket, tokens, trust, log))
	}
	if len(cfg.Jira) > 0 {
		checkers = append(checkers, jira.NewChecker(cfg.Jira, tokens, trust, log))
	}
	return checkers
}
