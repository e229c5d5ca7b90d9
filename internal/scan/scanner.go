// Package scan walks every incomplete checklist item of a board and
// marks complete the ones whose referenced artifact is done.
package scan

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/trelloha/internal/credential"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
)

// Board is the subset of the board client the scanner needs.
type Board interface {
	ListCards(ctx context.Context, boardID string) ([]model.Card, error)
	SetCheckItemState(
		ctx context.Context,
		cardID string,
		checklistID string,
		itemID string,
		state string,
	) error
}

// Options tunes a scan.
type Options struct {
	// Workers bounds how many items are resolved at once. Values below
	// 2 resolve items one at a time in board order.
	Workers int

	// DryRun resolves items without writing to the board.
	DryRun bool
}

// Scanner runs the checker chain over a board.
type Scanner struct {
	board    Board
	checkers []source.Checker
	boardCfg model.BoardConfig
	opts     Options
	log      *zap.Logger
}

// New creates a scanner. Checkers are tried in the given order for
// every item; the first one that matches and resolves to done wins.
func New(
	board Board,
	checkers []source.Checker,
	boardCfg model.BoardConfig,
	opts Options,
	log *zap.Logger,
) *Scanner {
	return &Scanner{
		board:    board,
		checkers: checkers,
		boardCfg: boardCfg,
		opts:     opts,
		log:      log.Named("scan"),
	}
}

// item is one eligible checklist item with its position on the board.
type item struct {
	index     int
	card      *model.Card
	checklist *model.Checklist
	item      *model.CheckItem
}

// Run performs one full pass over boardID. A 401 from the board service
// is returned as *credential.NoAuthError. Items completed before an
// error stay completed and are listed in the returned report.
func (s *Scanner) Run(ctx context.Context, boardID string) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		BoardID:   boardID,
		DryRun:    s.opts.DryRun,
		StartedAt: time.Now(),
	}
	defer func() { report.FinishedAt = time.Now() }()

	log := s.log.With(zap.String("run", report.RunID))
	log.Debug("fetching cards", zap.String("board", boardID))

	cards, err := s.board.ListCards(ctx, boardID)
	if err != nil {
		return report, s.fail(fmt.Errorf("listing cards: %w", err))
	}
	report.Cards = len(cards)

	items := eligible(cards)
	if s.opts.Workers > 1 {
		err = s.runConcurrent(ctx, log, items, report)
	} else {
		err = s.runSequential(ctx, log, items, report)
	}
	if err != nil {
		return report, s.fail(err)
	}

	log.Info("scan finished",
		zap.Int("cards", report.Cards),
		zap.Int("items", report.Items),
		zap.Int("completed", len(report.Completed)),
	)
	return report, nil
}

func eligible(cards []model.Card) []item {
	var items []item
	for c := range cards {
		card := &cards[c]
		for l := range card.Checklists {
			checklist := &card.Checklists[l]
			for i := range checklist.CheckItems {
				checkItem := &checklist.CheckItems[i]
				if !checkItem.Incomplete() {
					continue
				}
				items = append(items, item{
					index:     len(items),
					card:      card,
					checklist: checklist,
					item:      checkItem,
				})
			}
		}
	}
	return items
}

func (s *Scanner) runSequential(
	ctx context.Context,
	log *zap.Logger,
	items []item,
	report *Report,
) error {
	for _, it := range items {
		report.Items++
		completion, err := s.process(ctx, log, it)
		if err != nil {
			return err
		}
		if completion != nil {
			report.Completed = append(report.Completed, *completion)
		}
	}
	return nil
}

func (s *Scanner) runConcurrent(
	ctx context.Context,
	log *zap.Logger,
	items []item,
	report *Report,
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	var (
		mu        sync.Mutex
		completed = map[int]Completion{}
	)

	for _, it := range items {
		g.Go(func() error {
			completion, err := s.process(ctx, log, it)

			mu.Lock()
			defer mu.Unlock()
			report.Items++
			if completion != nil {
				completed[it.index] = *completion
			}
			return err
		})
	}
	err := g.Wait()

	indexes := make([]int, 0, len(completed))
	for i := range completed {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		report.Completed = append(report.Completed, completed[i])
	}

	return err
}

// process walks the checker chain for one item and, when an artifact is
// done, marks the item complete.
func (s *Scanner) process(
	ctx context.Context,
	log *zap.Logger,
	it item,
) (*Completion, error) {
	ref, done, err := s.resolve(ctx, it.item.Name)
	if err != nil {
		return nil, fmt.Errorf(
			"checking item %q on card %q: %w", it.item.Name, it.card.Name, err,
		)
	}
	if !done {
		return nil, nil
	}

	if !s.opts.DryRun {
		err := s.board.SetCheckItemState(
			ctx, it.card.ID, it.checklist.ID, it.item.ID, model.StateComplete,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"completing item %q on card %q: %w", it.item.Name, it.card.Name, err,
			)
		}
	}

	log.Info("item completed",
		zap.String("card", it.card.Name),
		zap.String("checklist", it.checklist.Name),
		zap.String("item", it.item.Name),
		zap.Stringer("ref", ref),
		zap.Bool("dry_run", s.opts.DryRun),
	)

	return &Completion{
		CardID:        it.card.ID,
		CardName:      it.card.Name,
		CardURL:       it.card.ShortURL,
		ChecklistID:   it.checklist.ID,
		ChecklistName: it.checklist.Name,
		ItemID:        it.item.ID,
		ItemName:      it.item.Name,
		Reference:     ref,
	}, nil
}

// resolve returns the first reference in the chain that is done.
func (s *Scanner) resolve(
	ctx context.Context,
	label string,
) (source.Reference, bool, error) {
	for _, checker := range s.checkers {
		ref, ok := checker.Match(label)
		if !ok {
			continue
		}

		done, err := checker.Resolve(ctx, ref)
		if err != nil {
			return ref, false, err
		}
		if done {
			return ref, true, nil
		}
	}
	return source.Reference{}, false, nil
}

func (s *Scanner) fail(err error) error {
	if source.IsAuthErrorFrom(err, source.SourceTypeBoard) {
		return credential.NewNoAuthError(s.boardCfg, err)
	}
	return err
}
