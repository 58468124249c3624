package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	igerrors "github.com/justin7251/IG-stock/internal/errors"
	"github.com/justin7251/IG-stock/internal/ig"
	"github.com/justin7251/IG-stock/internal/ledger"
	"github.com/justin7251/IG-stock/internal/logging"
	"github.com/justin7251/IG-stock/internal/models"
	"github.com/justin7251/IG-stock/internal/notify"
)

// PriceSource fetches the current quoted price for an instrument.
type PriceSource interface {
	MarketSnapshot(ctx context.Context, sess *ig.Session, epic string) (models.PriceQuote, error)
}

// Sessions hands out the shared process-wide session and serializes
// re-authentication.
type Sessions interface {
	Current(ctx context.Context) (*ig.Session, uint64, error)
	Invalidate(ctx context.Context, gen uint64) (*ig.Session, uint64, error)
}

// Config holds monitoring loop configuration.
type Config struct {
	Interval      time.Duration
	DropThreshold float64
}

// Supervisor owns one watcher goroutine per tracked position. Errors
// are contained at the tick boundary of the affected instrument; the
// only shutdown path is cancellation of the run context.
type Supervisor struct {
	cfg      Config
	sessions Sessions
	prices   PriceSource
	ledger   *ledger.Ledger
	notifier notify.Notifier
	breaker  *gobreaker.CircuitBreaker
	log      zerolog.Logger
}

// NewSupervisor creates a supervisor. The circuit breaker guards the
// shared market-data upstream so a dead API is skipped fast instead of
// being hammered by every ticker.
func NewSupervisor(cfg Config, sessions Sessions, prices PriceSource, led *ledger.Ledger, notifier notify.Notifier, logger zerolog.Logger) *Supervisor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.DropThreshold <= 0 {
		cfg.DropThreshold = DefaultDropThreshold
	}

	settings := gobreaker.Settings{
		Name: "ig-market-data",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("market data circuit state changed")
		},
	}

	return &Supervisor{
		cfg:      cfg,
		sessions: sessions,
		prices:   prices,
		ledger:   led,
		notifier: notifier,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		log:      logger,
	}
}

// Run starts one watcher per monitorable position and blocks until ctx
// is cancelled. Positions that are sold, missing an EPIC or carrying a
// non-positive purchase price are skipped with a warning.
func (s *Supervisor) Run(ctx context.Context, positions []models.TrackedPosition) error {
	var tracked []models.TrackedPosition
	for _, pos := range positions {
		if pos.Sold {
			continue
		}
		if !pos.Monitorable() {
			s.log.Warn().Str("symbol", pos.Symbol).Str("epic", pos.Epic).
				Float64("purchase_price", pos.PurchasePrice).
				Msg("position not monitorable, skipping")
			continue
		}
		tracked = append(tracked, pos)
	}
	if len(tracked) == 0 {
		return igerrors.ErrNoPositions
	}

	s.log.Info().Int("positions", len(tracked)).Dur("interval", s.cfg.Interval).
		Float64("drop_threshold", s.cfg.DropThreshold).Msg("monitoring started")

	var wg sync.WaitGroup
	for _, pos := range tracked {
		wg.Add(1)
		go func(pos models.TrackedPosition) {
			defer wg.Done()
			s.watch(ctx, pos)
		}(pos)
	}
	wg.Wait()
	return nil
}

// watch is the per-instrument loop. The ticker drops intermediate
// ticks while a previous tick is still in flight, so evaluation for a
// single instrument never overlaps itself; a slow tick defers the next
// one instead of running in parallel.
func (s *Supervisor) watch(ctx context.Context, pos models.TrackedPosition) {
	log := logging.WithEpic(s.log, pos.Epic)
	log.Info().Str("symbol", pos.Symbol).Float64("purchase_price", pos.PurchasePrice).
		Msg("watching position")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx, pos, log)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("watcher stopped")
			return
		case <-ticker.C:
			s.tick(ctx, pos, log)
		}
	}
}

// tick runs one evaluation cycle for one position. Every failure path
// leaves ledger state untouched and means "no new data this cycle".
func (s *Supervisor) tick(ctx context.Context, pos models.TrackedPosition, log zerolog.Logger) {
	sess, gen, err := s.sessions.Current(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("no session, skipping cycle")
		return
	}

	quote, err := s.fetch(ctx, sess, pos.Epic)
	if err != nil {
		var fetchErr *igerrors.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Unauthorized() {
			if _, _, reErr := s.sessions.Invalidate(ctx, gen); reErr != nil {
				log.Warn().Err(reErr).Msg("re-authentication failed, skipping cycle")
			} else {
				log.Info().Msg("session renewed, retrying next tick")
			}
			return
		}
		log.Warn().Err(err).Msg("price unavailable, skipping cycle")
		return
	}

	drop := PercentDrop(pos.PurchasePrice, quote.Price)
	if !DropWorthy(drop, s.cfg.DropThreshold) {
		log.Debug().Float64("price", quote.Price).Float64("percent_drop", drop).
			Msg("no action needed")
		return
	}

	if s.ledger.AlreadyAlertedToday(pos.Epic) {
		log.Debug().Float64("percent_drop", drop).Msg("already alerted today")
		return
	}

	subject, body := formatAlert(pos, drop, quote.Price)
	if err := s.notifier.Notify(ctx, subject, body); err != nil {
		log.Error().Err(err).Msg("alert delivery failed")
		return
	}

	if err := s.ledger.Record(pos.Epic, quote.Price); err != nil {
		// The alert went out but is not on disk: a restart before the
		// next successful persist can repeat it.
		log.Error().Err(err).Msg("alert sent but not recorded")
		return
	}

	log.Info().Float64("price", quote.Price).Float64("percent_drop", drop).Msg("alert sent")
}

func (s *Supervisor) fetch(ctx context.Context, sess *ig.Session, epic string) (models.PriceQuote, error) {
	v, err := s.breaker.Execute(func() (interface{}, error) {
		return s.prices.MarketSnapshot(ctx, sess, epic)
	})
	if err != nil {
		return models.PriceQuote{}, err
	}
	return v.(models.PriceQuote), nil
}

// formatAlert builds the notification subject and body. The subject
// carries the display name, the EPIC and the drop percentage.
func formatAlert(pos models.TrackedPosition, drop, currentPrice float64) (subject, body string) {
	subject = fmt.Sprintf("Stock Alert: %s (EPIC: %s) Price Drop %.2f%%", pos.Symbol, pos.Epic, drop)
	body = fmt.Sprintf("The stock %s has dropped by %.2f%%.\nCurrent Price: %g.\nPlease consider selling your stock.",
		pos.Symbol, drop, currentPrice)
	return subject, body
}
