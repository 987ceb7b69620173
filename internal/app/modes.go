package app

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/hftsim/internal/domain"
	"github.com/quantfold/hftsim/internal/server"
	"github.com/quantfold/hftsim/internal/server/handler"
	"github.com/quantfold/hftsim/internal/server/ws"
	"github.com/quantfold/hftsim/internal/session"
)

// archiveInterval is how often the fill archiver runs in serve mode.
const archiveInterval = 24 * time.Hour

// ServeMode runs the full command surface: the HTTP API, the WebSocket hub
// (when Redis is enabled), the event publisher, and the fill archive loop
// (when S3 and Postgres are enabled).
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	publisher := NewPublisher(deps.Session.Events(), deps, a.logger)
	g.Go(func() error {
		return publisher.Run(ctx)
	})

	var wsHub *ws.Hub
	if deps.SignalBus != nil {
		wsHub = ws.NewHub(deps.SignalBus, a.logger)
		g.Go(func() error {
			return wsHub.Run(ctx)
		})
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
		},
		server.Handlers{
			Books:  handler.NewBookHandler(deps.Session, a.logger),
			Engine: handler.NewEngineHandler(deps.Session, a.logger),
			Status: handler.NewStatusHandler(deps.Session, a.logger),
		},
		wsHub,
		a.logger,
	)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiveLoop(ctx, deps)
		})
	}

	return g.Wait()
}

// runArchiveLoop periodically moves aged fills to object storage.
func (a *App) runArchiveLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(archiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.S3.RetentionDays)
			n, err := deps.Archiver.ArchiveFills(ctx, cutoff)
			if err != nil {
				a.logger.ErrorContext(ctx, "fill archive failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			if n > 0 {
				a.logger.InfoContext(ctx, "fills archived",
					slog.Int64("count", n),
					slog.Time("cutoff", cutoff),
				)
			}
		}
	}
}

// SimMode is a headless smoke run: it seeds one book, feeds it synthetic
// updates and trades on a random walk, and logs the quotes the engine would
// post. The publisher still runs, so any enabled backends see the same event
// flow as serve mode.
func (a *App) SimMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sim mode")

	g, ctx := errgroup.WithContext(ctx)

	publisher := NewPublisher(deps.Session.Events(), deps, a.logger)
	g.Go(func() error {
		return publisher.Run(ctx)
	})

	g.Go(func() error {
		return a.runSimLoop(ctx, deps.Session)
	})

	return g.Wait()
}

// runSimLoop drives the synthetic market.
func (a *App) runSimLoop(ctx context.Context, sess *session.Session) error {
	const symbol = "SIM"

	if _, err := sess.Initialize("simulated"); err != nil {
		return err
	}
	if err := sess.CreateBook(symbol, a.cfg.Engine.DefaultDepth); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	mid := 100.0
	inventory := 0.0

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mid += rng.NormFloat64() * 0.05

			bids := make(map[float64]float64, 5)
			asks := make(map[float64]float64, 5)
			for i := 1; i <= 5; i++ {
				tick := 0.01 * float64(i)
				bids[mid-tick] = 10 + rng.Float64()*20
				asks[mid+tick] = 10 + rng.Float64()*20
			}

			if _, err := sess.ApplyUpdate(symbol, bids, asks, time.Now()); err != nil {
				return err
			}

			side := domain.SideBuy
			if rng.Float64() < 0.5 {
				side = domain.SideSell
			}
			price := mid + rng.NormFloat64()*0.02
			if _, err := sess.RecordTrade(symbol, price, 1+rng.Float64()*5, side, time.Now()); err != nil {
				return err
			}

			quotes, err := sess.Quote(symbol, session.QuoteParams{Inventory: inventory})
			if err != nil {
				if errors.Is(err, domain.ErrInsufficientMarketData) {
					continue
				}
				return err
			}
			a.logger.InfoContext(ctx, "sim quotes",
				slog.Float64("bid", quotes.Bid.Price),
				slog.Float64("ask", quotes.Ask.Price),
				slog.Float64("mid", quotes.MidPrice),
				slog.Float64("inventory", inventory),
			)

			if report, err := sess.DetectToxicity(symbol, 0); err == nil && report.Toxic {
				a.logger.WarnContext(ctx, "sim toxic flow",
					slog.Float64("score", report.Score),
					slog.String("action", report.Action),
				)
			}

			// Occasionally cross the spread to move inventory around.
			if rng.Float64() < 0.1 {
				execSide := domain.SideBuy
				if inventory > 0 {
					execSide = domain.SideSell
				}
				fill, err := sess.Execute(symbol, execSide, 1+rng.Float64()*3, 0.05)
				if err == nil {
					inventory = fill.Position
				}
			}
		}
	}
}
