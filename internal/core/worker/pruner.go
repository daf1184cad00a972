package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/recipefetch/internal/core/config"
	"github.com/vietddude/recipefetch/internal/infra/storage"
)

// Pruner trims the fetch run journal to its newest entries.
type Pruner struct {
	cfg  config.HistoryConfig
	runs storage.RunRepository
	log  *slog.Logger
}

// NewPruner creates a new Pruner worker.
func NewPruner(cfg config.HistoryConfig, runs storage.RunRepository) *Pruner {
	return &Pruner{
		cfg:  cfg,
		runs: runs,
		log:  slog.Default().With("component", "pruner"),
	}
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.cfg.PruneInterval <= 0 || p.cfg.Keep <= 0 {
		return // Retention disabled
	}

	ticker := time.NewTicker(p.cfg.PruneInterval)
	defer ticker.Stop()

	// Initial prune
	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune removes all but the newest Keep runs once.
func (p *Pruner) Prune(ctx context.Context) int64 {
	removed, err := p.runs.Prune(ctx, p.cfg.Keep)
	if err != nil {
		p.log.Error("Failed to prune fetch runs", "keep", p.cfg.Keep, "error", err)
		return 0
	}
	if removed > 0 {
		p.log.Debug("Pruned fetch runs", "removed", removed, "keep", p.cfg.Keep)
	}
	return removed
}
