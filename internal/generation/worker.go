package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PrewarmWorker keeps configured pools topped up so learners rarely wait on
// the model.
type PrewarmWorker struct {
	svc      *Service
	targets  []Request
	minSize  int
	interval time.Duration
	logger   zerolog.Logger
}

func NewPrewarmWorker(svc *Service, targets []Request, minSize int, interval time.Duration, logger zerolog.Logger) *PrewarmWorker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if minSize <= 0 {
		minSize = 5
	}
	return &PrewarmWorker{
		svc:      svc,
		targets:  targets,
		minSize:  minSize,
		interval: interval,
		logger:   logger.With().Str("component", "pool_prewarm_worker").Logger(),
	}
}

// Run blocks until context cancellation.
func (w *PrewarmWorker) Run(ctx context.Context) error {
	if w.svc == nil || len(w.targets) == 0 {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PrewarmWorker) tick(ctx context.Context) {
	for _, target := range w.targets {
		if ctx.Err() != nil {
			return
		}
		if err := w.topUp(ctx, target); err != nil {
			w.logger.Warn().Err(err).Str("key", w.svc.flightKey(target.withDefaults())).Msg("prewarm failed")
		}
	}
}

func (w *PrewarmWorker) topUp(ctx context.Context, target Request) error {
	size, err := w.svc.PoolSize(ctx, target)
	if err != nil {
		return err
	}
	missing := w.minSize - int(size)
	if missing <= 0 {
		return nil
	}
	_, err = w.svc.GenerateAndCache(ctx, target, missing)
	return err
}

// ParseTargets reads "topic:difficulty[:kind]" entries. Blank entries are skipped.
func ParseTargets(raw []string) ([]Request, error) {
	var targets []Request
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("%w: prewarm target %q", ErrInvalidRequest, entry)
		}
		kind := ""
		if len(parts) == 3 {
			kind = parts[2]
		}
		req, err := ParseRequest(parts[0], parts[1], kind)
		if err != nil {
			return nil, fmt.Errorf("prewarm target %q: %w", entry, err)
		}
		targets = append(targets, req)
	}
	return targets, nil
}
