package core

// scheduler.go runs background maintenance for the service.
//
// Validated imports wait in memory for their commit. The janitor drops
// the ones whose TTL has passed so abandoned previews do not pile up. It
// stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultJanitorInterval is how often expired imports are purged.
const DefaultJanitorInterval = time.Minute

// StartJanitor purges expired pending imports every interval until ctx is
// done. It blocks; run it in its own goroutine.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	slog.Info("import janitor started",
		"interval", interval,
		"pending_ttl", s.cfg.PendingTTL,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("import janitor stopped")
			return
		case <-ticker.C:
			s.runJanitor()
		}
	}
}

func (s *Service) runJanitor() {
	if n := s.PurgeExpired(); n > 0 {
		slog.Info("purged expired imports", "count", n, "pending", s.PendingCount())
	}
}
