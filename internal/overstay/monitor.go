package overstay

import (
	"context"
	"log"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"parking-backend/config"
	"parking-backend/internal/notification"
	"parking-backend/internal/store"
)

// Monitor periodically scans active sessions for duration breaches and
// dispatches a push alert for each newly detected overstay.
type Monitor struct {
	cfg        *config.Config
	store      store.Store
	workerPool *notification.WorkerPool
}

// NewMonitor creates and initializes the overstay monitor.
func NewMonitor(cfg *config.Config, s store.Store) *Monitor {
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	return &Monitor{
		cfg:        cfg,
		store:      s,
		workerPool: notification.NewWorkerPool(cfg.WorkerPool.Size, s.DB(), &webpushOptions),
	}
}

// Run starts the scan loop. Blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if !m.cfg.Overstay.Enabled {
		log.Println("Overstay monitor is disabled. Not starting.")
		return
	}
	log.Println("Starting overstay monitor...")

	m.workerPool.Start(ctx)

	m.ScanOnce(ctx)

	timer := time.NewTimer(m.cfg.Overstay.ScanInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Overstay monitor shutting down.")
			return
		case <-timer.C:
			m.ScanOnce(ctx)
			timer.Reset(m.cfg.Overstay.ScanInterval)
		}
	}
}

// ScanOnce performs a single scan cycle. Each overstaying session is marked
// alerted before the alert is dispatched, so a session is alerted at most
// once even across overlapping scans.
func (m *Monitor) ScanOnce(ctx context.Context) {
	now := time.Now().UTC()
	cutoff := now.Add(-time.Duration(m.cfg.Overstay.ThresholdHours * float64(time.Hour)))

	sessions, err := m.store.UnalertedOverstays(ctx, cutoff)
	if err != nil {
		log.Printf("Overstay scan failed: %v", err)
		return
	}
	if len(sessions) == 0 {
		return
	}

	log.Printf("Overstay scan found %d new breach(es)", len(sessions))
	for _, session := range sessions {
		if err := m.store.MarkOverstayAlerted(ctx, session.ID, now); err != nil {
			log.Printf("Failed to mark session %s alerted: %v", session.ID, err)
			continue
		}
		m.workerPool.Dispatch(session.ID)
	}
}
