package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"loanlink/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// Digest summarizes the pending queue
type Digest struct {
	Pending       int64
	OldestApplied *time.Time
	OldestAge     time.Duration
}

// PendingDigestJob periodically logs the size and age of the pending queue
type PendingDigestJob struct {
	apps    repositories.ApplicationRepository
	cron    *cron.Cron
	now     func() time.Time
	timeout time.Duration
}

// NewPendingDigestJob creates a new digest job
func NewPendingDigestJob(apps repositories.ApplicationRepository) *PendingDigestJob {
	return &PendingDigestJob{
		apps:    apps,
		cron:    cron.New(),
		now:     time.Now,
		timeout: 30 * time.Second,
	}
}

// Start schedules the job with a standard 5-field cron spec
func (j *PendingDigestJob) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.run); err != nil {
		return fmt.Errorf("invalid PENDING_DIGEST_CRON %q: %w", spec, err)
	}
	j.cron.Start()
	log.Printf("🚀 Pending digest scheduled [%s]", spec)
	return nil
}

// Stop stops the scheduler and waits for a running job
func (j *PendingDigestJob) Stop() {
	<-j.cron.Stop().Done()
	log.Println("🛑 Pending digest stopped")
}

func (j *PendingDigestJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	d, err := j.Run(ctx)
	if err != nil {
		log.Printf("❌ Pending digest failed: %v", err)
		return
	}
	if d.Pending == 0 {
		log.Println("✅ Pending digest: no applications waiting")
		return
	}
	log.Printf("📋 Pending digest: %d applications waiting, oldest since %s (%s)",
		d.Pending, d.OldestApplied.Format(time.RFC3339), d.OldestAge.Truncate(time.Minute))
}

// Run computes the digest once
func (j *PendingDigestJob) Run(ctx context.Context) (Digest, error) {
	count, oldest, err := j.apps.PendingStats(ctx)
	if err != nil {
		return Digest{}, err
	}
	d := Digest{Pending: count, OldestApplied: oldest}
	if oldest != nil {
		d.OldestAge = j.now().Sub(*oldest)
	}
	return d, nil
}
