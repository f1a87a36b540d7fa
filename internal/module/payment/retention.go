package payment

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetentionJob periodically purges processed webhook events older than
// the retention window. The window must exceed the gateway's redelivery
// horizon or dedupe protection is lost.
type RetentionJob struct {
	repo      Repository
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	stop      chan struct{}
	done      chan struct{}
}

// NewRetentionJob creates a new retention job.
func NewRetentionJob(repo Repository, retention time.Duration, logger *zap.Logger) *RetentionJob {
	return &RetentionJob{
		repo:      repo,
		retention: retention,
		interval:  time.Hour,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the purge loop. Call Stop to terminate it.
func (j *RetentionJob) Start() {
	go j.run()
}

// Stop terminates the purge loop and waits for it to exit.
func (j *RetentionJob) Stop() {
	close(j.stop)
	<-j.done
}

func (j *RetentionJob) run() {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.purge()
		case <-j.stop:
			return
		}
	}
}

func (j *RetentionJob) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	n, err := j.repo.PurgeWebhookEventsBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("webhook event purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.logger.Info("purged processed webhook events",
			zap.Int64("count", n),
			zap.Time("cutoff", cutoff))
	}
}
