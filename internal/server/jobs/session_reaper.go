// Package jobs holds background jobs run on the server's cron scheduler.
package jobs

import (
	"context"
	"time"

	"github.com/notekeeper/notekeeper/internal/logging"
)

const reapTimeout = time.Minute

// SessionReaper is implemented by *services.SessionManager.
type SessionReaper interface {
	ReapExpired(ctx context.Context) (int64, error)
}

// ReapSessionsJob deletes expired session rows. Expired sessions already
// resolve as absent, so this only reclaims storage.
type ReapSessionsJob struct {
	ctx    context.Context
	reaper SessionReaper
	log    logging.Logger
}

func NewReapSessionsJob(ctx context.Context, reaper SessionReaper, log logging.Logger) *ReapSessionsJob {
	return &ReapSessionsJob{ctx: ctx, reaper: reaper, log: log.With("job", "reap_sessions")}
}

// Run implements cron.Job.
func (j *ReapSessionsJob) Run() {
	ctx, cancel := context.WithTimeout(j.ctx, reapTimeout)
	defer cancel()

	n, err := j.reaper.ReapExpired(ctx)
	if err != nil {
		j.log.Error(ctx, "reap expired sessions failed", "error", err)
		return
	}
	if n > 0 {
		j.log.Info(ctx, "expired sessions reaped", "count", n)
	}
}
