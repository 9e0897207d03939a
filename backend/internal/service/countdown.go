package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/itchan-dev/contestbot/shared/domain"
	"github.com/itchan-dev/contestbot/shared/logger"
	"github.com/itchan-dev/contestbot/shared/metrics"
)

// StatusCloser closes the manual status once the submission window is over.
type StatusCloser interface {
	AutoClose(ctx context.Context) (bool, error)
}

// Countdown periodically re-evaluates the phase clock, auto-closes the
// manual status after the submission deadline and stops itself once voting
// is over too.
type Countdown struct {
	clock    PhaseClock
	closer   StatusCloser
	notifier Notifier
	channel  string
	now      func() time.Time

	running         sync.Mutex // held for the duration of one tick
	sawVotingOpen   bool
	votingAnnounced bool
	done            chan struct{}
	log             *slog.Logger
}

func NewCountdown(clock PhaseClock, closer StatusCloser, notifier Notifier, channel string, now func() time.Time) *Countdown {
	if now == nil {
		now = time.Now
	}
	return &Countdown{
		clock:    clock,
		closer:   closer,
		notifier: notifier,
		channel:  channel,
		now:      now,
		done:     make(chan struct{}),
		log:      logger.Component("countdown"),
	}
}

// StartBackgroundCountdown runs one tick immediately and then one per
// interval until the contest is finished or ctx is cancelled.
func (c *Countdown) StartBackgroundCountdown(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	c.log.Info("started countdown",
		"interval", interval,
		"submission_deadline", c.clock.Evaluate(c.now()).SubmissionDeadline,
		"voting_deadline", c.clock.Evaluate(c.now()).VotingDeadline)

	go func() {
		defer close(c.done)
		defer ticker.Stop()
		if c.runTick(ctx) {
			return
		}
		for {
			select {
			case <-ticker.C:
				if c.runTick(ctx) {
					return
				}
			case <-ctx.Done():
				c.log.Info("countdown shutting down gracefully")
				return
			}
		}
	}()
}

// Done is closed when the background countdown has stopped.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

func (c *Countdown) runTick(ctx context.Context) bool {
	finished, err := c.Tick(ctx)
	if err != nil {
		c.log.Error("countdown tick failed", "error", err)
		return false
	}
	if finished {
		metrics.CountdownTicksTotal.WithLabelValues("finished").Inc()
		c.log.Info("contest finished, countdown stopped")
	}
	return finished
}

// Tick evaluates the phase once and reports whether both windows are over.
// A tick that starts while another one is still running is skipped.
func (c *Countdown) Tick(ctx context.Context) (bool, error) {
	if !c.running.TryLock() {
		metrics.CountdownTicksTotal.WithLabelValues("skipped").Inc()
		c.log.Warn("previous countdown tick still running, skipping")
		return false, nil
	}
	defer c.running.Unlock()
	metrics.CountdownTicksTotal.WithLabelValues("evaluated").Inc()

	snap := c.clock.Evaluate(c.now())
	if !snap.SubmissionsOpen {
		closed, err := c.closer.AutoClose(ctx)
		if err != nil {
			return false, fmt.Errorf("auto-close: %w", err)
		}
		if closed {
			text := "🔒 Submissions are now CLOSED."
			if snap.VotingOpen {
				text += " Voting closes in " + FormatDuration(snap.VotingDeadline.Sub(snap.Now).Milliseconds()) + "."
			}
			c.announce(ctx, text)
		}
	}

	if snap.VotingOpen {
		c.sawVotingOpen = true
	}
	if !snap.Finished() {
		return false, nil
	}
	if c.sawVotingOpen && !c.votingAnnounced {
		c.votingAnnounced = true
		c.announce(ctx, "🏁 Voting is over. Results coming soon!")
	}
	return true, nil
}

// EvaluateOnDemand returns the current phase without touching any state.
func (c *Countdown) EvaluateOnDemand(now time.Time) domain.PhaseSnapshot {
	return c.clock.Evaluate(now)
}

func (c *Countdown) Now() time.Time {
	return c.now()
}

func (c *Countdown) announce(ctx context.Context, text string) {
	if c.notifier == nil || c.channel == "" {
		return
	}
	if err := c.notifier.Notify(ctx, c.channel, text); err != nil {
		c.log.Warn("countdown announcement failed", "error", err)
	}
}

const (
	msPerMinute = int64(time.Minute / time.Millisecond)
	msPerHour   = int64(time.Hour / time.Millisecond)
	msPerDay    = 24 * msPerHour
)

// FormatDuration renders a millisecond delta as whole days, hours and
// minutes, e.g. "1d 2h 3m". Negative deltas render as zero.
func FormatDuration(ms int64) string {
	ms = max(ms, 0)
	days := ms / msPerDay
	hours := ms % msPerDay / msPerHour
	minutes := ms % msPerHour / msPerMinute
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
