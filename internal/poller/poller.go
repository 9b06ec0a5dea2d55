package poller

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// Scheduler runs f after d. clock.Clock satisfies it.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) *clock.Timer
}

// Readiness is anything that can report whether it has finished loading.
type Readiness interface {
	IsReady() bool
}

// RetryState is the backoff position of one polling chain.
type RetryState struct {
	Delay   time.Duration
	Ceiling time.Duration
}

// Next doubles the delay for the following attempt.
func (r RetryState) Next() RetryState {
	return RetryState{Delay: r.Delay * 2, Ceiling: r.Ceiling}
}

// Exhausted reports whether the delay is past the ceiling and must not be
// scheduled.
func (r RetryState) Exhausted() bool {
	return r.Delay > r.Ceiling
}

// Poller waits for a Readiness with exponential backoff and a hard cutoff.
type Poller struct {
	scheduler Scheduler
	initial   time.Duration
	ceiling   time.Duration
}

func New(scheduler Scheduler, initial, ceiling time.Duration) *Poller {
	if scheduler == nil {
		scheduler = clock.New()
	}
	return &Poller{
		scheduler: scheduler,
		initial:   initial,
		ceiling:   ceiling,
	}
}

// WhenReady runs fn as soon as target is ready. If it is not ready yet the
// check is retried after 500ms, 1s, 2s, 4s (for the default settings); once
// the next delay would pass the ceiling it gives up without calling fn.
// Cancelling ctx stops the chain.
func (p *Poller) WhenReady(ctx context.Context, target Readiness, fn func()) {
	p.attempt(ctx, target, RetryState{Delay: p.initial, Ceiling: p.ceiling}, fn)
}

func (p *Poller) attempt(ctx context.Context, target Readiness, state RetryState, fn func()) {
	if ctx.Err() != nil {
		log.Debugf("Readiness polling cancelled: %v", ctx.Err())
		return
	}

	if target.IsReady() {
		fn()
		return
	}

	if state.Exhausted() {
		log.Debugf("🛑 Map still not ready after backoff reached %v, giving up", state.Ceiling)
		return
	}

	log.Debugf("⏳ Map not ready, retrying in %v", state.Delay)
	p.scheduler.AfterFunc(state.Delay, func() {
		p.attempt(ctx, target, state.Next(), fn)
	})
}
