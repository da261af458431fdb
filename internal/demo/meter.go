// Package demo meters anonymous trial usage. A visitor gets a hard quota
// of requests and talk-time seconds without an account; the counters are
// persisted through a Store (a browser cookie in production) so reloads
// do not reset them.
package demo

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrExpired: the quota is used up; the caller must force sign-up.
	ErrExpired = errors.New("demo quota exhausted")
	// ErrNoSession: no demo record exists to record usage against.
	ErrNoSession = errors.New("no active demo session")
)

type Usage struct {
	Requests int `json:"requests"`
	TalkTime int `json:"talkTime"` // seconds
}

type Limits struct {
	Requests int
	TalkTime int // seconds
}

// Exceeded reports whether either counter has reached its limit.
func (l Limits) Exceeded(u Usage) bool {
	return u.Requests >= l.Requests || u.TalkTime >= l.TalkTime
}

// Store persists a single usage record. Load returns nil when no record
// exists. The meter never deletes a record; dropping it is up to the
// storage itself (cookie expiry, or a real sign-in).
type Store interface {
	Load() (*Usage, error)
	Save(Usage) error
}

type Meter struct {
	limits Limits
	store  Store
}

func NewMeter(limits Limits, store Store) *Meter {
	return &Meter{limits: limits, store: store}
}

// Start begins a demo session. A persisted record that already meets a
// limit refuses the session and is kept, so the quota survives reloads;
// otherwise the counters are reset to zero and persisted.
func (m *Meter) Start() (*Usage, error) {
	prior, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if prior != nil && m.limits.Exceeded(*prior) {
		return nil, ErrExpired
	}
	fresh := Usage{}
	if err := m.store.Save(fresh); err != nil {
		return nil, err
	}
	return &fresh, nil
}

// Record adds the deltas and persists. Reaching either limit ends the
// session and returns the final counters with ErrExpired; the exceeded
// record itself is persisted, so Start keeps refusing until the record
// expires on its own or the visitor signs in for real.
func (m *Meter) Record(requests, talkSeconds int) (*Usage, error) {
	u, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNoSession
	}
	u.Requests += requests
	u.TalkTime += talkSeconds
	if err := m.store.Save(*u); err != nil {
		return nil, err
	}
	if m.limits.Exceeded(*u) {
		return u, ErrExpired
	}
	return u, nil
}

// Ticker accrues one talk-time second per delivered tick while visible()
// holds, mirroring the old page-visibility interval. The tick source is
// injected so accrual is testable without waiting on a wall clock. It
// returns when the session expires, disappears, or ctx is cancelled.
func (m *Meter) Ticker(ctx context.Context, ticks <-chan time.Time, visible func() bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			if visible != nil && !visible() {
				continue
			}
			if _, err := m.Record(0, 1); err != nil {
				return err
			}
		}
	}
}
