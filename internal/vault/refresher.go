package vault

import (
	"context"
	"sync"
	"time"

	"github.com/otpkeep/otpkeep/internal/account"
	"github.com/otpkeep/otpkeep/internal/otp"
)

// Code is one account's freshly computed code. Err carries a per-entry
// generation failure (a bad secret does not stop the other entries).
type Code struct {
	Account   account.Account
	Code      string
	Remaining int
	Err       error
}

// Refresher periodically recomputes the codes for every account and
// hands each batch to a callback. Stop is explicit and idempotent.
type Refresher struct {
	vault    *Vault
	engine   *otp.Engine
	interval time.Duration

	stop chan struct{}
	once sync.Once
}

// NewRefresher returns a Refresher driving fn about once per interval.
// A non-positive interval defaults to one second.
func NewRefresher(v *Vault, engine *otp.Engine, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Refresher{
		vault:    v,
		engine:   engine,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Run emits an immediate first batch, then one per tick, until the
// context ends or Stop is called. The first snapshot error aborts the
// loop so callers notice a broken store right away.
func (r *Refresher) Run(ctx context.Context, fn func([]Code)) error {
	codes, err := r.Snapshot(ctx)
	if err != nil {
		return err
	}
	fn(codes)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case <-ticker.C:
			codes, err := r.Snapshot(ctx)
			if err != nil {
				return err
			}
			fn(codes)
		}
	}
}

// Stop ends the loop. Stopping an already-stopped refresher is a
// no-op.
func (r *Refresher) Stop() {
	r.once.Do(func() { close(r.stop) })
}

// Snapshot computes the current code for every account in display
// order.
func (r *Refresher) Snapshot(ctx context.Context) ([]Code, error) {
	accounts, err := r.vault.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]Code, 0, len(accounts))
	for _, a := range accounts {
		code, err := r.engine.GenerateCode(a.Secret, otp.GenerateOpts{
			Digits: a.Digits,
			Period: a.Period,
		})
		codes = append(codes, Code{
			Account:   a,
			Code:      code,
			Remaining: otp.SecondsRemaining(a.Period),
			Err:       err,
		})
	}
	return codes, nil
}
