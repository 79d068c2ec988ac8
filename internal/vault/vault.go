// Package vault ties the account registry to the key-value store.
// Every mutation follows the read-entire, transform, write-entire
// pattern; a single-writer mutex serializes mutations so concurrent
// callers cannot lose each other's updates.
package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/otpkeep/otpkeep/internal/account"
	"github.com/otpkeep/otpkeep/internal/password"
	"github.com/otpkeep/otpkeep/internal/store"
)

// KV is the persistence surface the vault needs: last-write-wins get
// and set of opaque blobs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Vault owns the account collection and application settings stored in
// the KV.
type Vault struct {
	kv    KV
	mu    sync.Mutex
	loads singleflight.Group

	// now is a seam for tests.
	now func() time.Time
}

// New returns a Vault over the given KV.
func New(kv KV) *Vault {
	return &Vault{kv: kv, now: time.Now}
}

// Accounts returns the current ordered account snapshot. Concurrent
// reads of the same key are coalesced into one store round trip.
func (v *Vault) Accounts(ctx context.Context) ([]account.Account, error) {
	res, err, _ := v.loads.Do(store.KeyAccounts, func() (any, error) {
		return v.loadAccounts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]account.Account), nil
}

func (v *Vault) loadAccounts(ctx context.Context) ([]account.Account, error) {
	data, err := v.kv.Get(ctx, store.KeyAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	if data == nil {
		return []account.Account{}, nil
	}

	var accounts []account.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	return accounts, nil
}

func (v *Vault) saveAccounts(ctx context.Context, accounts []account.Account) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if err := v.kv.Set(ctx, store.KeyAccounts, data); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}

// AddAccount appends record with a fresh identifier if it has none,
// returning the stored record.
func (v *Vault) AddAccount(ctx context.Context, record account.Account) (account.Account, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.loadAccounts(ctx)
	if err != nil {
		return account.Account{}, err
	}

	if record.ID == "" {
		record = account.New(record.Issuer, record.Label, record.Secret)
	}

	updated := account.Add(accounts, record, v.now())
	if err := v.saveAccounts(ctx, updated); err != nil {
		return account.Account{}, err
	}
	return updated[len(updated)-1], nil
}

// UpdateAccount merges partial over the record with the given id. An
// unknown id is a silent no-op.
func (v *Vault) UpdateAccount(ctx context.Context, id string, partial account.Partial) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.loadAccounts(ctx)
	if err != nil {
		return err
	}
	return v.saveAccounts(ctx, account.Update(accounts, id, partial))
}

// DeleteAccount removes the record with the given id. An unknown id is
// a silent no-op.
func (v *Vault) DeleteAccount(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.loadAccounts(ctx)
	if err != nil {
		return err
	}
	return v.saveAccounts(ctx, account.Delete(accounts, id))
}

// Export captures the full registry and settings into an interchange
// payload.
func (v *Vault) Export(ctx context.Context) (account.ExportPayload, error) {
	accounts, err := v.Accounts(ctx)
	if err != nil {
		return account.ExportPayload{}, err
	}
	settings, err := v.Settings(ctx)
	if err != nil {
		return account.ExportPayload{}, err
	}
	return account.Export(accounts, settings, v.now()), nil
}

// Import merges raw payload bytes into the registry. All failures,
// including store faults, are converted into the summary; Import never
// returns an error to the caller.
func (v *Vault) Import(ctx context.Context, data []byte) account.ImportSummary {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.loadAccounts(ctx)
	if err != nil {
		return account.ImportSummary{Success: false, Error: err.Error()}
	}

	merged, summary := account.ImportJSON(accounts, data)
	if !summary.Success {
		return summary
	}

	if err := v.saveAccounts(ctx, merged); err != nil {
		return account.ImportSummary{Success: false, Error: err.Error()}
	}
	return summary
}

// Settings returns the free-form application settings object. An
// absent key yields an empty map.
func (v *Vault) Settings(ctx context.Context) (map[string]any, error) {
	data, err := v.kv.Get(ctx, store.KeySettings)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if data == nil {
		return map[string]any{}, nil
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

// SetSettings replaces the settings object.
func (v *Vault) SetSettings(ctx context.Context, settings map[string]any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return v.kv.Set(ctx, store.KeySettings, data)
}

// PasswordPrefs returns the stored password-generation preferences, or
// the defaults when none were saved yet.
func (v *Vault) PasswordPrefs(ctx context.Context) (password.Prefs, error) {
	data, err := v.kv.Get(ctx, store.KeyPasswordPrefs)
	if err != nil {
		return password.Prefs{}, fmt.Errorf("failed to load password prefs: %w", err)
	}
	if data == nil {
		return password.DefaultPrefs(), nil
	}

	var prefs password.Prefs
	if err := json.Unmarshal(data, &prefs); err != nil {
		return password.Prefs{}, fmt.Errorf("failed to decode password prefs: %w", err)
	}
	return prefs, nil
}

// SetPasswordPrefs replaces the stored preferences.
func (v *Vault) SetPasswordPrefs(ctx context.Context, prefs password.Prefs) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode password prefs: %w", err)
	}
	return v.kv.Set(ctx, store.KeyPasswordPrefs, data)
}
