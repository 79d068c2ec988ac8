package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/otpkeep/otpkeep/internal/account"
	"github.com/otpkeep/otpkeep/internal/clipboard"
	"github.com/otpkeep/otpkeep/internal/otp"
	"github.com/otpkeep/otpkeep/internal/otpauth"
	"github.com/otpkeep/otpkeep/internal/password"
	"github.com/otpkeep/otpkeep/internal/qrscan"
	"github.com/otpkeep/otpkeep/internal/secure"
	"github.com/otpkeep/otpkeep/internal/vault"
)

// ExitFunc is a function type for exiting the program
type ExitFunc func(code int)

// App represents the main application
type App struct {
	Vault           *vault.Vault
	Engine          *otp.Engine
	Exit            ExitFunc
	Stdout          io.Writer
	Stderr          io.Writer
	ReadSecret      func() ([]byte, error)
	CopyToClipboard func(text string) error
	VersionInfo     VersionInfo
}

// VersionInfo contains version information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewDefaultApp creates a new App with default dependencies. The vault
// is attached later, once the database path flag is known.
func NewDefaultApp() *App {
	return &App{
		Engine: otp.NewEngine(),
		Exit:   os.Exit,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		ReadSecret: func() ([]byte, error) {
			return term.ReadPassword(int(syscall.Stdin))
		},
		CopyToClipboard: clipboard.Copy,
		VersionInfo: VersionInfo{
			Version: version,
			Commit:  commit,
			Date:    date,
		},
	}
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	fmt.Fprintf(a.Stdout, "otpkeep version %s (%s) built on %s\n",
		a.VersionInfo.Version, a.VersionInfo.Commit, a.VersionInfo.Date)
}

// ListAccounts prints every account in display order.
func (a *App) ListAccounts(ctx context.Context) error {
	accounts, err := a.Vault.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		fmt.Fprintln(a.Stdout, "No accounts yet. Add one with -add or -scan.")
		return nil
	}

	for _, acct := range accounts {
		fmt.Fprintf(a.Stdout, "  %-20s %-24s [ID: %s]\n", acct.Issuer, acct.Label, acct.ID)
	}
	return nil
}

// AddAccount stores a new account. An empty secret triggers a hidden
// terminal prompt.
func (a *App) AddAccount(ctx context.Context, issuer, label, secret string, digits, period int, algorithm string) error {
	if secret == "" {
		fmt.Fprint(a.Stderr, "🔑 Enter base32 secret (input hidden): ")
		secretBytes, err := a.ReadSecret()
		fmt.Fprintln(a.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		secret = strings.TrimSpace(string(secretBytes))
		secure.ZeroBytes(secretBytes)
	}

	// Reject bad secrets before they are persisted.
	if err := otp.ValidateSecret(secret); err != nil {
		return err
	}

	record := account.New(issuer, label, secret)
	if digits > 0 {
		record.Digits = digits
	}
	if period > 0 {
		record.Period = period
	}
	if algorithm != "" {
		record.Algorithm = algorithm
	}

	added, err := a.Vault.AddAccount(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to add account: %w", err)
	}

	fmt.Fprintf(a.Stdout, "✅ Added %s (%s) [ID: %s]\n", added.Issuer, added.Label, added.ID)
	return nil
}

// UpdateAccount applies the given partial field set to an account.
func (a *App) UpdateAccount(ctx context.Context, id string, partial account.Partial) error {
	if err := a.requireAccount(ctx, id); err != nil {
		return err
	}
	if err := a.Vault.UpdateAccount(ctx, id, partial); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	fmt.Fprintln(a.Stdout, "✅ Account updated")
	return nil
}

// DeleteAccount removes an account by identifier.
func (a *App) DeleteAccount(ctx context.Context, id string) error {
	if err := a.requireAccount(ctx, id); err != nil {
		return err
	}
	if err := a.Vault.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	fmt.Fprintln(a.Stdout, "✅ Account deleted")
	return nil
}

// requireAccount fails when no account with the given ID exists, so
// the user is told instead of getting a success message for a no-op.
func (a *App) requireAccount(ctx context.Context, id string) error {
	accounts, err := a.Vault.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	if _, ok := account.Find(accounts, id); !ok {
		return fmt.Errorf("no account with ID %q", id)
	}
	return nil
}

// ShowCode prints the current code for one account, optionally copying
// it to the clipboard instead.
func (a *App) ShowCode(ctx context.Context, id string, toClipboard bool) error {
	accounts, err := a.Vault.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	acct, ok := account.Find(accounts, id)
	if !ok {
		return fmt.Errorf("no account with ID %q", id)
	}

	code, err := a.Engine.GenerateCode(acct.Secret, otp.GenerateOpts{
		Digits: acct.Digits,
		Period: acct.Period,
	})
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	remaining := otp.SecondsRemaining(acct.Period)

	if toClipboard {
		if err := a.CopyToClipboard(code); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintf(a.Stderr, "✅ Code copied to clipboard (%ds remaining)\n", remaining)
		return nil
	}

	fmt.Fprintf(a.Stdout, "%s  (%ds remaining)\n", otp.FormatForDisplay(code), remaining)
	return nil
}

// Watch re-renders the codes of every account about once per second
// until ctx ends.
func (a *App) Watch(ctx context.Context) error {
	refresher := vault.NewRefresher(a.Vault, a.Engine, time.Second)

	err := refresher.Run(ctx, func(codes []vault.Code) {
		fmt.Fprintln(a.Stdout)
		for _, c := range codes {
			if c.Err != nil {
				fmt.Fprintf(a.Stdout, "  %-20s %-24s ❌ %v\n", c.Account.Issuer, c.Account.Label, c.Err)
				continue
			}
			fmt.Fprintf(a.Stdout, "  %-20s %-24s %s  (%ds)\n",
				c.Account.Issuer, c.Account.Label, otp.FormatForDisplay(c.Code), c.Remaining)
		}
	})
	if err != nil && ctx.Err() != nil {
		// Interrupted by the user, not a failure.
		return nil
	}
	return err
}

// ExportAccounts writes the full registry to path as JSON.
func (a *App) ExportAccounts(ctx context.Context, path string) error {
	payload, err := a.Vault.Export(ctx)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Fprintf(a.Stdout, "✅ Exported %d accounts to %s\n", len(payload.Accounts), path)
	return nil
}

// ImportAccounts merges an export file into the registry and reports
// the outcome. Import failures surface in the summary, not as faults.
func (a *App) ImportAccounts(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	summary := a.Vault.Import(ctx, data)
	if !summary.Success {
		fmt.Fprintf(a.Stderr, "❌ Import failed: %s\n", summary.Error)
		return nil
	}

	fmt.Fprintf(a.Stdout, "✅ Imported %d accounts, skipped %d already present\n",
		summary.Imported, summary.Skipped)
	return nil
}

// ScanQR adds an account from the provisioning QR code in an image
// file.
func (a *App) ScanQR(ctx context.Context, path string) error {
	params, err := qrscan.ScanProvisioningURI(path)
	if err != nil {
		return err
	}

	// A QR with a missing or empty secret would never produce a code.
	if err := otp.ValidateSecret(params.Secret); err != nil {
		return fmt.Errorf("scanned QR code is unusable: %w", err)
	}

	record := account.New(params.Issuer, params.Account, params.Secret)
	record.Digits = params.Digits
	record.Period = params.Period
	record.Algorithm = params.Algorithm

	added, err := a.Vault.AddAccount(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to add scanned account: %w", err)
	}

	fmt.Fprintf(a.Stdout, "✅ Added %s (%s) from QR code [ID: %s]\n",
		added.Issuer, added.Label, added.ID)
	return nil
}

// ShowQR writes an account's provisioning URI as a QR image, for
// moving the account to another device.
func (a *App) ShowQR(ctx context.Context, id, outPath string) error {
	accounts, err := a.Vault.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	acct, ok := account.Find(accounts, id)
	if !ok {
		return fmt.Errorf("no account with ID %q", id)
	}

	uri, err := otpauth.Build(otpauth.Params{
		Issuer:    acct.Issuer,
		Account:   acct.Label,
		Secret:    acct.Secret,
		Algorithm: acct.Algorithm,
		Digits:    acct.Digits,
		Period:    acct.Period,
	})
	if err != nil {
		return fmt.Errorf("failed to build provisioning URI: %w", err)
	}

	if err := qrscan.WritePNG(uri, outPath, 0); err != nil {
		return err
	}

	fmt.Fprintf(a.Stdout, "✅ QR code written to %s\n", outPath)
	return nil
}

// GeneratePassword produces a random password from the stored
// preferences, optionally overridden and re-saved.
func (a *App) GeneratePassword(ctx context.Context, override func(*password.Prefs), savePrefs bool) error {
	prefs, err := a.Vault.PasswordPrefs(ctx)
	if err != nil {
		return err
	}
	if override != nil {
		override(&prefs)
	}

	pw, err := password.Generate(prefs)
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}

	if savePrefs {
		if err := a.Vault.SetPasswordPrefs(ctx, prefs); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.Stdout, "%s\n", pw)
	fmt.Fprintf(a.Stderr, "Strength: %s\n", password.Score(pw))
	return nil
}
