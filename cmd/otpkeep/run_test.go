package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/otpkeep/otpkeep/internal/account"
	"github.com/otpkeep/otpkeep/internal/otp"
	"github.com/otpkeep/otpkeep/internal/vault"
)

func newRunApp() (*App, *bytes.Buffer, *bytes.Buffer, *int) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	exitCode := -1
	app := &App{
		Vault:           vault.New(&memKV{data: make(map[string][]byte)}),
		Engine:          otp.NewEngine(),
		Exit:            func(code int) { exitCode = code },
		Stdout:          stdout,
		Stderr:          stderr,
		ReadSecret:      func() ([]byte, error) { return []byte("JBSWY3DPEHPK3PXP"), nil },
		CopyToClipboard: func(string) error { return nil },
		VersionInfo:     VersionInfo{Version: "test", Commit: "abc", Date: "today"},
	}
	return app, stdout, stderr, &exitCode
}

func TestRunVersion(t *testing.T) {
	app, stdout, _, _ := newRunApp()

	run(app, []string{"otpkeep", "-version"})

	if !strings.Contains(stdout.String(), "otpkeep version test") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	app, stdout, _, _ := newRunApp()

	run(app, []string{"otpkeep"})

	if !strings.Contains(stdout.String(), "Usage:") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunAddThenList(t *testing.T) {
	app, stdout, _, exitCode := newRunApp()

	run(app, []string{"otpkeep", "-add", "-issuer", "GitHub", "-label", "alice", "-secret", "JBSWY3DPEHPK3PXP"})
	if *exitCode != -1 {
		t.Fatalf("exit code = %d", *exitCode)
	}

	stdout.Reset()
	run(app, []string{"otpkeep", "-list"})
	if !strings.Contains(stdout.String(), "GitHub") {
		t.Errorf("list output = %q", stdout.String())
	}
}

func TestRunUpdateOnlyTouchesSetFlags(t *testing.T) {
	app, _, _, _ := newRunApp()
	ctx := context.Background()

	added, err := app.Vault.AddAccount(ctx, account.New("GitHub", "alice", "JBSWY3DPEHPK3PXP"))
	if err != nil {
		t.Fatalf("AddAccount: %v", err)
	}

	run(app, []string{"otpkeep", "-update", added.ID, "-issuer", "GitLab"})

	accounts, err := app.Vault.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if accounts[0].Issuer != "GitLab" {
		t.Errorf("Issuer = %q, want GitLab", accounts[0].Issuer)
	}
	// Flags not on the command line stay untouched.
	if accounts[0].Label != "alice" || accounts[0].Secret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("unset fields changed: %+v", accounts[0])
	}
}

func TestRunDelete(t *testing.T) {
	app, _, _, _ := newRunApp()
	ctx := context.Background()

	added, _ := app.Vault.AddAccount(ctx, account.New("GitHub", "alice", "JBSWY3DPEHPK3PXP"))

	run(app, []string{"otpkeep", "-delete", added.ID})

	accounts, _ := app.Vault.Accounts(ctx)
	if len(accounts) != 0 {
		t.Errorf("accounts = %+v", accounts)
	}
}

func TestRunCode(t *testing.T) {
	app, stdout, _, _ := newRunApp()

	added, _ := app.Vault.AddAccount(context.Background(), account.New("GitHub", "alice", "JBSWY3DPEHPK3PXP"))

	run(app, []string{"otpkeep", "-code", added.ID})

	if !strings.Contains(stdout.String(), "remaining") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRunUnknownAccountExitsNonZero(t *testing.T) {
	app, _, stderr, exitCode := newRunApp()

	run(app, []string{"otpkeep", "-code", "no-such-id"})

	if *exitCode != 1 {
		t.Errorf("exit code = %d, want 1", *exitCode)
	}
	if !strings.Contains(stderr.String(), "no account") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

// newDiskApp leaves Vault unattached so run opens the on-disk store
// itself, the way production invocations do.
func newDiskApp() (*App, *int) {
	exitCode := -1
	return &App{
		Engine:          otp.NewEngine(),
		Exit:            func(code int) { exitCode = code },
		Stdout:          &bytes.Buffer{},
		Stderr:          &bytes.Buffer{},
		ReadSecret:      func() ([]byte, error) { return []byte("JBSWY3DPEHPK3PXP"), nil },
		CopyToClipboard: func(string) error { return nil },
	}, &exitCode
}

func TestRunClosesStoreOnSuccess(t *testing.T) {
	app, exitCode := newDiskApp()
	dbPath := filepath.Join(t.TempDir(), "otpkeep.db")

	run(app, []string{"otpkeep", "-db", dbPath, "-list"})

	if *exitCode != -1 {
		t.Fatalf("exit code = %d", *exitCode)
	}
	// The sqlite handle was released before run returned.
	if _, err := app.Vault.Accounts(context.Background()); err == nil {
		t.Error("store still open after run returned")
	}
}

func TestRunClosesStoreOnCommandFailure(t *testing.T) {
	app, exitCode := newDiskApp()
	dbPath := filepath.Join(t.TempDir(), "otpkeep.db")

	run(app, []string{"otpkeep", "-db", dbPath, "-code", "no-such-id"})

	if *exitCode != 1 {
		t.Fatalf("exit code = %d, want 1", *exitCode)
	}
	// Failure paths release the handle too, before the exit hook fires.
	if _, err := app.Vault.Accounts(context.Background()); err == nil {
		t.Error("store still open after failed command")
	}
}

func TestRunPassword(t *testing.T) {
	app, stdout, _, _ := newRunApp()

	run(app, []string{"otpkeep", "-password", "-pw-length", "20", "-pw-no-symbols"})

	pw := strings.TrimSpace(stdout.String())
	if len(pw) != 20 {
		t.Errorf("password %q, want length 20", pw)
	}
	for _, c := range pw {
		if strings.ContainsRune("!@#$%^&*()-_=+[]{};:,.<>?", c) {
			t.Errorf("symbol %q despite -pw-no-symbols", c)
		}
	}
}
