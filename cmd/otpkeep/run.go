package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/otpkeep/otpkeep/internal/account"
	"github.com/otpkeep/otpkeep/internal/env"
	"github.com/otpkeep/otpkeep/internal/password"
	"github.com/otpkeep/otpkeep/internal/store"
	"github.com/otpkeep/otpkeep/internal/vault"
)

// run is the testable entrypoint for the application
func run(app *App, args []string) {
	fs := flag.NewFlagSet(args[0], flag.ExitOnError)
	fs.Usage = func() { printUsage(app) }

	// Commands
	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show usage")
	listAccounts := fs.Bool("list", false, "List all accounts")
	addAccount := fs.Bool("add", false, "Add an account (see -issuer, -label, -secret)")
	updateID := fs.String("update", "", "Update the account with this ID")
	deleteID := fs.String("delete", "", "Delete the account with this ID")
	codeID := fs.String("code", "", "Print the current code for the account with this ID")
	watch := fs.Bool("watch", false, "Continuously display codes for all accounts")
	importPath := fs.String("import", "", "Import accounts from a JSON export file")
	exportPath := fs.String("export", "", "Export all accounts to a JSON file")
	scanPath := fs.String("scan", "", "Add an account from a QR code image (PNG or JPEG)")
	qrID := fs.String("qr", "", "Write a provisioning QR code for the account with this ID")
	genPassword := fs.Bool("password", false, "Generate a random password")

	// Account fields
	issuer := fs.String("issuer", "", "Account issuer (service name)")
	label := fs.String("label", "", "Account label (usually the user name)")
	secret := fs.String("secret", "", "Base32 secret (omit to be prompted)")
	digits := fs.Int("digits", 0, "Code digit count (default 6)")
	period := fs.Int("period", 0, "Code period in seconds (default 30)")
	algorithm := fs.String("algorithm", "", "Hash algorithm tag (default SHA1)")

	// Modifiers
	clip := fs.Bool("clip", false, "Copy the code to the clipboard instead of printing it")
	out := fs.String("out", "account.png", "Output path for -qr")
	dbPath := fs.String("db", env.DBPath(), "Path to the otpkeep database")

	// Password options
	pwLength := fs.Int("pw-length", 0, "Password length (default from saved preferences)")
	pwNoLower := fs.Bool("pw-no-lower", false, "Exclude lowercase letters")
	pwNoUpper := fs.Bool("pw-no-upper", false, "Exclude uppercase letters")
	pwNoDigits := fs.Bool("pw-no-digits", false, "Exclude digits")
	pwNoSymbols := fs.Bool("pw-no-symbols", false, "Exclude symbols")
	pwSavePrefs := fs.Bool("pw-save", false, "Save the password options as preferences")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintf(app.Stderr, "❌ error parsing arguments: %v\n", err)
		app.Exit(1)
		return
	}

	if *showVersion {
		app.ShowVersion()
		return
	}
	if *showHelp {
		printUsage(app)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Tests pre-attach a vault; otherwise open the on-disk store now.
	// The store is closed explicitly before any exit, because app.Exit
	// is os.Exit in production and deferred closes would never run.
	var closeStore func() error
	if app.Vault == nil {
		if err := env.EnsureParentDir(*dbPath); err != nil {
			fmt.Fprintf(app.Stderr, "❌ %v\n", err)
			app.Exit(1)
			return
		}
		s, err := store.Open(*dbPath)
		if err != nil {
			fmt.Fprintf(app.Stderr, "❌ %v\n", err)
			app.Exit(1)
			return
		}
		closeStore = s.Close
		app.Vault = vault.New(s)
	}

	// Only the set field flags participate in an update.
	partial := collectPartial(fs, issuer, label, secret, digits, period, algorithm)

	pwOverride := func(p *password.Prefs) {
		if *pwLength > 0 {
			p.Length = *pwLength
		}
		if *pwNoLower {
			p.Lower = false
		}
		if *pwNoUpper {
			p.Upper = false
		}
		if *pwNoDigits {
			p.Digits = false
		}
		if *pwNoSymbols {
			p.Symbols = false
		}
	}

	var err error
	switch {
	case *listAccounts:
		err = app.ListAccounts(ctx)
	case *addAccount:
		err = app.AddAccount(ctx, *issuer, *label, *secret, *digits, *period, *algorithm)
	case *updateID != "":
		err = app.UpdateAccount(ctx, *updateID, partial)
	case *deleteID != "":
		err = app.DeleteAccount(ctx, *deleteID)
	case *codeID != "":
		err = app.ShowCode(ctx, *codeID, *clip)
	case *watch:
		err = app.Watch(ctx)
	case *importPath != "":
		err = app.ImportAccounts(ctx, *importPath)
	case *exportPath != "":
		err = app.ExportAccounts(ctx, *exportPath)
	case *scanPath != "":
		err = app.ScanQR(ctx, *scanPath)
	case *qrID != "":
		err = app.ShowQR(ctx, *qrID, *out)
	case *genPassword:
		err = app.GeneratePassword(ctx, pwOverride, *pwSavePrefs)
	default:
		if closeStore != nil {
			closeStore()
		}
		printUsage(app)
		return
	}

	if closeStore != nil {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = cerr
		}
	}

	if err != nil {
		fmt.Fprintf(app.Stderr, "❌ %v\n", err)
		app.Exit(1)
	}
}

// collectPartial builds an update request from exactly the field flags
// the user set on the command line.
func collectPartial(fs *flag.FlagSet, issuer, label, secret *string, digits, period *int, algorithm *string) account.Partial {
	var partial account.Partial
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "issuer":
			partial.Issuer = issuer
		case "label":
			partial.Label = label
		case "secret":
			partial.Secret = secret
		case "digits":
			partial.Digits = digits
		case "period":
			partial.Period = period
		case "algorithm":
			partial.Algorithm = algorithm
		}
	})
	return partial
}

func printUsage(app *App) {
	fmt.Fprint(app.Stdout, `otpkeep - authenticator account vault and TOTP code generator

Usage:
  otpkeep -list
  otpkeep -add -issuer NAME -label USER [-secret BASE32] [-digits N] [-period N]
  otpkeep -code ID [-clip]
  otpkeep -watch
  otpkeep -update ID [-issuer NAME] [-label USER] [-secret BASE32] ...
  otpkeep -delete ID
  otpkeep -scan IMAGE.png
  otpkeep -qr ID [-out FILE.png]
  otpkeep -export FILE.json
  otpkeep -import FILE.json
  otpkeep -password [-pw-length N] [-pw-no-symbols] [-pw-save]
  otpkeep -version

The database lives at the platform config directory by default;
override with -db PATH or the OTPKEEP_DB environment variable.
`)
}
