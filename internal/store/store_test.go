package store

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Get(context.Background(), "no-such-key")
	if err != nil {
		t.Fatalf("Get on missing key: %v", err)
	}
	if got != nil {
		t.Errorf("Get on missing key = %v, want nil", got)
	}
}

func TestSetGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := []byte(`{"accounts":[{"id":"abc","issuer":"GitHub"}]}`)
	if err := s.Set(ctx, KeyAccounts, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, KeyAccounts)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get = %s, want %s", got, want)
	}
}

func TestSetLastWriteWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, v := range []string{"first", "second", "third"} {
		if err := s.Set(ctx, KeySettings, []byte(v)); err != nil {
			t.Fatalf("Set(%q): %v", v, err)
		}
	}

	got, err := s.Get(ctx, KeySettings)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "third" {
		t.Errorf("Get = %q, want %q", got, "third")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyAccounts, []byte("accounts-blob")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, KeyPasswordPrefs, []byte("prefs-blob")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, KeyAccounts)
	if err != nil || string(got) != "accounts-blob" {
		t.Errorf("Get(accounts) = %q, %v", got, err)
	}
	// Settings never written: still its default.
	if got, err := s.Get(ctx, KeySettings); err != nil || got != nil {
		t.Errorf("Get(settings) = %q, %v, want nil", got, err)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeySettings, []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(ctx, KeySettings); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := s.Get(ctx, KeySettings); err != nil || got != nil {
		t.Errorf("Get after delete = %v, %v", got, err)
	}

	// Deleting an absent key is fine.
	if err := s.Delete(ctx, "no-such-key"); err != nil {
		t.Errorf("Delete on missing key: %v", err)
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Highly repetitive payload exercises the zstd path well past the
	// tiny-blob case.
	want := []byte(strings.Repeat(`{"issuer":"GitHub","digits":6},`, 2000))
	if err := s.Set(ctx, KeyAccounts, want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, KeyAccounts)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("round trip corrupted payload: %d bytes vs %d", len(got), len(want))
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(ctx, KeyAccounts, []byte("durable")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, KeyAccounts)
	if err != nil || string(got) != "durable" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}
