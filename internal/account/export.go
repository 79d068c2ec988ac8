package account

import (
	"encoding/json"
	"errors"
	"time"
)

// ExportVersion is the payload format version written by Export.
const ExportVersion = "1.0"

// ErrInvalidFormat reports an import payload missing its version or
// accounts field.
var ErrInvalidFormat = errors.New("invalid export format: version and accounts are required")

// ExportPayload is the full-registry interchange envelope. ExportedAt
// marshals as RFC 3339.
type ExportPayload struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exportedAt"`
	Accounts   []Account      `json:"accounts"`
	Settings   map[string]any `json:"settings,omitempty"`
}

// ImportSummary is the result value of an import. Failures are
// reported here, never raised to the caller.
type ImportSummary struct {
	Success  bool   `json:"success"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// Export captures the ordered collection and free-form settings into
// an interchange payload.
func Export(accounts []Account, settings map[string]any, now time.Time) ExportPayload {
	out := make([]Account, len(accounts))
	copy(out, accounts)

	return ExportPayload{
		Version:    ExportVersion,
		ExportedAt: now,
		Accounts:   out,
		Settings:   settings,
	}
}

// Import merges payload.Accounts into the snapshot. Records whose
// identifier already exists are skipped; existing records are never
// overwritten. The new snapshot and a summary are returned; a payload
// without version or accounts fails the summary without touching the
// snapshot.
func Import(accounts []Account, payload ExportPayload) ([]Account, ImportSummary) {
	if payload.Version == "" || payload.Accounts == nil {
		return accounts, ImportSummary{Success: false, Error: ErrInvalidFormat.Error()}
	}

	existing := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		existing[a.ID] = struct{}{}
	}

	out := make([]Account, len(accounts), len(accounts)+len(payload.Accounts))
	copy(out, accounts)

	var imported, skipped int
	for _, a := range payload.Accounts {
		if _, ok := existing[a.ID]; ok {
			skipped++
			continue
		}
		existing[a.ID] = struct{}{}
		out = append(out, a)
		imported++
	}

	return out, ImportSummary{Success: true, Imported: imported, Skipped: skipped}
}

// ImportJSON decodes raw payload bytes and merges them. Malformed JSON
// is converted into a failed summary like any other import fault.
func ImportJSON(accounts []Account, data []byte) ([]Account, ImportSummary) {
	var payload ExportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return accounts, ImportSummary{Success: false, Error: err.Error()}
	}
	return Import(accounts, payload)
}
