// Package account defines the authenticator account record and the
// pure snapshot transforms over an ordered collection of records. The
// persistence layer owns the collection; every operation here takes
// the old snapshot and returns a new one without hidden mutation.
package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is a single authenticator entry. The ID is assigned at
// creation and never changes; Index records the original insertion
// position and survives persistence round trips.
type Account struct {
	ID        string    `json:"id"`
	Issuer    string    `json:"issuer"`
	Label     string    `json:"label"`
	Secret    string    `json:"secret"`
	Digits    int       `json:"digits"`
	Period    int       `json:"period"`
	Algorithm string    `json:"algorithm"`
	CreatedAt time.Time `json:"createdAt"`
	Index     int       `json:"index"`
}

// New returns an account with a fresh identifier and standard defaults
// applied to unset code parameters. CreatedAt and Index are assigned
// later, at insertion.
func New(issuer, label, secret string) Account {
	return Account{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Label:     label,
		Secret:    secret,
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
	}
}

// Partial carries the fields of an update request. Nil fields are left
// untouched by Update.
type Partial struct {
	Issuer    *string
	Label     *string
	Secret    *string
	Digits    *int
	Period    *int
	Algorithm *string
}

// Add appends record to the snapshot, assigning its creation timestamp
// and its display order (the current collection length).
func Add(accounts []Account, record Account, now time.Time) []Account {
	record.CreatedAt = now
	record.Index = len(accounts)

	out := make([]Account, len(accounts), len(accounts)+1)
	copy(out, accounts)
	return append(out, record)
}

// Update shallow-merges the set fields of partial over the record with
// the given id. An unknown id leaves the snapshot unchanged; callers
// cannot distinguish that from a successful merge.
func Update(accounts []Account, id string, partial Partial) []Account {
	out := make([]Account, len(accounts))
	copy(out, accounts)

	for i := range out {
		if out[i].ID != id {
			continue
		}
		if partial.Issuer != nil {
			out[i].Issuer = *partial.Issuer
		}
		if partial.Label != nil {
			out[i].Label = *partial.Label
		}
		if partial.Secret != nil {
			out[i].Secret = *partial.Secret
		}
		if partial.Digits != nil {
			out[i].Digits = *partial.Digits
		}
		if partial.Period != nil {
			out[i].Period = *partial.Period
		}
		if partial.Algorithm != nil {
			out[i].Algorithm = *partial.Algorithm
		}
		break
	}

	return out
}

// Delete removes the record with the given id. An unknown id is a
// silent no-op.
func Delete(accounts []Account, id string) []Account {
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// Find returns the record with the given id, or false.
func Find(accounts []Account, id string) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
