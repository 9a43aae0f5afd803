// Package budget owns the canonical budget document of a session. It applies
// mutations, persists every change locally in the background and talks to
// the remote persistence API on explicit save and at session start.
package budget

import (
	"context"
	"errors"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

var (
	ErrNotAuthenticated = errors.New("identity is not authenticated")
	ErrNoRemote         = errors.New("no remote persistence configured")
)

// KeyPrefix namespaces the local persistence key.
const KeyPrefix = "economilenial_budget"

// AnonymousIdentity is used in the local key when no identity is known.
const AnonymousIdentity = "anonymous"

// StorageKey returns the namespaced local key for an identity.
func StorageKey(identity string) string {
	if identity == "" {
		identity = AnonymousIdentity
	}
	return KeyPrefix + ":" + identity
}

// LocalStore is a single-process key/value store holding encoded documents.
type LocalStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Remote is the persistence API keyed by identity. Load reports false when
// nothing has been saved yet.
type Remote interface {
	Load(ctx context.Context, identity string) (core.Document, bool, error)
	Save(ctx context.Context, identity string, doc core.Document) error
}

// Attributes are the host-provided rendering attributes.
type Attributes struct {
	ShowExport bool
	Extra      map[string]string
}

// InitContext is what the host passes when a session starts.
type InitContext struct {
	IsAuthenticated   bool
	IdentityID        string
	InitialAttributes Attributes
}
