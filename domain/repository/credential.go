package repository

import (
	"context"
	"errors"

	"creator-hub/domain/model"
)

// ErrCredentialNotFound is returned when neither credential layout holds a row
// for the requested creator and platform.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialLayout identifies which physical table satisfied a credential read.
// Two overlapping layouts exist: the current one keyed by creator identity and
// the legacy one keyed by the account-owner identity.
type CredentialLayout string

const (
	LayoutCurrent CredentialLayout = "current"
	LayoutLegacy  CredentialLayout = "legacy"
)

// ResolvedCredential carries a credential together with the layout it was read
// from, so a later write lands on the same physical row.
type ResolvedCredential struct {
	Credential *model.Credential
	Layout     CredentialLayout
}

// ICredential is the single repository over both credential layouts.
// Resolution prefers the current layout and falls back to legacy; the two are
// never merged.
type ICredential interface {
	// Resolve loads the live credential for (creatorID, platform) or
	// ErrCredentialNotFound.
	Resolve(ctx context.Context, creatorID, platform string) (*ResolvedCredential, error)

	// SaveToken writes the token fields of rc.Credential back to the layout
	// recorded in rc.
	SaveToken(ctx context.Context, rc *ResolvedCredential) error

	// Upsert creates or replaces the credential in the current layout. Used by
	// the OAuth connect callback.
	Upsert(ctx context.Context, cred *model.Credential) error

	// Delete removes the credential from both layouts (explicit disconnect).
	Delete(ctx context.Context, creatorID, platform string) error

	// ListByCreator returns the credentials visible for a creator, current
	// layout winning over legacy per platform.
	ListByCreator(ctx context.Context, creatorID string) ([]*model.Credential, error)
}
