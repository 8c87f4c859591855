package service

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownIdentity is returned by the directory verifier when the claimed
// identity is not registered.
var ErrUnknownIdentity = errors.New("unknown identity")

// OpenVerifier accepts every non-empty identity. This is the default
// verifier: the relay trusts the platform in front of it to have already
// authenticated the user, so the handshake only needs a usable key.
type OpenVerifier struct{}

// NewOpenVerifier creates a new OpenVerifier.
func NewOpenVerifier() *OpenVerifier {
	return &OpenVerifier{}
}

// Verify always accepts.
func (v *OpenVerifier) Verify(ctx context.Context, identity string) error {
	return nil
}

// DirectoryVerifier accepts only identities present in a backing directory.
type DirectoryVerifier struct {
	identityRepo IIdentityRepository
}

// NewDirectoryVerifier creates a new DirectoryVerifier.
func NewDirectoryVerifier(identityRepo IIdentityRepository) *DirectoryVerifier {
	return &DirectoryVerifier{identityRepo: identityRepo}
}

// Verify checks the directory for the claimed identity.
func (v *DirectoryVerifier) Verify(ctx context.Context, identity string) error {
	ok, err := v.identityRepo.Exists(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to look up identity: %w", err)
	}
	if !ok {
		return ErrUnknownIdentity
	}
	return nil
}
