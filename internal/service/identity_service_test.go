package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentityRepo struct {
	known map[string]bool
	err   error
}

func (f *fakeIdentityRepo) Exists(ctx context.Context, identity string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.known[identity], nil
}

func TestOpenVerifierAcceptsAnyIdentity(t *testing.T) {
	v := NewOpenVerifier()
	assert.NoError(t, v.Verify(context.Background(), "anyone@x.com"))
}

func TestDirectoryVerifier(t *testing.T) {
	repo := &fakeIdentityRepo{known: map[string]bool{"a@x.com": true}}
	v := NewDirectoryVerifier(repo)

	assert.NoError(t, v.Verify(context.Background(), "a@x.com"))

	err := v.Verify(context.Background(), "ghost@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestDirectoryVerifierWrapsLookupError(t *testing.T) {
	repoErr := errors.New("connection refused")
	v := NewDirectoryVerifier(&fakeIdentityRepo{err: repoErr})

	err := v.Verify(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, repoErr)
	assert.NotErrorIs(t, err, ErrUnknownIdentity)
}
