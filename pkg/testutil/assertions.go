package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorContains checks that err contains the expected substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), expected)
	}
}

// RequireErrorAs fails unless err unwraps to target's type; target is filled in.
func RequireErrorAs(t *testing.T, err error, target any) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.As(err, target), "expected %T in chain, got %T: %v", target, err, err)
}
