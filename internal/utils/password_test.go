package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	assert.Equal(t, 10, h.Cost, "cost floor")

	digest, err := h.Hash("Abcdef1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Abcdef1!", digest)

	assert.True(t, h.Verify(digest, "Abcdef1!"))
	assert.False(t, h.Verify(digest, "Abcdef1?"))
	assert.False(t, h.Verify("not-a-bcrypt-digest", "Abcdef1!"))
}
