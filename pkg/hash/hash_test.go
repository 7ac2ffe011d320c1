package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	h, err := HashPassword("1qaz2wsx3edc")
	require.NoError(t, err)
	assert.NotEqual(t, "1qaz2wsx3edc", h)
	assert.True(t, CheckPassword(h, "1qaz2wsx3edc"))
	assert.False(t, CheckPassword(h, "wrong"))
}
