package dbtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayRoundTrip(t *testing.T) {
	in := StringArray{"/assets/a.jpg", "/assets/b c.jpg"}
	v, err := in.Value()
	require.NoError(t, err)

	var out StringArray
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	var empty StringArray
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
	require.NoError(t, out.Scan([]byte("{}")))
	assert.Empty(t, out)
}
