package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeenSetEvictsOldest(t *testing.T) {
	s := newSeenSet(2)
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.True(t, s.Add("c"))
	assert.True(t, s.Add("a"), "a was evicted")
	assert.False(t, s.Add("c"))
}

const duplicatedEvents = `id: e1
event: new-message
data: {"id":"e1","channel":"user-u1","event":"new-message","payload":{"quoteRequestId":"q1","message":{"id":"m1","content":"Price is 250","fromUser":{"name":"Sales","role":"ADMIN"}}}}

id: e1
event: new-message
data: {"id":"e1","channel":"user-u1","event":"new-message","payload":{"quoteRequestId":"q1","message":{"id":"m1","content":"Price is 250","fromUser":{"name":"Sales","role":"ADMIN"}}}}

: ping

id: e2
event: new-message
data: {"id":"e2","channel":"user-u1","event":"new-message","payload":{"quoteRequestId":"q1","message":{"id":"m1","content":"Price is 250","fromUser":{"name":"Sales","role":"ADMIN"}}}}

id: e3
event: status-update
data: {"id":"e3","channel":"user-u1","event":"status-update","payload":{"quoteRequestId":"q1","status":"QUOTED"}}

id: e4
event: status-update
data: {"id":"e4","channel":"user-u1","event":"status-update","payload":{"quoteRequestId":"q2","status":"REJECTED"}}

`

func TestWatchDropsDuplicates(t *testing.T) {
	base := startGateway(t, &fakeGateway{events: duplicatedEvents})
	path := filepath.Join(t.TempDir(), "state.yaml")

	out, err := run(t, path, base, "watch", "--once")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "Price is 250"))
	assert.Contains(t, out, "Sales (admin)")
	assert.Contains(t, out, "q1 status -> QUOTED")
	assert.Contains(t, out, "q2 status -> REJECTED")
}

func TestWatchFiltersByRequest(t *testing.T) {
	base := startGateway(t, &fakeGateway{events: duplicatedEvents})
	path := filepath.Join(t.TempDir(), "state.yaml")

	out, err := run(t, path, base, "watch", "--once", "--request", "q2")
	require.NoError(t, err)

	assert.NotContains(t, out, "Price is 250")
	assert.Contains(t, out, "q2 status -> REJECTED")
}

func TestWatchOnceReturnsStreamError(t *testing.T) {
	base := startGateway(t, &fakeGateway{})
	path := filepath.Join(t.TempDir(), "state.yaml")

	_, err := run(t, path, base+"/nope", "watch", "--once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
