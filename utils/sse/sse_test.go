package sse

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, SendSnapshot(w, "7", map[string]int{"materials": 2}))
	assert.Equal(t, "id: 7\nevent: snapshot\ndata: {\"materials\":2}\n\n", buf.String())

	buf.Reset()
	require.NoError(t, Send(w, Event{Data: "plain", Retry: 3000}))
	assert.Equal(t, "retry: 3000\ndata: plain\n\n", buf.String())

	buf.Reset()
	require.NoError(t, SendError(w, errors.New("boom")))
	assert.Contains(t, buf.String(), "event: error\n")
	assert.Contains(t, buf.String(), `"message":"boom"`)

	buf.Reset()
	require.NoError(t, SendKeepAlive(w))
	assert.Equal(t, ": ping\n\n", buf.String())
}
