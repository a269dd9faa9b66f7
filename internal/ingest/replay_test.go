package ingest

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidtrack/internal/protocol"
)

var testKey = []byte("0123456789abcdef")

func TestReplay_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, testKey, protocol.OpInitEnv, []byte(`{"new_player_id":1}`)))
	require.NoError(t, WriteFrame(&buf, testKey, protocol.OpDeath, []byte(`{"entity_id":2}`)))

	r, err := NewReplay(&buf, testKey)
	require.NoError(t, err)

	pkt, err := r.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, protocol.OpInitEnv, pkt.Opcode)
	require.JSONEq(t, `{"new_player_id":1}`, string(pkt.Payload))

	pkt, err = r.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, protocol.OpDeath, pkt.Opcode)
	require.JSONEq(t, `{"entity_id":2}`, string(pkt.Payload))

	_, err = r.Recv(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestReplay_ContextCancelled(t *testing.T) {
	r, err := NewReplay(bytes.NewReader(nil), testKey)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Recv(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
