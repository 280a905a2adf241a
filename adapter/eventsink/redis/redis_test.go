package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipeo/dipeo-core/bus"
)

func TestSink_RecordAppendsToStream(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	sink := New(Options{Addr: mr.Addr(), ExecutionID: "exec-123"})
	defer sink.Close()

	ev := bus.Event{Seq: 1, Kind: bus.KindNodeStarted, NodeID: "n1", Timestamp: time.Now(), Data: map[string]any{"k": "v"}}
	err = sink.Record(ev)
	require.NoError(t, err)

	mr.FastForward(0)
	assert.True(t, mr.Exists(sink.streamKey()))
}
