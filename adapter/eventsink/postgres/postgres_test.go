package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipeo/dipeo-core/bus"
)

func TestSink_RecordInsertsEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS execution_events")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	sink, err := NewWithPool(context.Background(), mock, "")
	require.NoError(t, err)

	ev := bus.Event{Seq: 1, Kind: bus.KindNodeCompleted, NodeID: "n1", Timestamp: time.Now(), Data: map[string]any{"x": 1}}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO execution_events")).
		WithArgs(ev.Seq, string(ev.NodeID), string(ev.Kind), ev.Timestamp, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = sink.Record(ev)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
