package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latam-scholars/status-cli/internal/model"
)

type fakeFetcher struct {
	calls  []string
	onCall func(call int, ctx context.Context)
}

func (f *fakeFetcher) Fetch(ctx context.Context, rec model.Record) model.Result {
	f.calls = append(f.calls, rec.RegNumber)
	if f.onCall != nil {
		f.onCall(len(f.calls), ctx)
	}
	res := model.NewResult(rec)
	res.Processed = true
	return res
}

func testRecords(tokens ...string) []model.Record {
	recs := make([]model.Record, len(tokens))
	for i, tok := range tokens {
		recs[i] = model.Record{RegNumber: tok, Email: "a@b.c", RowIndex: i + 2}
	}
	return recs
}

func TestProcess_OneResultPerRecordInOrder(t *testing.T) {
	fetcher := &fakeFetcher{}
	coord := New(fetcher, 0, nil)

	records := testRecords("ECU-1/25", "ECU-2/25", "ECU-3/25")
	results := coord.Process(context.Background(), records)

	require.Len(t, results, len(records))
	for i, res := range results {
		assert.Equal(t, records[i].RegNumber, res.RegNumber)
	}
	assert.Equal(t, []string{"ECU-1/25", "ECU-2/25", "ECU-3/25"}, fetcher.calls)
}

func TestProcess_EmptyInput(t *testing.T) {
	coord := New(&fakeFetcher{}, 0, nil)
	assert.Nil(t, coord.Process(context.Background(), nil))
}

func TestProcess_ProgressReported(t *testing.T) {
	type call struct {
		completed, total int
		reg              string
	}
	var calls []call

	coord := New(&fakeFetcher{}, 0, func(completed, total int, latest model.Result) {
		calls = append(calls, call{completed, total, latest.RegNumber})
	})
	coord.Process(context.Background(), testRecords("ECU-1/25", "ECU-2/25"))

	require.Len(t, calls, 2)
	assert.Equal(t, call{1, 2, "ECU-1/25"}, calls[0])
	assert.Equal(t, call{2, 2, "ECU-2/25"}, calls[1])
}

func TestProcess_PanickingProgressDoesNotAbort(t *testing.T) {
	coord := New(&fakeFetcher{}, 0, func(int, int, model.Result) {
		panic("observer bug")
	})

	results := coord.Process(context.Background(), testRecords("ECU-1/25", "ECU-2/25"))
	assert.Len(t, results, 2)
}

// A stop during record k lets that fetch finish and halts before k+1.
func TestProcess_CancellationBetweenRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var inFlightCancelled bool
	fetcher := &fakeFetcher{
		onCall: func(call int, fetchCtx context.Context) {
			if call == 2 {
				cancel()
				inFlightCancelled = fetchCtx.Err() != nil
			}
		},
	}

	coord := New(fetcher, 0, nil)
	results := coord.Process(ctx, testRecords("ECU-1/25", "ECU-2/25", "ECU-3/25"))

	assert.Len(t, results, 2)
	assert.Equal(t, []string{"ECU-1/25", "ECU-2/25"}, fetcher.calls)
	assert.False(t, inFlightCancelled, "the in-flight fetch must not observe the stop")
}

func TestProcess_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	results := New(fetcher, 0, nil).Process(ctx, testRecords("ECU-1/25"))

	assert.Empty(t, results)
	assert.Empty(t, fetcher.calls)
}
