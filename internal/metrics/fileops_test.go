package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordCountsExactly(t *testing.T) {
	collector := NewFileOpsCollector()

	const n = 20
	for i := 0; i < n; i++ {
		collector.Record(OpUpload, i%2 == 0, 100, 5)
	}

	snapshot := collector.Snapshot()
	upload := snapshot[OpUpload]
	require.EqualValues(t, n, upload.Count)
	require.EqualValues(t, n/2, upload.Failures)
	require.EqualValues(t, n*100, upload.TotalBytes)
	require.Len(t, upload.Durations, n)
}

func TestDurationWindowBounded(t *testing.T) {
	collector := NewFileOpsCollector()

	for i := 0; i < durationWindowSize; i++ {
		collector.Record(OpAccess, true, 0, float64(i))
	}
	window := collector.Snapshot()[OpAccess].Durations
	require.Len(t, window, durationWindowSize)
	require.Equal(t, 0.0, window[0])

	// The 1001st insertion evicts the oldest sample, not a random one.
	collector.Record(OpAccess, true, 0, 9999)
	window = collector.Snapshot()[OpAccess].Durations
	require.Len(t, window, durationWindowSize)
	require.Equal(t, 1.0, window[0])
	require.Equal(t, 9999.0, window[durationWindowSize-1])

	// Count keeps growing past the window.
	require.EqualValues(t, durationWindowSize+1, collector.Snapshot()[OpAccess].Count)
}

func TestP95NearestRank(t *testing.T) {
	collector := NewFileOpsCollector()

	// 10 samples: ceil(10*0.95)-1 = 9, the maximum value.
	for _, d := range []float64{40, 10, 100, 20, 70, 30, 90, 50, 80, 60} {
		collector.Record(OpDelete, true, 0, d)
	}
	require.Equal(t, 100.0, collector.Snapshot()[OpDelete].P95Duration)
}

func TestP95EdgeCases(t *testing.T) {
	require.Equal(t, 0.0, p95(nil))
	require.Equal(t, 42.0, p95([]float64{42}))
	// 20 samples: ceil(20*0.95)-1 = 18 → second largest.
	samples := make([]float64, 0, 20)
	for i := 1; i <= 20; i++ {
		samples = append(samples, float64(i))
	}
	require.Equal(t, 19.0, p95(samples))
}

func TestResetClearsState(t *testing.T) {
	collector := NewFileOpsCollector()
	collector.Record(OpUpload, true, 10, 1)
	collector.Record(OpDualRead, false, 0, 2)

	collector.Reset()
	require.Empty(t, collector.Snapshot())
}

func TestRecordConcurrent(t *testing.T) {
	collector := NewFileOpsCollector()

	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				collector.Record(OpAccess, true, 1, 1)
			}
		}()
	}
	wg.Wait()

	// No lost increments under concurrent writers.
	snapshot := collector.Snapshot()[OpAccess]
	require.EqualValues(t, workers*perWorker, snapshot.Count)
	require.EqualValues(t, workers*perWorker, snapshot.TotalBytes)
	require.Len(t, snapshot.Durations, durationWindowSize)
}
