package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_AppliesDefaultsForZeroValues(t *testing.T) {
	u := New(nil, Options{}, nil)
	require.Equal(t, DefaultOptions().BatchSize, u.opts.BatchSize)
	require.Equal(t, DefaultOptions().FlushInterval, u.opts.FlushInterval)
}

func TestUploader_Record_DropsWhenBufferFull(t *testing.T) {
	u := New(nil, Options{BatchSize: 2}, nil)
	capacity := cap(u.rowCh)
	require.Equal(t, 8, capacity) // BatchSize*4

	for i := 0; i < capacity; i++ {
		u.Record(HitRow{EncounterID: int64(i)})
	}
	require.Len(t, u.rowCh, capacity)

	// One more Record beyond capacity must not block the caller.
	done := make(chan struct{})
	go func() {
		u.Record(HitRow{EncounterID: 999})
		close(done)
	}()
	<-done

	require.Len(t, u.rowCh, capacity)
}
