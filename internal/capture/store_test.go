package capture

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decoyfs/internal/common"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCaptureRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	w, err := s.Open("2026-03-14 09:26:53 - loot-bin")
	require.NoError(t, err)

	n, err := w.WriteChunk([]byte("first "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	n, err = w.WriteChunk([]byte("second"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, int64(12), w.Written())

	require.NoError(t, w.Close())

	got, err := s.ReadBack("2026-03-14 09:26:53 - loot-bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("first second"), got)
}

func TestOpenExistingNameFails(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	w, err := s.Open("dup")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = s.Open("dup")
	assert.ErrorIs(t, err, common.ErrExists)

	// The original capture is untouched by the failed open.
	got, err := s.ReadBack("dup")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenRaceExactlyOneWinner(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := s.Open("contested")
			errs[i] = err
			if err == nil {
				_, _ = w.WriteChunk([]byte("winner"))
				_ = w.Close()
			}
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, common.ErrExists)
		}
	}
	assert.Equal(t, 1, wins)

	got, err := s.ReadBack("contested")
	require.NoError(t, err)
	assert.Equal(t, []byte("winner"), got)
}

func TestCloseIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	w, err := s.Open("once")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestStoreLockRejectsSecondOpener(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = NewStore(dir)
	assert.Error(t, err)
}

func TestReadBackMissing(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.ReadBack("never-captured")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestIndexRecordsUploads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	idx, err := OpenIndex(filepath.Join(dir, "uploads.db"))
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Record(ctx, &UploadRecord{
		SessionID:    "s-1",
		Protocol:     "ftp",
		OriginalName: "loot.bin",
		StoredName:   "2026-03-14 09:26:53 - loot-bin",
		Size:         12,
	}))
	require.NoError(t, idx.Record(ctx, &UploadRecord{
		SessionID:    "s-2",
		Protocol:     "ftp",
		OriginalName: "other.bin",
		StoredName:   "2026-03-14 09:26:54 - other-bin",
		Size:         3,
	}))

	recent, err := idx.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	mine, err := idx.BySession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "loot.bin", mine[0].OriginalName)
	assert.Equal(t, int64(12), mine[0].Size)
}
