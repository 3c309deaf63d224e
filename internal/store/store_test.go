package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voxcart/internal/history"
	"voxcart/internal/list"
)

// failingKV rejects every write.
type failingKV struct {
	MemoryKV
}

func (f *failingKV) Set(string, []byte) error {
	return errors.New("disk full")
}

func TestWriterCoalescesAndFlushes(t *testing.T) {
	t.Parallel()

	kv := NewMemoryKV()
	w := NewWriter(kv, time.Hour, nil)
	w.Put("k", []byte("one"))
	w.Put("k", []byte("two"))

	_, ok, err := kv.Get("k")
	require.NoError(t, err)
	require.False(t, ok, "write should still be pending")

	w.Flush()
	value, ok, err := kv.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("two"), value)
}

func TestWriterFlushesOnTimer(t *testing.T) {
	t.Parallel()

	kv := NewMemoryKV()
	w := NewWriter(kv, 5*time.Millisecond, nil)
	w.Put("k", []byte("v"))

	require.Eventually(t, func() bool {
		_, ok, _ := kv.Get("k")
		return ok
	}, time.Second, time.Millisecond)
}

func TestWriterCloseFlushesAndStops(t *testing.T) {
	t.Parallel()

	kv := NewMemoryKV()
	w := NewWriter(kv, time.Hour, nil)
	w.Put("k", []byte("v"))
	w.Close()

	_, ok, err := kv.Get("k")
	require.NoError(t, err)
	require.True(t, ok)

	w.Put("k2", []byte("late"))
	w.Flush()
	_, ok, err = kv.Get("k2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWriterReportsFirstFailureOnly(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var warned []Warning
	w := NewWriter(&failingKV{}, time.Hour, func(warning Warning) {
		mu.Lock()
		defer mu.Unlock()
		warned = append(warned, warning)
	})

	w.Put("a", []byte("1"))
	w.Flush()
	w.Put("b", []byte("2"))
	w.Flush()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, warned, 1)
	require.Equal(t, "write", warned[0].Op)
}

func TestStoreLoadDefaults(t *testing.T) {
	t.Parallel()

	s := New(NewMemoryKV(), time.Hour, nil)
	state := s.Load()

	require.Len(t, state.Snapshot.Lists, 1)
	require.Equal(t, list.DefaultListName, state.Snapshot.Active().Name)
	require.Equal(t, list.FilterAll, state.Filter)
	require.True(t, state.TTSEnabled)
	require.Empty(t, state.Staples)
	require.Empty(t, state.History)
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	kv := NewMemoryKV()
	s := New(kv, time.Hour, nil)

	state := s.Load()
	items, _, _ := list.AddText(state.Snapshot.Items(), "2 dozen eggs")
	snap := state.Snapshot.WithItems(items)

	s.SaveSnapshot(snap)
	s.SaveFilter(list.FilterCompleted)
	s.SaveTTS(false)
	s.SaveVoice("samantha")
	s.SaveStaples([]list.Staple{{ID: "s1", Name: "milk"}})
	s.SaveHistory([]history.Entry{{Name: "eggs", Count: 2, LastAddedAt: time.Now()}})
	s.Close()

	loaded := New(kv, time.Hour, nil).Load()
	require.Equal(t, snap.ActiveListID, loaded.Snapshot.ActiveListID)
	require.Len(t, loaded.Snapshot.Items(), 1)
	require.Equal(t, "eggs", loaded.Snapshot.Items()[0].Text)
	require.Equal(t, 2.0, loaded.Snapshot.Items()[0].Quantity)
	require.Equal(t, "dozen", loaded.Snapshot.Items()[0].Unit)
	require.Equal(t, list.FilterCompleted, loaded.Filter)
	require.False(t, loaded.TTSEnabled)
	require.Equal(t, "samantha", loaded.Voice)
	require.Len(t, loaded.Staples, 1)
	require.Len(t, loaded.History, 1)
	require.Equal(t, "eggs", loaded.History[0].Name)
}

func TestStoreIgnoresUnknownFilter(t *testing.T) {
	t.Parallel()

	kv := NewMemoryKV()
	raw, err := encodeValue(scalarVersion, "sideways")
	require.NoError(t, err)
	require.NoError(t, kv.Set(keyFilter, raw))

	state := New(kv, time.Hour, nil).Load()
	require.Equal(t, list.FilterAll, state.Filter)
}
