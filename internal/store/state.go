package store

import (
	"time"

	"voxcart/internal/history"
	"voxcart/internal/list"
)

// Storage keys. Each key is wrapped in its own versioned envelope.
const (
	keyLists      = "lists"
	keyActiveList = "active-list"
	keyFilter     = "filter"
	keyTTS        = "tts-enabled"
	keyVoice      = "voice"
	keyStaples    = "staples"
	keyHistory    = "history"
)

const scalarVersion = 1

// State is everything the application persists between runs.
type State struct {
	Snapshot   list.Snapshot
	Filter     list.Filter
	TTSEnabled bool
	Voice      string
	Staples    []list.Staple
	History    []history.Entry
}

// Store reads state eagerly and writes it through a debounced writer.
type Store struct {
	kv     KV
	writer *Writer
	warn   func(Warning)
}

// New wraps kv. warn receives non-fatal storage problems and may be nil.
func New(kv KV, debounce time.Duration, warn func(Warning)) *Store {
	return &Store{
		kv:     kv,
		writer: NewWriter(kv, debounce, warn),
		warn:   warn,
	}
}

// Load assembles the persisted state, falling back to sane defaults for
// any key that is missing or unreadable.
func (s *Store) Load() State {
	state := State{
		Filter:     list.FilterAll,
		TTSEnabled: true,
	}

	var lists []list.List
	if readValue(s.kv, keyLists, listsVersion, listsMigrations(), &lists, s.warn) {
		state.Snapshot.Lists = lists
	}
	var activeID string
	if readValue(s.kv, keyActiveList, scalarVersion, nil, &activeID, s.warn) {
		state.Snapshot.ActiveListID = activeID
	}
	state.Snapshot = state.Snapshot.EnsureActive()

	var filter string
	if readValue(s.kv, keyFilter, scalarVersion, nil, &filter, s.warn) && list.ValidFilter(filter) {
		state.Filter = list.Filter(filter)
	}

	readValue(s.kv, keyTTS, scalarVersion, nil, &state.TTSEnabled, s.warn)
	readValue(s.kv, keyVoice, scalarVersion, nil, &state.Voice, s.warn)
	readValue(s.kv, keyStaples, scalarVersion, nil, &state.Staples, s.warn)
	readValue(s.kv, keyHistory, scalarVersion, nil, &state.History, s.warn)

	return state
}

// SaveSnapshot schedules the lists and the active-list pointer.
func (s *Store) SaveSnapshot(snap list.Snapshot) {
	s.put(keyLists, listsVersion, snap.Lists)
	s.put(keyActiveList, scalarVersion, snap.ActiveListID)
}

// SaveFilter schedules the visibility filter.
func (s *Store) SaveFilter(filter list.Filter) {
	s.put(keyFilter, scalarVersion, string(filter))
}

// SaveTTS schedules the spoken-feedback preference.
func (s *Store) SaveTTS(enabled bool) {
	s.put(keyTTS, scalarVersion, enabled)
}

// SaveVoice schedules the preferred voice name.
func (s *Store) SaveVoice(voice string) {
	s.put(keyVoice, scalarVersion, voice)
}

// SaveStaples schedules the staples collection.
func (s *Store) SaveStaples(staples []list.Staple) {
	s.put(keyStaples, scalarVersion, staples)
}

// SaveHistory schedules the recently-added history.
func (s *Store) SaveHistory(entries []history.Entry) {
	s.put(keyHistory, scalarVersion, entries)
}

// Flush forces all scheduled writes out immediately.
func (s *Store) Flush() {
	s.writer.Flush()
}

// Close flushes pending writes and shuts the writer down.
func (s *Store) Close() {
	s.writer.Close()
}

func (s *Store) put(key string, version int, value any) {
	raw, err := encodeValue(version, value)
	if err != nil {
		report(s.warn, Warning{Op: "encode", Key: key, Message: err.Error()})
		return
	}
	s.writer.Put(key, raw)
}
