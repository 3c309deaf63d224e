package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"voxcart/internal/category"
	"voxcart/internal/dispatch"
	"voxcart/internal/export"
	"voxcart/internal/history"
	"voxcart/internal/intent"
	"voxcart/internal/list"
	"voxcart/internal/quantity"
	"voxcart/internal/speech"
	"voxcart/internal/store"
	"voxcart/internal/suggest"
)

// Engine binds the pure list operations to loaded state, persistence,
// and spoken feedback. All methods are safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	state   store.State
	speaker *speech.Speaker
	logger  *slog.Logger

	historyMax  int
	suggestOpts suggest.Options
}

// NewEngine loads persisted state and wires feedback speech. speaker
// and logger may be nil.
func NewEngine(st *store.Store, speaker *speech.Speaker, logger *slog.Logger, historyMax int, suggestOpts suggest.Options) *Engine {
	if historyMax <= 0 {
		historyMax = history.DefaultMaxEntries
	}
	if suggestOpts.Limit <= 0 {
		suggestOpts = suggest.DefaultOptions()
	}

	e := &Engine{
		store:       st,
		state:       st.Load(),
		speaker:     speaker,
		logger:      logger,
		historyMax:  historyMax,
		suggestOpts: suggestOpts,
	}
	if speaker != nil {
		speaker.SetEnabled(e.state.TTSEnabled)
		if e.state.Voice != "" {
			speaker.SetVoice(e.state.Voice)
		}
	}
	return e
}

// Say parses one voice-style command, applies it, persists the result,
// and voices the feedback.
func (e *Engine) Say(ctx context.Context, text string) list.Feedback {
	e.mu.Lock()
	cmd := intent.Parse(text)
	outcome := dispatch.Dispatch(e.state.Snapshot, cmd, text)

	e.state.Snapshot = outcome.Snapshot
	if outcome.Changed {
		e.store.SaveSnapshot(e.state.Snapshot)
	}
	if outcome.FilterChanged {
		e.state.Filter = outcome.Filter
		e.store.SaveFilter(e.state.Filter)
	}
	for _, input := range outcome.History {
		e.state.History = history.Record(e.state.History, input, e.historyMax)
	}
	if len(outcome.History) > 0 {
		e.store.SaveHistory(e.state.History)
	}
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Info("command dispatched",
			"kind", string(cmd.Kind),
			"changed", outcome.Changed,
			"feedback", outcome.Feedback.Message,
			"severity", string(outcome.Feedback.Severity))
	}

	e.speak(ctx, outcome.Feedback)
	return outcome.Feedback
}

// AddItem appends one item from free text, recording it in history.
func (e *Engine) AddItem(ctx context.Context, text string) list.Feedback {
	e.mu.Lock()
	items, fb, ok := list.AddText(e.state.Snapshot.Items(), text)
	if ok {
		e.state.Snapshot = e.state.Snapshot.WithItems(items)
		e.store.SaveSnapshot(e.state.Snapshot)

		parsed := quantity.Parse(text)
		e.state.History = history.Record(e.state.History, history.Input{
			Name:     list.NormalizeSpace(parsed.Name),
			Quantity: parsed.Quantity,
			Unit:     parsed.Unit,
			Category: category.Infer(parsed.Name),
		}, e.historyMax)
		e.store.SaveHistory(e.state.History)
	}
	e.mu.Unlock()

	e.speak(ctx, fb)
	return fb
}

// ToggleItem flips one item's completed flag.
func (e *Engine) ToggleItem(ctx context.Context, id string) list.Feedback {
	return e.applyItems(ctx, func(items []list.Item) ([]list.Item, list.Feedback, bool) {
		return list.Toggle(items, id)
	})
}

// EditItem replaces one item's text, re-parsing quantity and category.
func (e *Engine) EditItem(ctx context.Context, id, text string) list.Feedback {
	return e.applyItems(ctx, func(items []list.Item) ([]list.Item, list.Feedback, bool) {
		return list.Edit(items, id, list.EditInput{Text: text})
	})
}

// DeleteItem removes one item by id.
func (e *Engine) DeleteItem(ctx context.Context, id string) list.Feedback {
	return e.applyItems(ctx, func(items []list.Item) ([]list.Item, list.Feedback, bool) {
		return list.Delete(items, id)
	})
}

// MoveItem nudges an item within its category group.
func (e *Engine) MoveItem(ctx context.Context, id string, direction list.Direction) list.Feedback {
	return e.applyItems(ctx, func(items []list.Item) ([]list.Item, list.Feedback, bool) {
		return list.Move(items, id, direction)
	})
}

// ClearCompleted drops every completed item from the active list.
func (e *Engine) ClearCompleted(ctx context.Context) list.Feedback {
	return e.applyItems(ctx, func(items []list.Item) ([]list.Item, list.Feedback, bool) {
		return list.ClearCompleted(items)
	})
}

// SetFilter switches the visibility filter and persists it.
func (e *Engine) SetFilter(filter list.Filter) {
	e.mu.Lock()
	e.state.Filter = filter
	e.store.SaveFilter(filter)
	e.mu.Unlock()
}

// Snapshot returns the current list-management state.
func (e *Engine) Snapshot() list.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot
}

// Filter returns the active visibility filter.
func (e *Engine) Filter() list.Filter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Filter
}

// Counts reports active/completed/total item counts for the active list.
func (e *Engine) Counts() (active, completed, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot.Counts()
}

// Export renders the active list in the requested format.
func (e *Engine) Export(opts export.Options) (string, error) {
	e.mu.Lock()
	items := e.state.Snapshot.Items()
	e.mu.Unlock()
	return export.Render(items, opts)
}

// CreateList adds a named list and makes it active.
func (e *Engine) CreateList(ctx context.Context, name string) list.Feedback {
	return e.applySnapshot(ctx, func(snap list.Snapshot) (list.Snapshot, list.Feedback, bool) {
		return snap.CreateList(name)
	})
}

// SelectList switches the active list by name.
func (e *Engine) SelectList(ctx context.Context, name string) list.Feedback {
	return e.applySnapshot(ctx, func(snap list.Snapshot) (list.Snapshot, list.Feedback, bool) {
		return snap.SelectList(name)
	})
}

// RenameList renames the active list.
func (e *Engine) RenameList(ctx context.Context, name string) list.Feedback {
	return e.applySnapshot(ctx, func(snap list.Snapshot) (list.Snapshot, list.Feedback, bool) {
		return snap.RenameList(name)
	})
}

// DeleteList removes the active list unless it is the only one.
func (e *Engine) DeleteList(ctx context.Context) list.Feedback {
	return e.applySnapshot(ctx, func(snap list.Snapshot) (list.Snapshot, list.Feedback, bool) {
		next, fb, changed := snap.DeleteList()
		return next.EnsureActive(), fb, changed
	})
}

// Staples returns the saved staples.
func (e *Engine) Staples() []list.Staple {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]list.Staple, len(e.state.Staples))
	copy(out, e.state.Staples)
	return out
}

// AddStaple saves an item template for quick re-adding.
func (e *Engine) AddStaple(ctx context.Context, text string) list.Feedback {
	e.mu.Lock()
	staple, fb, ok := list.NewStaple(e.state.Staples, text)
	if ok {
		e.state.Staples = append(e.state.Staples, staple)
		e.store.SaveStaples(e.state.Staples)
	}
	e.mu.Unlock()

	e.speak(ctx, fb)
	return fb
}

// RemoveStaple deletes a staple by name.
func (e *Engine) RemoveStaple(ctx context.Context, name string) list.Feedback {
	e.mu.Lock()
	staples, fb, ok := list.RemoveStaple(e.state.Staples, name)
	if ok {
		e.state.Staples = staples
		e.store.SaveStaples(e.state.Staples)
	}
	e.mu.Unlock()

	e.speak(ctx, fb)
	return fb
}

// ApplyStaples adds every staple not already on the active list.
func (e *Engine) ApplyStaples(ctx context.Context) list.Feedback {
	e.mu.Lock()
	items, fb, added := list.AddStaples(e.state.Snapshot.Items(), e.state.Staples)
	if len(added) > 0 {
		e.state.Snapshot = e.state.Snapshot.WithItems(items)
		e.store.SaveSnapshot(e.state.Snapshot)
		for _, item := range added {
			e.state.History = history.Record(e.state.History, history.Input{
				Name:     item.Text,
				Quantity: item.Quantity,
				Unit:     item.Unit,
				Category: item.ResolvedCategory(),
			}, e.historyMax)
		}
		e.store.SaveHistory(e.state.History)
	}
	e.mu.Unlock()

	e.speak(ctx, fb)
	return fb
}

// Suggestions matches a partial item name against history, staples,
// and the current list.
func (e *Engine) Suggestions(query string) []suggest.Match {
	e.mu.Lock()
	candidates := make([]suggest.Candidate, 0, len(e.state.History)+len(e.state.Staples))
	for _, entry := range e.state.History {
		candidates = append(candidates, suggest.Candidate{
			Name:     entry.Name,
			Quantity: entry.Quantity,
			Unit:     entry.Unit,
			Source:   suggest.SourceHistory,
		})
	}
	for _, staple := range e.state.Staples {
		candidates = append(candidates, suggest.Candidate{
			Name:     staple.Name,
			Quantity: staple.Quantity,
			Unit:     staple.Unit,
			Source:   suggest.SourceStaple,
		})
	}
	for _, item := range e.state.Snapshot.Items() {
		candidates = append(candidates, suggest.Candidate{
			Name:     item.Text,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Source:   suggest.SourceList,
		})
	}
	opts := e.suggestOpts
	e.mu.Unlock()

	return suggest.Matches(query, candidates, opts)
}

// SetTTS toggles spoken feedback and persists the preference.
func (e *Engine) SetTTS(enabled bool) {
	e.mu.Lock()
	e.state.TTSEnabled = enabled
	e.store.SaveTTS(enabled)
	e.mu.Unlock()
	if e.speaker != nil {
		e.speaker.SetEnabled(enabled)
	}
}

// TTS reports whether spoken feedback is currently enabled.
func (e *Engine) TTS() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.TTSEnabled
}

// SetVoice persists the preferred text-to-speech voice. Empty resets to
// the speak command's default.
func (e *Engine) SetVoice(voice string) {
	e.mu.Lock()
	e.state.Voice = voice
	e.store.SaveVoice(voice)
	e.mu.Unlock()
	if e.speaker != nil {
		e.speaker.SetVoice(voice)
	}
}

// Voice returns the persisted voice preference, empty when unset.
func (e *Engine) Voice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Voice
}

// History returns the recently-added ledger, newest first.
func (e *Engine) History() []history.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return history.Recent(e.state.History)
}

// FrequentHistory returns the entries added more than once, most
// re-added first.
func (e *Engine) FrequentHistory() []history.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return history.Frequent(e.state.History)
}

// Flush forces pending writes out immediately.
func (e *Engine) Flush() {
	e.store.Flush()
}

// Close flushes state and releases the store.
func (e *Engine) Close() {
	e.store.Close()
}

func (e *Engine) applyItems(ctx context.Context, op func([]list.Item) ([]list.Item, list.Feedback, bool)) list.Feedback {
	e.mu.Lock()
	items, fb, changed := op(e.state.Snapshot.Items())
	if changed {
		e.state.Snapshot = e.state.Snapshot.WithItems(items)
		e.store.SaveSnapshot(e.state.Snapshot)
	}
	e.mu.Unlock()

	e.speak(ctx, fb)
	return fb
}

func (e *Engine) applySnapshot(ctx context.Context, op func(list.Snapshot) (list.Snapshot, list.Feedback, bool)) list.Feedback {
	e.mu.Lock()
	next, fb, changed := op(e.state.Snapshot)
	if changed {
		e.state.Snapshot = next
		e.store.SaveSnapshot(e.state.Snapshot)
	}
	e.mu.Unlock()

	e.speak(ctx, fb)
	return fb
}

func (e *Engine) speak(ctx context.Context, fb list.Feedback) {
	if e.speaker == nil || fb.Message == "" {
		return
	}
	e.speaker.Speak(ctx, fb.Message)
}

// Describe renders one line per list for the lists command.
func (e *Engine) Describe() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := make([]string, 0, len(e.state.Snapshot.Lists))
	for _, l := range e.state.Snapshot.Lists {
		marker := " "
		if l.ID == e.state.Snapshot.ActiveListID {
			marker = "*"
		}
		active := 0
		for _, item := range l.Items {
			if !item.Completed {
				active++
			}
		}
		lines = append(lines, fmt.Sprintf("%s %s (%d open, %d total)", marker, l.Name, active, len(l.Items)))
	}
	return lines
}
