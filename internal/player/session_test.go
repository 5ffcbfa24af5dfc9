package player

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cromfel/go-mpv/internal/config"
	"github.com/cromfel/go-mpv/internal/history"
	"github.com/cromfel/go-mpv/internal/logging"
	"github.com/cromfel/go-mpv/pkg/mpv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type propWrite struct {
	name  string
	value any
}

// fakeEngine scripts the engine side of a session: WaitEvent pops from a
// fixed event list and keeps returning shutdown once it runs dry.
type fakeEngine struct {
	mu       sync.Mutex
	events   []*mpv.Event
	idx      int
	commands [][]string
	props    []propWrite
	closed   bool
}

func (f *fakeEngine) Command(args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, args)
	return nil
}

func (f *fakeEngine) SetProperty(name string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props = append(f.props, propWrite{name: name, value: value})
	return nil
}

func (f *fakeEngine) ObserveProperty(uint64, string, mpv.Format) error { return nil }

func (f *fakeEngine) RequestLogMessages(string) error { return nil }

func (f *fakeEngine) WaitEvent(float64) *mpv.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx < len(f.events) {
		ev := f.events[f.idx]
		f.idx++
		return ev
	}
	return &mpv.Event{ID: mpv.EventShutdown}
}

func (f *fakeEngine) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeEngine) commandCalled(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cmd := range f.commands {
		if len(cmd) > 0 && cmd[0] == name {
			return true
		}
	}
	return false
}

func sessionTestCtx() context.Context {
	logger := logging.NewFromConfigValues("debug", "console")
	return logging.WithContext(context.Background(), logger)
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()

	store, err := history.Open(sessionTestCtx(), filepath.Join(t.TempDir(), "history.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestSession(eng *fakeEngine, cfg *config.Config, store *history.Store, opts Options) *Session {
	return &Session{
		client:  eng,
		cfg:     cfg,
		store:   store,
		opts:    opts,
		log:     zerolog.Nop(),
		updates: make(chan Status, statusBuffer),
	}
}

func propertyEvent(id uint64, name string, format mpv.Format, value any) *mpv.Event {
	return &mpv.Event{
		ID:            mpv.EventPropertyChange,
		ReplyUserdata: id,
		Property:      &mpv.PropertyData{Name: name, Format: format, Value: value},
	}
}

func TestResumePoint(t *testing.T) {
	cfg := config.ResumeConfig{Enabled: true, MinPositionSeconds: 30, TailSkipSeconds: 60}

	tests := []struct {
		name  string
		entry history.Entry
		want  float64
	}{
		{name: "mid file resumes", entry: history.Entry{PositionSecs: 120, DurationSecs: 600}, want: 120},
		{name: "below minimum starts over", entry: history.Entry{PositionSecs: 12, DurationSecs: 600}, want: 0},
		{name: "near the end counts as finished", entry: history.Entry{PositionSecs: 580, DurationSecs: 600}, want: 0},
		{name: "zero position", entry: history.Entry{PositionSecs: 0, DurationSecs: 600}, want: 0},
		{name: "unknown duration still resumes", entry: history.Entry{PositionSecs: 414, DurationSecs: 0}, want: 414},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resumePoint(&tt.entry, cfg))
		})
	}
}

type fakeOptionSetter struct {
	strings map[string]string
	typed   map[string]any
}

func newFakeOptionSetter() *fakeOptionSetter {
	return &fakeOptionSetter{strings: map[string]string{}, typed: map[string]any{}}
}

func (f *fakeOptionSetter) SetOption(name string, value any) error {
	f.typed[name] = value
	return nil
}

func (f *fakeOptionSetter) SetOptionString(name, value string) error {
	f.strings[name] = value
	return nil
}

func TestApplyEngineOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		set := newFakeOptionSetter()
		require.NoError(t, applyEngineOptions(set, config.DefaultConfig(), Options{Volume: -1}))

		assert.Equal(t, "no", set.strings["terminal"])
		assert.Equal(t, "auto-safe", set.strings["hwdec"])
		assert.Equal(t, "30", set.strings["cache-secs"])
		assert.NotContains(t, set.strings, "vo")
		assert.NotContains(t, set.strings, "video")
		assert.Equal(t, int64(100), set.typed["volume"])
		assert.Equal(t, false, set.typed["mute"])
	})

	t.Run("explicit video output", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Player.VideoOutput = "gpu-next"

		set := newFakeOptionSetter()
		require.NoError(t, applyEngineOptions(set, cfg, Options{Volume: -1}))
		assert.Equal(t, "gpu-next", set.strings["vo"])
	})

	t.Run("no video", func(t *testing.T) {
		set := newFakeOptionSetter()
		require.NoError(t, applyEngineOptions(set, config.DefaultConfig(), Options{NoVideo: true, Volume: -1}))
		assert.Equal(t, "no", set.strings["video"])
	})

	t.Run("volume override", func(t *testing.T) {
		set := newFakeOptionSetter()
		require.NoError(t, applyEngineOptions(set, config.DefaultConfig(), Options{Volume: 55}))
		assert.Equal(t, int64(55), set.typed["volume"])
	})

	t.Run("muted", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Player.Muted = true

		set := newFakeOptionSetter()
		require.NoError(t, applyEngineOptions(set, cfg, Options{Volume: -1}))
		assert.Equal(t, true, set.typed["mute"])
	})
}

func TestSessionPlayIssuesLoadfile(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(eng, config.DefaultConfig(), newTestStore(t), Options{Volume: -1})

	require.NoError(t, s.Play(sessionTestCtx(), "filereader:///media/a.mkv"))

	require.Len(t, eng.commands, 1)
	assert.Equal(t, []string{"loadfile", "filereader:///media/a.mkv", "replace"}, eng.commands[0])
}

func TestSessionRunAppliesResumePosition(t *testing.T) {
	ctx := sessionTestCtx()
	store := newTestStore(t)
	uri := "filereader:///media/movie.mkv"
	require.NoError(t, store.SavePosition(ctx, uri, 120, 600))

	eng := &fakeEngine{events: []*mpv.Event{
		{ID: mpv.EventFileLoaded},
	}}
	s := newTestSession(eng, config.DefaultConfig(), store, Options{Volume: -1})

	require.NoError(t, s.Play(ctx, uri))
	require.NoError(t, s.Run(ctx))

	require.Len(t, eng.props, 1)
	assert.Equal(t, "time-pos", eng.props[0].name)
	assert.Equal(t, 120.0, eng.props[0].value)
}

func TestSessionRunSkipsResumeWhenDisabled(t *testing.T) {
	ctx := sessionTestCtx()
	store := newTestStore(t)
	uri := "filereader:///media/movie.mkv"
	require.NoError(t, store.SavePosition(ctx, uri, 120, 600))

	eng := &fakeEngine{events: []*mpv.Event{
		{ID: mpv.EventFileLoaded},
	}}
	s := newTestSession(eng, config.DefaultConfig(), store, Options{NoResume: true, Volume: -1})

	require.NoError(t, s.Play(ctx, uri))
	require.NoError(t, s.Run(ctx))

	assert.Empty(t, eng.props)
}

func TestSessionPersistsPositionOnStop(t *testing.T) {
	ctx := sessionTestCtx()
	store := newTestStore(t)
	uri := "filereader:///media/movie.mkv"

	eng := &fakeEngine{events: []*mpv.Event{
		{ID: mpv.EventFileLoaded},
		propertyEvent(obsDuration, "duration", mpv.FormatDouble, 600.0),
		propertyEvent(obsTimePos, "time-pos", mpv.FormatDouble, 42.5),
		{ID: mpv.EventEndFile, EndFile: &mpv.EndFileData{Reason: mpv.EndFileStop}},
	}}
	s := newTestSession(eng, config.DefaultConfig(), store, Options{Volume: -1})

	require.NoError(t, s.Play(ctx, uri))
	require.NoError(t, s.Run(ctx))

	entry, err := store.Lookup(ctx, uri)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.InDelta(t, 42.5, entry.PositionSecs, 0.001)
	assert.InDelta(t, 600, entry.DurationSecs, 0.001)
}

func TestSessionClearsPositionOnEOF(t *testing.T) {
	ctx := sessionTestCtx()
	store := newTestStore(t)
	uri := "filereader:///media/movie.mkv"

	eng := &fakeEngine{events: []*mpv.Event{
		propertyEvent(obsTimePos, "time-pos", mpv.FormatDouble, 595.0),
		{ID: mpv.EventEndFile, EndFile: &mpv.EndFileData{Reason: mpv.EndFileEOF}},
	}}
	s := newTestSession(eng, config.DefaultConfig(), store, Options{Volume: -1})

	require.NoError(t, s.Play(ctx, uri))
	require.NoError(t, s.Run(ctx))

	entry, err := store.Lookup(ctx, uri)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Zero(t, entry.PositionSecs)
}

func TestSessionStoresMediaTitle(t *testing.T) {
	ctx := sessionTestCtx()
	store := newTestStore(t)
	uri := "filereader:///media/movie.mkv"

	eng := &fakeEngine{events: []*mpv.Event{
		propertyEvent(obsMediaTitle, "media-title", mpv.FormatString, "My Movie"),
		propertyEvent(obsMediaTitle, "media-title", mpv.FormatString, "My Movie (renamed)"),
	}}
	s := newTestSession(eng, config.DefaultConfig(), store, Options{Volume: -1})

	require.NoError(t, s.Play(ctx, uri))
	require.NoError(t, s.Run(ctx))

	entry, err := store.Lookup(ctx, uri)
	require.NoError(t, err)
	require.NotNil(t, entry)

	// Only the first title is persisted; later retitles stay in-memory.
	assert.Equal(t, "My Movie", entry.Title)
}

func TestSessionPublishesEndedStatus(t *testing.T) {
	ctx := sessionTestCtx()

	eng := &fakeEngine{events: []*mpv.Event{
		propertyEvent(obsPause, "pause", mpv.FormatFlag, true),
		{ID: mpv.EventEndFile, EndFile: &mpv.EndFileData{Reason: mpv.EndFileQuit}},
	}}
	s := newTestSession(eng, config.DefaultConfig(), nil, Options{Volume: -1})

	require.NoError(t, s.Play(ctx, "filereader:///media/movie.mkv"))
	require.NoError(t, s.Run(ctx))

	var last Status
	var got int
	for st := range s.Updates() {
		last = st
		got++
	}
	require.NotZero(t, got)
	assert.True(t, last.Ended)
	assert.Equal(t, mpv.EndFileQuit, last.EndReason)
	assert.True(t, last.Paused)
}

func TestSessionQuitsAfterEndOfFile(t *testing.T) {
	eng := &fakeEngine{events: []*mpv.Event{
		{ID: mpv.EventEndFile, EndFile: &mpv.EndFileData{Reason: mpv.EndFileEOF}},
	}}
	s := newTestSession(eng, config.DefaultConfig(), nil, Options{Volume: -1})

	require.NoError(t, s.Run(sessionTestCtx()))
	assert.True(t, eng.commandCalled("quit"), "idle engine should be told to quit once the file ends")
}

func TestSessionQuitsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(sessionTestCtx())
	cancel()

	eng := &fakeEngine{}
	s := newTestSession(eng, config.DefaultConfig(), nil, Options{Volume: -1})

	require.NoError(t, s.Run(ctx))
	assert.True(t, eng.commandCalled("quit"))
}

func TestSessionControls(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(eng, config.DefaultConfig(), nil, Options{Volume: -1})

	require.NoError(t, s.TogglePause())
	require.NoError(t, s.ToggleMute())
	require.NoError(t, s.SeekBy(-5))
	require.NoError(t, s.SeekBy(30))
	require.NoError(t, s.AdjustVolume(5))
	require.NoError(t, s.Quit())

	assert.Equal(t, [][]string{
		{"cycle", "pause"},
		{"cycle", "mute"},
		{"seek", "-5", "relative"},
		{"seek", "30", "relative"},
		{"add", "volume", "5"},
		{"quit"},
	}, eng.commands)

	s.Close()
	assert.True(t, eng.closed)
}
