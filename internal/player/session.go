package player

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cromfel/go-mpv/internal/config"
	"github.com/cromfel/go-mpv/internal/history"
	"github.com/cromfel/go-mpv/internal/logging"
	"github.com/cromfel/go-mpv/pkg/mpv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	eventWaitSecs   = 0.5
	persistInterval = 15 * time.Second
	persistTimeout  = 2 * time.Second
	statusBuffer    = 16
	logURIMaxLen    = 60
)

// Property observer identifiers. They come back as the reply userdata on
// property-change events.
const (
	obsTimePos uint64 = iota + 1
	obsDuration
	obsPause
	obsVolume
	obsMute
	obsMediaTitle
)

// Options adjust a single playback run.
type Options struct {
	NoVideo  bool
	NoResume bool
	// Volume overrides the configured volume when non-negative.
	Volume int
}

// Status is a point-in-time snapshot of playback state, published on the
// session's update channel for UIs to render.
type Status struct {
	URI       string
	Title     string
	Position  float64
	Duration  float64
	Volume    float64
	Paused    bool
	Muted     bool
	Ended     bool
	EndReason mpv.EndFileReason
	Err       error
}

// engineClient is the part of mpv.Client the session drives. Split out so
// the event pump can be tested against a scripted fake.
type engineClient interface {
	Command(args ...string) error
	SetProperty(name string, value any) error
	ObserveProperty(replyUserdata uint64, name string, format mpv.Format) error
	RequestLogMessages(minLevel string) error
	WaitEvent(timeout float64) *mpv.Event
	Close()
}

// Session owns one engine client for one playback run.
type Session struct {
	client engineClient
	cfg    *config.Config
	store  *history.Store // nil when history is disabled
	opts   Options
	log    zerolog.Logger

	updates chan Status

	mu          sync.Mutex
	snapshot    Status
	pendingSeek float64
	titleSaved  bool
	progressed  bool
}

// New creates the engine client, applies configured options, registers the
// filereader protocol, and sets up property observers. The returned session
// is ready for Play followed by Run.
func New(ctx context.Context, cfg *config.Config, store *history.Store, opts Options) (*Session, error) {
	log := logging.FromContext(ctx).With().Str("component", "player").Logger()

	client, err := mpv.NewWithInitializer(ctx, func(init *mpv.Initializer) error {
		return applyEngineOptions(init, cfg, opts)
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		client:  client,
		cfg:     cfg,
		store:   store,
		opts:    opts,
		log:     log,
		updates: make(chan Status, statusBuffer),
	}

	if err := NewFileProtocol(cfg.Library.Roots).Register(client); err != nil {
		client.Close()
		return nil, err
	}

	observers := []struct {
		id     uint64
		name   string
		format mpv.Format
	}{
		{obsTimePos, "time-pos", mpv.FormatDouble},
		{obsDuration, "duration", mpv.FormatDouble},
		{obsPause, "pause", mpv.FormatFlag},
		{obsVolume, "volume", mpv.FormatDouble},
		{obsMute, "mute", mpv.FormatFlag},
		{obsMediaTitle, "media-title", mpv.FormatString},
	}
	for _, obs := range observers {
		if err := client.ObserveProperty(obs.id, obs.name, obs.format); err != nil {
			client.Close()
			return nil, err
		}
	}

	if err := client.RequestLogMessages("warn"); err != nil {
		client.Close()
		return nil, err
	}

	return s, nil
}

// optionSetter is the slice of mpv.Initializer the session needs, split out
// so option mapping stays testable without an engine.
type optionSetter interface {
	SetOption(name string, value any) error
	SetOptionString(name, value string) error
}

func applyEngineOptions(set optionSetter, cfg *config.Config, opts Options) error {
	// The engine writes to the controlling terminal by default, which would
	// tear up the TUI.
	stringOpts := [][2]string{
		{"terminal", "no"},
		{"hwdec", string(cfg.Player.HardwareDecoding)},
		{"cache-secs", strconv.Itoa(cfg.Player.CacheSeconds)},
	}
	if cfg.Player.VideoOutput != "" && cfg.Player.VideoOutput != "auto" {
		stringOpts = append(stringOpts, [2]string{"vo", cfg.Player.VideoOutput})
	}
	if opts.NoVideo {
		stringOpts = append(stringOpts, [2]string{"video", "no"})
	}
	for _, opt := range stringOpts {
		if err := set.SetOptionString(opt[0], opt[1]); err != nil {
			return err
		}
	}

	volume := cfg.Player.Volume
	if opts.Volume >= 0 {
		volume = opts.Volume
	}
	if err := set.SetOption("volume", int64(volume)); err != nil {
		return err
	}
	return set.SetOption("mute", cfg.Player.Muted)
}

// Play resolves the resume position for uri and tells the engine to load
// it. Call once per session, before Run.
func (s *Session) Play(ctx context.Context, uri string) error {
	resumeAt := 0.0

	if s.historyEnabled() {
		if err := s.store.Touch(ctx, uri, ""); err != nil {
			s.log.Warn().Err(err).Msg("failed to record playback")
		}
		if err := s.store.Prune(ctx, s.cfg.History.MaxEntries); err != nil {
			s.log.Warn().Err(err).Msg("failed to prune history")
		}
		if s.cfg.Resume.Enabled && !s.opts.NoResume {
			entry, err := s.store.Lookup(ctx, uri)
			if err != nil {
				s.log.Warn().Err(err).Msg("failed to look up resume position")
			} else if entry != nil {
				resumeAt = resumePoint(entry, s.cfg.Resume)
			}
		}
	}

	s.mu.Lock()
	s.snapshot = Status{URI: uri}
	s.pendingSeek = resumeAt
	s.titleSaved = false
	s.progressed = false
	s.mu.Unlock()

	if resumeAt > 0 {
		s.log.Info().
			Str("uri", logging.TruncateURI(uri, logURIMaxLen)).
			Float64("position", resumeAt).
			Msg("resuming playback")
	}

	return s.client.Command("loadfile", uri, "replace")
}

// resumePoint decides where playback of entry should restart. Short
// positions start over, and positions close to the end count as finished.
func resumePoint(entry *history.Entry, cfg config.ResumeConfig) float64 {
	pos := entry.PositionSecs
	if pos <= 0 || pos < float64(cfg.MinPositionSeconds) {
		return 0
	}
	if entry.DurationSecs > 0 && pos >= entry.DurationSecs-float64(cfg.TailSkipSeconds) {
		return 0
	}
	return pos
}

// Run pumps engine events until playback ends, the engine shuts down, or
// ctx is canceled. The update channel is closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return s.pump(gctx)
	})
	g.Go(func() error {
		s.persistLoop(gctx)
		return nil
	})

	err := g.Wait()
	s.persistNow(ctx)
	close(s.updates)
	return err
}

// Updates returns the status stream. The channel is closed when Run
// returns.
func (s *Session) Updates() <-chan Status {
	return s.updates
}

func (s *Session) pump(ctx context.Context) error {
	quitSent := false
	for {
		if ctx.Err() != nil && !quitSent {
			quitSent = true
			if err := s.client.Command("quit"); err != nil {
				return nil
			}
		}

		ev := s.client.WaitEvent(eventWaitSecs)
		switch ev.ID {
		case mpv.EventShutdown:
			return nil
		case mpv.EventFileLoaded:
			s.onFileLoaded()
		case mpv.EventPropertyChange:
			s.onPropertyChange(ctx, ev)
		case mpv.EventEndFile:
			s.onEndFile(ctx, ev)
			// Single-file session: once the file is done the engine only
			// idles, so fold it up. Shutdown still does the final teardown.
			if !quitSent {
				quitSent = true
				if err := s.client.Command("quit"); err != nil {
					return nil
				}
			}
		case mpv.EventLogMessage:
			s.onLogMessage(ev)
		}
	}
}

func (s *Session) persistLoop(ctx context.Context) {
	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.persistNow(ctx)
		}
	}
}

func (s *Session) onFileLoaded() {
	s.mu.Lock()
	seek := s.pendingSeek
	s.pendingSeek = 0
	s.mu.Unlock()

	if seek > 0 {
		if err := s.client.SetProperty("time-pos", seek); err != nil {
			s.log.Warn().Err(err).Float64("position", seek).Msg("failed to apply resume position")
		}
	}
	s.publish()
}

func (s *Session) onPropertyChange(ctx context.Context, ev *mpv.Event) {
	if ev.Property == nil || ev.Property.Value == nil {
		return
	}

	var newTitle string
	s.mu.Lock()
	switch ev.ReplyUserdata {
	case obsTimePos:
		if v, ok := ev.Property.Value.(float64); ok {
			s.snapshot.Position = v
			s.progressed = true
		}
	case obsDuration:
		if v, ok := ev.Property.Value.(float64); ok {
			s.snapshot.Duration = v
		}
	case obsPause:
		if v, ok := ev.Property.Value.(bool); ok {
			s.snapshot.Paused = v
		}
	case obsVolume:
		if v, ok := ev.Property.Value.(float64); ok {
			s.snapshot.Volume = v
		}
	case obsMute:
		if v, ok := ev.Property.Value.(bool); ok {
			s.snapshot.Muted = v
		}
	case obsMediaTitle:
		if v, ok := ev.Property.Value.(string); ok {
			s.snapshot.Title = v
			if !s.titleSaved && v != "" {
				s.titleSaved = true
				newTitle = v
			}
		}
	}
	uri := s.snapshot.URI
	s.mu.Unlock()

	if newTitle != "" && s.historyEnabled() {
		if err := s.store.SetTitle(ctx, uri, newTitle); err != nil {
			s.log.Warn().Err(err).Msg("failed to store media title")
		}
	}
	s.publish()
}

func (s *Session) onEndFile(ctx context.Context, ev *mpv.Event) {
	if ev.EndFile == nil {
		return
	}

	s.mu.Lock()
	if ev.EndFile.Reason == mpv.EndFileEOF {
		// Watched through; the next play starts from the beginning.
		s.snapshot.Position = 0
	}
	s.snapshot.Ended = true
	s.snapshot.EndReason = ev.EndFile.Reason
	if ev.EndFile.Err != nil {
		s.snapshot.Err = ev.EndFile.Err
	}
	s.mu.Unlock()

	if ev.EndFile.Err != nil {
		s.log.Error().Err(ev.EndFile.Err).Stringer("reason", ev.EndFile.Reason).Msg("playback failed")
	} else {
		s.log.Debug().Stringer("reason", ev.EndFile.Reason).Msg("playback ended")
	}

	s.persistNow(ctx)
	s.publish()
}

func (s *Session) onLogMessage(ev *mpv.Event) {
	msg := ev.LogMessage
	if msg == nil {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	event := s.log.Debug()
	switch msg.Level {
	case "fatal", "error":
		event = s.log.Error()
	case "warn":
		event = s.log.Warn()
	}
	event.Str("prefix", msg.Prefix).Msg(text)
}

// persistNow writes the current position to history. Cancellation of the
// surrounding context is ignored: the final save happens while the process
// is shutting down.
func (s *Session) persistNow(ctx context.Context) {
	if !s.historyEnabled() {
		return
	}

	s.mu.Lock()
	uri := s.snapshot.URI
	pos := s.snapshot.Position
	dur := s.snapshot.Duration
	progressed := s.progressed
	s.mu.Unlock()

	// Never overwrite a stored position with a snapshot the engine has not
	// reported any progress into.
	if uri == "" || !progressed {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.store.SavePosition(ctx, uri, pos, dur); err != nil {
		s.log.Warn().Err(err).Msg("failed to save playback position")
	}
}

// publish pushes the current snapshot to the update channel without ever
// blocking the pump. When the consumer lags, the oldest snapshot is
// dropped.
func (s *Session) publish() {
	s.mu.Lock()
	st := s.snapshot
	s.mu.Unlock()

	select {
	case s.updates <- st:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- st:
		default:
		}
	}
}

func (s *Session) historyEnabled() bool {
	return s.store != nil && s.cfg.History.Enabled
}

// TogglePause flips the pause state.
func (s *Session) TogglePause() error {
	return s.client.Command("cycle", "pause")
}

// ToggleMute flips audio mute.
func (s *Session) ToggleMute() error {
	return s.client.Command("cycle", "mute")
}

// SeekBy seeks relative to the current position.
func (s *Session) SeekBy(seconds float64) error {
	return s.client.Command("seek", strconv.FormatFloat(seconds, 'f', -1, 64), "relative")
}

// AdjustVolume changes the volume by delta percentage points.
func (s *Session) AdjustVolume(delta int) error {
	return s.client.Command("add", "volume", strconv.Itoa(delta))
}

// Quit asks the engine to shut down. Run returns once the shutdown event
// arrives.
func (s *Session) Quit() error {
	return s.client.Command("quit")
}

// Close releases the engine. Call after Run has returned.
func (s *Session) Close() {
	s.client.Close()
}
