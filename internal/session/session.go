// Package session owns the lifecycle of one client connection
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chefbud/voice-platform/internal/apperr"
	"github.com/chefbud/voice-platform/internal/audio"
	"github.com/chefbud/voice-platform/internal/config"
	"github.com/chefbud/voice-platform/internal/conversation"
	"github.com/chefbud/voice-platform/internal/intent"
	"github.com/chefbud/voice-platform/internal/notify"
	"github.com/chefbud/voice-platform/internal/provider"
	"github.com/chefbud/voice-platform/internal/recipe"
	"github.com/chefbud/voice-platform/internal/timers"
)

const (
	// ReadySentinel is the exact text payload that starts audio streaming.
	ReadySentinel = "READY"

	// Accumulated response text is classified once it crosses this length,
	// or earlier at a sentence boundary.
	classifyThreshold = 50
)

// Session composes the resampler, classifier, state machine, timer scheduler
// and provider client for a single client connection. It is created on
// connection accept and destroyed on disconnect or fatal error; no session
// outlives its transport connection.
type Session struct {
	id        string
	conn      *websocket.Conn
	cfg       *config.Config
	log       *slog.Logger
	sink      notify.Sink
	resampler *audio.Resampler
}

// New creates a session for an accepted client connection.
func New(conn *websocket.Conn, cfg *config.Config) *Session {
	id := uuid.NewString()
	log := slog.Default().With("session_id", id)
	return &Session{
		id:        id,
		conn:      conn,
		cfg:       cfg,
		log:       log,
		sink:      notify.NewWSSink(conn, log),
		resampler: audio.NewResampler(cfg.SampleRateIn, cfg.SampleRateOut),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Run drives the session to completion: recipe intake, greeting, readiness
// gate, provider handshake, then the two pump loops until disconnect or
// fatal error. A clean disconnect from either side returns nil. Teardown
// always runs exactly once: timers first, then the provider session; the
// caller closes the client connection.
func (s *Session) Run(ctx context.Context) error {
	raw, err := s.readText(ctx)
	if err != nil {
		return s.finish(err)
	}

	rec := recipe.Parse(raw)
	s.log.Info("recipe received", "title", rec.Title, "steps", len(rec.Steps), "timers", len(rec.Timers))

	machine := conversation.New(rec, s.sink, s.log)
	sched := timers.NewScheduler(s.sink, s.log)

	var client *provider.Client
	defer func() {
		sched.CancelAll()
		if client != nil {
			_ = client.Close()
		}
	}()

	sched.StartAll(ctx, rec.Timers)

	// Greet immediately; audio streaming is gated on the readiness sentinel.
	machine.Reset()

	if err := s.awaitReady(ctx); err != nil {
		return s.finish(err)
	}
	s.sink.Say("Great, I'm listening. Ask me anything about the recipe.")

	client, err = provider.Dial(ctx, s.cfg, s.log)
	if err != nil {
		return s.finish(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.pumpAudio(gctx, client) })
	g.Go(func() error { return s.pumpEvents(gctx, client, machine) })

	return s.finish(g.Wait())
}

// finish maps clean disconnects to nil and sends one best-effort structured
// error notification for anything fatal. An error carrying a taxonomy code
// is always fatal, even when its cause is a clean close frame (a provider
// that hangs up mid-handshake did not end the session normally).
func (s *Session) finish(err error) error {
	if err == nil || (apperr.CodeOf(err) == apperr.Unknown && isClean(err)) {
		s.log.Info("session ended")
		return nil
	}
	s.log.Error("session failed", "error", err)
	s.sink.Error(err.Error())
	return err
}

// readText blocks for the next text payload, skipping binary frames.
func (s *Session) readText(ctx context.Context) (string, error) {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return "", err
		}
		if typ != websocket.MessageText {
			s.log.Warn("expected text payload, got binary", "bytes", len(data))
			continue
		}
		return string(data), nil
	}
}

// awaitReady blocks until the client sends the exact readiness sentinel.
// Anything else is logged as unexpected and never starts the pipeline.
func (s *Session) awaitReady(ctx context.Context) error {
	for {
		payload, err := s.readText(ctx)
		if err != nil {
			return err
		}
		if payload == ReadySentinel {
			s.log.Info("client ready, starting audio streaming")
			return nil
		}
		s.log.Warn("unexpected payload before readiness sentinel", "payload", truncate(payload, 80))
	}
}

// pumpAudio relays client microphone frames to the provider: one binary
// frame in, resample, push, in strict arrival order. Blocking on the push
// is the backpressure mechanism; there is no buffering layer.
func (s *Session) pumpAudio(ctx context.Context, client *provider.Client) error {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageBinary {
			s.log.Warn("unexpected text payload during streaming", "payload", truncate(string(data), 80))
			continue
		}

		frame, err := s.resampler.Resample(data)
		if err != nil {
			return err
		}
		if err := client.PushAudio(ctx, frame); err != nil {
			return err
		}
	}
}

// pumpEvents relays provider events to the client in arrival order and
// feeds accumulated response text through the intent classifier into the
// state machine. The machine is mutated only from this loop.
func (s *Session) pumpEvents(ctx context.Context, client *provider.Client, machine *conversation.Machine) error {
	var buf strings.Builder

	for {
		ev, err := client.Next(ctx)
		if err != nil {
			return err
		}

		switch ev.Kind {
		case provider.TextDelta:
			s.sink.Delta(ev.Text)
			buf.WriteString(ev.Text)
			if atBoundary(buf.String()) {
				machine.Handle(intent.Classify(buf.String()))
				buf.Reset()
			}
		case provider.UserTranscript:
			s.log.Info("user speech transcribed", "text", ev.Text)
			s.sink.Transcription(ev.Text)
		case provider.UserSpeech:
			s.log.Info("user utterance completed", "text", ev.Text)
			s.sink.UserSpeech(ev.Text)
		case provider.ProviderError:
			s.log.Error("provider reported error", "error", ev.Text)
			s.sink.Error(ev.Text)
		}
	}
}

// atBoundary reports whether accumulated text should be classified: it ends
// in a sentence-terminal character or exceeds the length threshold.
func atBoundary(text string) bool {
	if len(text) > classifyThreshold {
		return true
	}
	if text == "" {
		return false
	}
	switch text[len(text)-1] {
	case '.', '?', '!', ',':
		return true
	}
	return false
}

// isClean reports whether an error is an ordinary end of connection rather
// than a failure. StatusNoStatusRcvd is what a close frame with an empty
// payload decodes to; a browser's bare ws.close() sends exactly that.
func isClean(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway, websocket.StatusNoStatusRcvd:
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
