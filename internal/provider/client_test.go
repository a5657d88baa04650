package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/chefbud/voice-platform/internal/apperr"
	"github.com/chefbud/voice-platform/internal/config"
)

// fakeProvider runs a scripted provider endpoint for handshake tests.
type fakeProvider struct {
	t *testing.T
	// script runs after the handshake completes.
	script func(ctx context.Context, conn *websocket.Conn)
	// skipUpdated makes the handshake fail by never confirming the config.
	skipUpdated bool

	updates chan json.RawMessage
}

func newFakeProvider(t *testing.T) *fakeProvider {
	return &fakeProvider{t: t, updates: make(chan json.RawMessage, 16)}
}

func (f *fakeProvider) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		f.t.Errorf("accept error: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	if err := wsjson.Write(ctx, conn, map[string]any{
		"type":    "session.created",
		"session": map[string]any{"id": "sess_123"},
	}); err != nil {
		return
	}

	var update json.RawMessage
	if err := wsjson.Read(ctx, conn, &update); err != nil {
		return
	}
	f.updates <- update

	if f.skipUpdated {
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	if err := wsjson.Write(ctx, conn, map[string]any{"type": "session.updated"}); err != nil {
		return
	}

	if f.script != nil {
		f.script(ctx, conn)
	}
}

func (f *fakeProvider) serve() (*httptest.Server, *config.Config) {
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	cfg := &config.Config{
		OpenAIAPIKey: "test-key",
		RealtimeURL:  srv.URL,
		Model:        "test-model",
		Voice:        "alloy",
	}
	return srv, cfg
}

func TestDialHandshake(t *testing.T) {
	fake := newFakeProvider(t)
	srv, cfg := fake.serve()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, cfg, slog.Default())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer c.Close()

	if c.SessionID() != "sess_123" {
		t.Errorf("SessionID = %q, want %q", c.SessionID(), "sess_123")
	}

	// The handshake must have sent a session.update with the wire contract.
	var update sessionUpdate
	if err := json.Unmarshal(<-fake.updates, &update); err != nil {
		t.Fatalf("session.update decode error: %v", err)
	}
	if update.Type != "session.update" {
		t.Errorf("update type = %q, want %q", update.Type, "session.update")
	}
	if update.Session.InputFormat != "pcm16" {
		t.Errorf("input format = %q, want %q", update.Session.InputFormat, "pcm16")
	}
	if update.Session.TurnDetection == nil || update.Session.TurnDetection.Type != "server_vad" {
		t.Error("expected server_vad turn detection in session.update")
	}
}

func TestDialHandshakeFailure(t *testing.T) {
	fake := newFakeProvider(t)
	fake.skipUpdated = true
	srv, cfg := fake.serve()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Dial(ctx, cfg, slog.Default())
	if err == nil {
		t.Fatal("expected handshake error")
	}
	if !apperr.IsCode(err, apperr.Handshake) {
		t.Errorf("error code = %v, want Handshake", apperr.CodeOf(err))
	}
}

func TestDialWithoutCredential(t *testing.T) {
	cfg := &config.Config{RealtimeURL: "ws://127.0.0.1:1", Model: "m"}

	_, err := Dial(context.Background(), cfg, slog.Default())
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !apperr.IsCode(err, apperr.Configuration) {
		t.Errorf("error code = %v, want Configuration", apperr.CodeOf(err))
	}
}

func TestPushAudioOrderAndEncoding(t *testing.T) {
	frames := make(chan string, 16)
	fake := newFakeProvider(t)
	fake.script = func(ctx context.Context, conn *websocket.Conn) {
		for i := 0; i < 2; i++ {
			var msg audioAppend
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				return
			}
			if msg.Type != "input_audio_buffer.append" {
				f := "bad type: " + msg.Type
				frames <- f
				return
			}
			frames <- msg.Audio
		}
	}
	srv, cfg := fake.serve()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, cfg, slog.Default())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer c.Close()

	// Empty frame is a no-op and must not reach the wire.
	if err := c.PushAudio(ctx, nil); err != nil {
		t.Fatalf("PushAudio(empty) error: %v", err)
	}
	if err := c.PushAudio(ctx, []byte{1, 2}); err != nil {
		t.Fatalf("PushAudio error: %v", err)
	}
	if err := c.PushAudio(ctx, []byte{3, 4}); err != nil {
		t.Fatalf("PushAudio error: %v", err)
	}

	first := <-frames
	second := <-frames
	if first != base64.StdEncoding.EncodeToString([]byte{1, 2}) {
		t.Errorf("first frame = %q, want base64 of [1 2]", first)
	}
	if second != base64.StdEncoding.EncodeToString([]byte{3, 4}) {
		t.Errorf("second frame = %q, want base64 of [3 4]", second)
	}
}

func TestNextSkipsInformationalAndMalformed(t *testing.T) {
	fake := newFakeProvider(t)
	fake.script = func(ctx context.Context, conn *websocket.Conn) {
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"type":"input_audio_buffer.committed"}`))
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{not json`))
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"type":"response.text.delta","delta":"hi"}`))
		// Hold the connection open until the client is done reading.
		<-ctx.Done()
	}
	srv, cfg := fake.serve()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, cfg, slog.Default())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer c.Close()

	ev, err := c.Next(ctx)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if ev.Kind != TextDelta || ev.Text != "hi" {
		t.Errorf("event = %+v, want TextDelta %q", ev, "hi")
	}
}
