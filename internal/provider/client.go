// Package provider implements the realtime conversational AI session client
package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/chefbud/voice-platform/internal/apperr"
	"github.com/chefbud/voice-platform/internal/config"
)

// Provider messages can carry base64 audio; allow a few MB per frame.
const maxMessageBytes = 4 * 1024 * 1024

// Client is a scoped, single-use bidirectional session with the provider.
// Connect with Dial, consume events with Next, and always Close.
type Client struct {
	conn *websocket.Conn
	cfg  *config.Config
	log  *slog.Logger

	sessionID string
	closeOnce sync.Once
	closeErr  error
}

// Dial opens the provider transport and performs the ordered handshake:
// session.created must arrive first, then the session configuration is sent
// and session.updated must confirm it. On any deviation the connection is
// closed and not considered usable.
func Dial(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Client, error) {
	if !cfg.HasCredential() {
		return nil, apperr.New(apperr.Configuration, "provider credential not configured")
	}

	url := cfg.RealtimeURL + "?model=" + cfg.Model
	log.Info("connecting to realtime provider", "url", url)

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + cfg.OpenAIAPIKey},
			"OpenAI-Beta":   []string{"realtime=v1"},
		},
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Handshake, "provider dial failed")
	}
	conn.SetReadLimit(maxMessageBytes)

	c := &Client{conn: conn, cfg: cfg, log: log}
	if err := c.handshake(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake(ctx context.Context) error {
	created, err := c.readEvent(ctx)
	if err != nil {
		return apperr.Wrap(err, apperr.Handshake, "waiting for session.created")
	}
	if created.Type != typeSessionCreated {
		return apperr.Newf(apperr.Handshake, "expected %s, got %s", typeSessionCreated, created.Type)
	}
	if created.Session != nil {
		c.sessionID = created.Session.ID
	}
	c.log.Info("provider session created", "provider_session_id", c.sessionID)

	if err := wsjson.Write(ctx, c.conn, sessionUpdate{
		Type:    typeSessionUpdate,
		Session: c.sessionConfig(),
	}); err != nil {
		return apperr.Wrap(err, apperr.Handshake, "sending session.update")
	}

	updated, err := c.readEvent(ctx)
	if err != nil {
		return apperr.Wrap(err, apperr.Handshake, "waiting for session.updated")
	}
	if updated.Type != typeSessionUpdated {
		return apperr.Newf(apperr.Handshake, "expected %s, got %s", typeSessionUpdated, updated.Type)
	}
	c.log.Info("provider session configured")
	return nil
}

func (c *Client) sessionConfig() sessionConfig {
	return sessionConfig{
		Modalities:   []string{"audio", "text"},
		Instructions: "You are a helpful cooking assistant. Respond naturally to cooking questions and commands.",
		Voice:        c.cfg.Voice,
		InputFormat:  "pcm16",
		OutputFormat: "pcm16",
		InputTranscription: &transcriptionConfig{
			Model: "whisper-1",
		},
		TurnDetection: &turnDetection{
			Type:              "server_vad",
			Threshold:         0.5,
			PrefixPaddingMS:   300,
			SilenceDurationMS: 500,
			CreateResponse:    true,
		},
		Temperature: 0.8,
	}
}

// readEvent reads and decodes a single provider message. Used only during
// the handshake, where a malformed message is fatal.
func (c *Client) readEvent(ctx context.Context) (*serverEvent, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	var ev serverEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, apperr.Wrap(err, apperr.ProtocolDecode, "malformed provider message")
	}
	return &ev, nil
}

// SessionID returns the provider-assigned session identifier.
func (c *Client) SessionID() string { return c.sessionID }

// PushAudio submits one resampled pcm16 frame to the provider's input
// buffer. Empty frames are a no-op. Frames are written in call order; the
// session's audio pump is the only caller, so FIFO submission holds.
func (c *Client) PushAudio(ctx context.Context, frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	err := wsjson.Write(ctx, c.conn, audioAppend{
		Type:  typeAudioAppend,
		Audio: base64.StdEncoding.EncodeToString(frame),
	})
	if err != nil {
		return apperr.Wrap(err, apperr.AudioTransfer, "pushing audio frame")
	}
	return nil
}

// Close shuts the underlying transport. Idempotent; always safe on teardown
// regardless of how the session ended.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close(websocket.StatusNormalClosure, "")
		c.log.Info("provider session closed", "provider_session_id", c.sessionID)
	})
	return c.closeErr
}
