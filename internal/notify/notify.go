// Package notify defines the outbound notification sink for one session
package notify

import (
	"context"
	"log/slog"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Outbound JSON shapes. Exactly one field is set per message.
type TTSMessage struct {
	TTS string `json:"tts"`
}

type DeltaMessage struct {
	Delta string `json:"delta"`
}

type TranscriptionMessage struct {
	Transcription string `json:"transcription"`
}

type UserSpeechMessage struct {
	UserSpeech string `json:"user_speech"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

// Sink is the single outbound channel for everything a session says to its
// client. Conversational and timer logic depend only on Say, keeping them
// decoupled from the transport.
type Sink interface {
	// Say sends text for the client to speak aloud.
	Say(text string)
	// Delta sends one incremental AI response fragment.
	Delta(text string)
	// Transcription sends recognized user speech.
	Transcription(text string)
	// UserSpeech sends a completed user utterance.
	UserSpeech(text string)
	// Error sends a structured error notification.
	Error(text string)
}

// WSSink writes notifications to a client WebSocket connection. Write
// failures are logged, never propagated: a dead client surfaces through the
// session's own read loop, not through the sink.
type WSSink struct {
	conn *websocket.Conn
	log  *slog.Logger
}

// NewWSSink creates a sink backed by a client connection.
func NewWSSink(conn *websocket.Conn, log *slog.Logger) *WSSink {
	return &WSSink{conn: conn, log: log}
}

func (s *WSSink) Say(text string) { s.write(TTSMessage{TTS: text}) }

func (s *WSSink) Delta(text string) { s.write(DeltaMessage{Delta: text}) }

func (s *WSSink) Transcription(text string) { s.write(TranscriptionMessage{Transcription: text}) }

func (s *WSSink) UserSpeech(text string) { s.write(UserSpeechMessage{UserSpeech: text}) }

func (s *WSSink) Error(text string) { s.write(ErrorMessage{Error: text}) }

func (s *WSSink) write(msg any) {
	if err := wsjson.Write(context.Background(), s.conn, msg); err != nil {
		s.log.Debug("notification write failed", "error", err)
	}
}
