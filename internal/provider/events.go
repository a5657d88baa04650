package provider

import (
	"context"
	"encoding/json"
)

// Provider message types.
const (
	typeSessionCreated = "session.created"
	typeSessionUpdate  = "session.update"
	typeSessionUpdated = "session.updated"
	typeAudioAppend    = "input_audio_buffer.append"

	typeAudioTranscriptDelta = "response.audio_transcript.delta"
	typeTextDelta            = "response.text.delta"
	typeInputTranscription   = "conversation.item.input_audio_transcription.completed"
	typeItemCreated          = "conversation.item.created"
	typeError                = "error"
)

// Kind tags a decoded provider event.
type Kind int

const (
	// TextDelta is one incremental piece of AI response text.
	TextDelta Kind = iota
	// UserTranscript is a completed transcription of the user's audio input.
	UserTranscript
	// UserSpeech is a completed user utterance attached to a conversation item.
	UserSpeech
	// ProviderError is an error reported by the provider inside the stream.
	ProviderError
)

func (k Kind) String() string {
	switch k {
	case TextDelta:
		return "text_delta"
	case UserTranscript:
		return "user_transcript"
	case UserSpeech:
		return "user_speech"
	case ProviderError:
		return "provider_error"
	default:
		return "invalid"
	}
}

// Event is the explicit tagged variant produced by the decode step. Callers
// switch on Kind, never on string content.
type Event struct {
	Kind Kind
	Text string
}

// Wire structures.

type serverEvent struct {
	Type       string            `json:"type"`
	Delta      string            `json:"delta,omitempty"`
	Transcript string            `json:"transcript,omitempty"`
	Error      *apiError         `json:"error,omitempty"`
	Session    *sessionInfo      `json:"session,omitempty"`
	Item       *conversationItem `json:"item,omitempty"`
}

type apiError struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *apiError) text() string {
	if e == nil {
		return "provider error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "provider error"
}

type sessionInfo struct {
	ID string `json:"id"`
}

type conversationItem struct {
	Type    string        `json:"type,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []itemContent `json:"content,omitempty"`
}

type itemContent struct {
	Type       string `json:"type,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Modalities         []string             `json:"modalities"`
	Instructions       string               `json:"instructions"`
	Voice              string               `json:"voice"`
	InputFormat        string               `json:"input_audio_format"`
	OutputFormat       string               `json:"output_audio_format"`
	InputTranscription *transcriptionConfig `json:"input_audio_transcription,omitempty"`
	TurnDetection      *turnDetection       `json:"turn_detection,omitempty"`
	Temperature        float64              `json:"temperature,omitempty"`
}

type transcriptionConfig struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMS   int     `json:"prefix_padding_ms"`
	SilenceDurationMS int     `json:"silence_duration_ms"`
	CreateResponse    bool    `json:"create_response"`
}

type audioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// Next blocks until the next classified provider event. The stream is lazy,
// infinite and non-restartable: it ends when the provider closes the
// connection or a transport error occurs, which propagates to the caller.
// Malformed and informational messages are logged and skipped.
func (c *Client) Next(ctx context.Context) (Event, error) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return Event{}, err
		}

		ev, ok := decodeEvent(data)
		if !ok {
			c.logSkipped(data)
			continue
		}
		return ev, nil
	}
}

// decodeEvent classifies one raw provider message by its declared type.
// The second return is false for informational or malformed messages.
func decodeEvent(data []byte) (Event, bool) {
	var msg serverEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, false
	}

	switch msg.Type {
	case typeAudioTranscriptDelta, typeTextDelta:
		if msg.Delta == "" {
			return Event{}, false
		}
		return Event{Kind: TextDelta, Text: msg.Delta}, true

	case typeInputTranscription:
		if msg.Transcript == "" {
			return Event{}, false
		}
		return Event{Kind: UserTranscript, Text: msg.Transcript}, true

	case typeItemCreated:
		if t := userAudioTranscript(msg.Item); t != "" {
			return Event{Kind: UserSpeech, Text: t}, true
		}
		return Event{}, false

	case typeError:
		return Event{Kind: ProviderError, Text: msg.Error.text()}, true

	default:
		return Event{}, false
	}
}

// userAudioTranscript extracts the transcript from a user audio item, if any.
func userAudioTranscript(item *conversationItem) string {
	if item == nil || item.Role != "user" {
		return ""
	}
	for _, c := range item.Content {
		if c.Type == "input_audio" && c.Transcript != "" {
			return c.Transcript
		}
	}
	return ""
}

func (c *Client) logSkipped(data []byte) {
	var msg serverEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Error("malformed provider message, skipping", "error", err)
		return
	}
	c.log.Debug("informational provider event", "type", msg.Type)
}
