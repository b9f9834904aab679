// Package models defines the data structures for voice events.
package models

// Event types published by the client.
const (
	EventTypeVoiceQuery = "kisan.voice.query"
	EventTypeSpeech     = "kisan.voice.speech"
)

// VoiceQueryEvent is emitted once per recording session when a result
// string has been delivered to the caller.
type VoiceQueryEvent struct {
	EventType  string `json:"eventType"`
	EventID    string `json:"eventId"`
	SessionID  string `json:"sessionId"`
	Language   string `json:"language"`
	Timestamp  int64  `json:"timestamp"`
	Text       string `json:"text"`
	Fallback   bool   `json:"fallback"`
	Reason     string `json:"reason,omitempty"`
	AudioBytes int    `json:"audioBytes"`
	DurationMs int64  `json:"durationMs"`
}

// SpeechEvent is emitted for every speech dispatch.
type SpeechEvent struct {
	EventType string `json:"eventType"`
	EventID   string `json:"eventId"`
	Language  string `json:"language"`
	SpeechTag string `json:"speechTag"`
	Timestamp int64  `json:"timestamp"`
	Path      string `json:"path"`
	Failed    bool   `json:"failed"`
	TextChars int    `json:"textChars"`
}
