// Package dispatch delivers "start this presentation" requests to the
// machines that run the presentations.
//
// A [Target] is one delivery channel: a log line, an HTTP webhook, or the
// websocket [Hub] that presenter machines connect to. [Chain] implements
// dialogue.Dispatcher over an ordered list of targets, each behind its own
// [Breaker], and reports started == true as soon as one target accepts the
// message.
package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/presenter/internal/match"
)

// Presentation is the presentation part of a [Message].
type Presentation struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// Message is the payload every target delivers.
type Message struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"sessionId"`
	SentAt       time.Time    `json:"sentAt"`
	SpokenName   string       `json:"spokenName"`
	Confidence   float64      `json:"confidence"`
	Presentation Presentation `json:"presentation"`
}

// NewMessage builds the message for starting m on behalf of sessionID.
func NewMessage(sessionID string, m match.Match, now time.Time) Message {
	return Message{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		SentAt:     now.UTC(),
		SpokenName: m.Spoken,
		Confidence: m.Confidence,
		Presentation: Presentation{
			Name:     m.Entry.Name,
			Filename: m.Entry.Filename,
		},
	}
}
