// Package skill adapts the voice platform's JSON envelope to the selection
// dialogue. One HTTP request is one turn: the envelope is decoded into a
// [dialogue.Event], the session state is loaded (or started from the
// catalog source), the dialogue runs, the state is saved, and the response
// envelope is written back.
package skill

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"github.com/MrWong99/presenter/internal/dialogue"
)

// Request types of the platform envelope.
const (
	TypeLaunch       = "LaunchRequest"
	TypeIntent       = "IntentRequest"
	TypeSessionEnded = "SessionEndedRequest"
)

// ErrMalformed is returned by [ParseRequest] for envelopes that are not
// valid JSON or lack a session ID or request type.
var ErrMalformed = errors.New("skill: malformed request envelope")

// Request is the part of the platform envelope the dialogue needs.
type Request struct {
	SessionID  string
	NewSession bool
	Type       string
	Turn       dialogue.Turn

	// Reason is set on session-ended requests.
	Reason string
}

// Event maps the request onto a dialogue event.
func (r Request) Event() dialogue.Event {
	switch r.Type {
	case TypeLaunch:
		return dialogue.Event{Kind: dialogue.KindLaunch}
	case TypeIntent:
		return dialogue.EventFromTurn(r.Turn)
	default:
		return dialogue.Event{Kind: dialogue.KindUnknown}
	}
}

// ParseRequest extracts a [Request] from a raw envelope.
func ParseRequest(body []byte) (Request, error) {
	if !gjson.ValidBytes(body) {
		return Request{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	doc := gjson.ParseBytes(body)

	req := Request{
		SessionID:  doc.Get("session.sessionId").String(),
		NewSession: doc.Get("session.new").Bool(),
		Type:       doc.Get("request.type").String(),
		Reason:     doc.Get("request.reason").String(),
		Turn: dialogue.Turn{
			Intent: doc.Get("request.intent.name").String(),
			Slot:   doc.Get("request.intent.slots." + dialogue.SlotPresentation + ".value").String(),
		},
	}
	if req.SessionID == "" {
		return Request{}, fmt.Errorf("%w: missing session.sessionId", ErrMalformed)
	}
	if req.Type == "" {
		return Request{}, fmt.Errorf("%w: missing request.type", ErrMalformed)
	}
	return req, nil
}

// OutputSpeech is a spoken SSML document.
type OutputSpeech struct {
	Type string `json:"type"`
	SSML string `json:"ssml"`
}

// Reprompt is spoken when the user stays silent.
type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

// ResponseBody is the response part of the envelope.
type ResponseBody struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

// Envelope is the response envelope written back to the platform.
type Envelope struct {
	Version  string       `json:"version"`
	Response ResponseBody `json:"response"`
}

// NewEnvelope converts a dialogue response to a platform envelope.
func NewEnvelope(resp dialogue.Response) Envelope {
	body := ResponseBody{ShouldEndSession: resp.EndSession}
	if resp.Speech != "" {
		body.OutputSpeech = &OutputSpeech{Type: "SSML", SSML: resp.Speech}
	}
	if resp.Reprompt != "" && !resp.EndSession {
		body.Reprompt = &Reprompt{OutputSpeech: OutputSpeech{Type: "SSML", SSML: resp.Reprompt}}
	}
	return Envelope{Version: "1.0", Response: body}
}

// Encode writes e as one line of JSON. SSML markup is written verbatim
// rather than as \u003c escapes.
func (e Envelope) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(e)
}
