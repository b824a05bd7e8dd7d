package skill_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/presenter/internal/dialogue"
	"github.com/MrWong99/presenter/internal/skill"
)

func TestParseRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want skill.Request
		kind dialogue.Kind
	}{
		{
			name: "launch",
			body: `{"session":{"new":true,"sessionId":"abc"},"request":{"type":"LaunchRequest"}}`,
			want: skill.Request{SessionID: "abc", NewSession: true, Type: skill.TypeLaunch},
			kind: dialogue.KindLaunch,
		},
		{
			name: "start with slot",
			body: `{"session":{"sessionId":"abc"},"request":{"type":"IntentRequest","intent":{"name":"StartPresentation","slots":{"Presentation":{"value":" lambda "}}}}}`,
			want: skill.Request{SessionID: "abc", Type: skill.TypeIntent, Turn: dialogue.Turn{Intent: "StartPresentation", Slot: " lambda "}},
			kind: dialogue.KindStart,
		},
		{
			name: "start without slot value",
			body: `{"session":{"sessionId":"abc"},"request":{"type":"IntentRequest","intent":{"name":"StartPresentation","slots":{"Presentation":{"name":"Presentation"}}}}}`,
			want: skill.Request{SessionID: "abc", Type: skill.TypeIntent, Turn: dialogue.Turn{Intent: "StartPresentation"}},
			kind: dialogue.KindStart,
		},
		{
			name: "yes",
			body: `{"session":{"sessionId":"abc"},"request":{"type":"IntentRequest","intent":{"name":"AMAZON.YesIntent"}}}`,
			want: skill.Request{SessionID: "abc", Type: skill.TypeIntent, Turn: dialogue.Turn{Intent: dialogue.IntentYes}},
			kind: dialogue.KindYes,
		},
		{
			name: "session ended",
			body: `{"session":{"sessionId":"abc"},"request":{"type":"SessionEndedRequest","reason":"EXCEEDED_MAX_REPROMPTS"}}`,
			want: skill.Request{SessionID: "abc", Type: skill.TypeSessionEnded, Reason: "EXCEEDED_MAX_REPROMPTS"},
			kind: dialogue.KindUnknown,
		},
		{
			name: "unsupported type",
			body: `{"session":{"sessionId":"abc"},"request":{"type":"CanFulfillIntentRequest"}}`,
			want: skill.Request{SessionID: "abc", Type: "CanFulfillIntentRequest"},
			kind: dialogue.KindUnknown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := skill.ParseRequest([]byte(tc.body))
			if err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseRequest = %+v, want %+v", got, tc.want)
			}
			if k := got.Event().Kind; k != tc.kind {
				t.Errorf("Event().Kind = %v, want %v", k, tc.kind)
			}
		})
	}
}

func TestParseRequest_Malformed(t *testing.T) {
	t.Parallel()

	for _, body := range []string{``, `nope`, `{}`, `{"session":{"sessionId":"a"}}`, `{"request":{"type":"LaunchRequest"}}`} {
		if _, err := skill.ParseRequest([]byte(body)); !errors.Is(err, skill.ErrMalformed) {
			t.Errorf("ParseRequest(%q) err = %v, want ErrMalformed", body, err)
		}
	}
}

func encode(t *testing.T, env skill.Envelope) string {
	t.Helper()
	var buf bytes.Buffer
	if err := env.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func TestNewEnvelope(t *testing.T) {
	t.Parallel()

	ask := skill.NewEnvelope(dialogue.Response{Speech: "<speak>hi</speak>", Reprompt: "<speak>well?</speak>"})
	want := `{"version":"1.0","response":{"outputSpeech":{"type":"SSML","ssml":"<speak>hi</speak>"},` +
		`"reprompt":{"outputSpeech":{"type":"SSML","ssml":"<speak>well?</speak>"}},"shouldEndSession":false}}`
	if got := encode(t, ask); got != want {
		t.Errorf("ask envelope =\n%s\nwant\n%s", got, want)
	}

	tell := encode(t, skill.NewEnvelope(dialogue.Response{Speech: "<speak>bye</speak>", Reprompt: "<speak>ignored</speak>", EndSession: true}))
	if strings.Contains(tell, "reprompt") {
		t.Errorf("ending envelope must not carry a reprompt: %s", tell)
	}
	if !strings.Contains(tell, `"shouldEndSession":true`) {
		t.Errorf("ending envelope = %s", tell)
	}
}

func TestEnvelope_EncodeRoundTrip(t *testing.T) {
	t.Parallel()

	in := skill.NewEnvelope(dialogue.Response{Speech: `<speak>salt &amp; pepper<break strength="medium"/></speak>`, Reprompt: "<speak>well?</speak>"})
	var out skill.Envelope
	if err := json.Unmarshal([]byte(encode(t, in)), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Response.OutputSpeech == nil || out.Response.OutputSpeech.SSML != in.Response.OutputSpeech.SSML {
		t.Errorf("decoded speech = %+v, want %q", out.Response.OutputSpeech, in.Response.OutputSpeech.SSML)
	}
}
