package dialogue

import (
	"fmt"
	"strings"

	"github.com/MrWong99/presenter/pkg/catalog"
)

const (
	helpText        = "<s>you can list presentations or start a presentation</s><s>what would you like?</s>"
	noCatalogText   = "<s>no presentations are available</s><s>goodbye</s>"
	notRecognized   = "<s>i don't recognize that presentation</s>"
	startFailedText = "<s>unable to start presentation</s><s>please try again later</s>"
	goodbyeText     = "goodbye"

	helpReprompt  = "what would you like?"
	startReprompt = "which presentation should I start?"

	pause = `<break strength="medium"/>`
)

// SSML wraps body in a speak element.
func SSML(body string) string {
	return "<speak>" + body + "</speak>"
}

// Listing returns the spoken enumeration of entries, without the speak
// wrapper.
func Listing(entries []catalog.Entry) string {
	var b strings.Builder
	noun := "presentations"
	if len(entries) == 1 {
		noun = "presentation"
	}
	fmt.Fprintf(&b, "<s>i can start %d %s</s>", len(entries), noun)
	for i, e := range entries {
		b.WriteString(e.Speech())
		if i < len(entries)-1 {
			b.WriteString(pause)
		}
		if i == len(entries)-2 {
			b.WriteString("or" + pause + " ")
		}
	}
	b.WriteString("<s>which would you like?</s>")
	return b.String()
}

func confirmText(e catalog.Entry) string {
	return "did you mean " + e.Speech()
}

func startingText(e catalog.Entry) string {
	return "starting " + e.Speech()
}
