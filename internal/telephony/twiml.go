package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"time"

	"phone-gateway/internal/routing"
)

// Minimal TwiML response builder over encoding/xml.
//
// Only the verbs this gateway emits are modeled. The carrier executes the
// document top-to-bottom against the live call.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

type twimlDial struct {
	XMLName  xml.Name `xml:"Dial"`
	Action   string   `xml:"action,attr,omitempty"`
	Method   string   `xml:"method,attr,omitempty"`
	Timeout  int      `xml:"timeout,attr,omitempty"`
	CallerID string   `xml:"callerId,attr,omitempty"`
	Number   string   `xml:"Number,omitempty"`
	Client   string   `xml:"Client,omitempty"`
}

type twimlRecord struct {
	XMLName   xml.Name `xml:"Record"`
	Action    string   `xml:"action,attr,omitempty"`
	Method    string   `xml:"method,attr,omitempty"`
	MaxLength int      `xml:"maxLength,attr,omitempty"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// RenderTwiML maps a routing.Decision to the call-control document the
// carrier executes next.
func RenderTwiML(d routing.Decision) (string, error) {
	var r twimlResponse

	switch d.Action {
	case routing.ActionNone:
		// Empty document: the call is already handled upstream.

	case routing.ActionSay:
		if d.Say == "" {
			return "", errors.New("telephony: say action requires text")
		}
		r.Verbs = append(r.Verbs, twimlSay{Text: d.Say})

	case routing.ActionDialClient:
		if d.Target == "" {
			return "", errors.New("telephony: dial-client requires a client identity")
		}
		appendSpeech(&r, d)
		r.Verbs = append(r.Verbs, twimlDial{
			Action:  d.CallbackURL,
			Method:  "POST",
			Timeout: seconds(d.Timeout),
			Client:  d.Target,
		})

	case routing.ActionDialNumber:
		if d.Target == "" {
			return "", errors.New("telephony: dial-number requires a number")
		}
		appendSpeech(&r, d)
		r.Verbs = append(r.Verbs, twimlDial{
			Action:   d.CallbackURL,
			Method:   "POST",
			Timeout:  seconds(d.Timeout),
			CallerID: d.CallerID,
			Number:   d.Target,
		})

	case routing.ActionRecord:
		appendSpeech(&r, d)
		r.Verbs = append(r.Verbs, twimlRecord{
			Action:    d.CallbackURL,
			Method:    "POST",
			MaxLength: seconds(d.MaxLength),
		})

	case routing.ActionRedirect:
		if d.RedirectURL == "" {
			return "", errors.New("telephony: redirect requires a url")
		}
		r.Verbs = append(r.Verbs, twimlRedirect{Method: "POST", URL: d.RedirectURL})

	default:
		return "", errors.New("telephony: unknown decision action")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func appendSpeech(r *twimlResponse, d routing.Decision) {
	if d.Say != "" {
		r.Verbs = append(r.Verbs, twimlSay{Text: d.Say})
	}
	if d.PauseSeconds > 0 {
		r.Verbs = append(r.Verbs, twimlPause{Length: d.PauseSeconds})
	}
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
