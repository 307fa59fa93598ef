package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind classifies a push notification.
type Kind string

const (
	KindIncomingCall Kind = "incoming-call"
	KindMissedCall   Kind = "missed-call"
	KindVoicemail    Kind = "voicemail"
	KindMessage      Kind = "message"
)

// Event is consumed exactly once by the dispatcher; it is never persisted
// and never retried. A dropped notification is an accepted loss.
type Event struct {
	Kind            Kind
	Number          string
	DurationSeconds int
	Body            string
}

// Dispatcher posts events to an ntfy-style push relay.
//
// Delivery is strictly best-effort: Send never returns an error, so a slow or
// failing relay can never stall or break a call-control response. The HTTP
// client timeout bounds the worst case.
type Dispatcher struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

func NewDispatcher(url string, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Send delivers one push message. Failures are logged and swallowed.
func (d *Dispatcher) Send(ctx context.Context, ev Event) {
	if d.url == "" {
		d.log.Debug("notification relay not configured, dropping", "kind", ev.Kind)
		return
	}

	title, message := format(ev)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, strings.NewReader(message))
	if err != nil {
		d.log.Warn("notification request build failed", "kind", ev.Kind, "err", err)
		return
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", title)

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn("notification delivery failed", "kind", ev.Kind, "err", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		d.log.Warn("notification relay rejected", "kind", ev.Kind, "status", resp.StatusCode)
		return
	}
	d.log.Info("notification sent", "kind", ev.Kind)
}

func format(ev Event) (title, message string) {
	switch ev.Kind {
	case KindIncomingCall:
		return "Incoming call", fmt.Sprintf("Incoming call from %s", ev.Number)
	case KindMissedCall:
		return "Missed call", fmt.Sprintf("Missed call from %s", ev.Number)
	case KindVoicemail:
		return "New voicemail", fmt.Sprintf("Voicemail from %s (%ds)", ev.Number, ev.DurationSeconds)
	case KindMessage:
		body := ev.Body
		// Truncate on rune boundaries; byte slicing can split a character.
		if utf8.RuneCountInString(body) > 120 {
			body = string([]rune(body)[:120]) + "…"
		}
		return "New message", fmt.Sprintf("From %s: %s", ev.Number, body)
	default:
		return "Phone", fmt.Sprintf("%s: %s", ev.Kind, ev.Number)
	}
}
