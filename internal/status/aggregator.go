package status

import (
	"context"
	"log/slog"

	"phone-gateway/internal/notify"
	"phone-gateway/internal/routing"
)

// missedCallMaxSeconds is the duration below which a completed inbound call
// is treated as abandoned before anyone picked up. Tunable, kept at the
// historical value for compatibility; it can misclassify a very short real
// conversation.
const missedCallMaxSeconds = 5

// Notifier is the best-effort push boundary consumed by the aggregator.
type Notifier interface {
	Send(ctx context.Context, ev notify.Event)
}

// CallStatusEvent is a top-level call status change callback.
type CallStatusEvent struct {
	CallID          string
	Status          string
	From            string
	To              string
	Direction       string
	DurationSeconds int
}

// RecordingEvent is a recording-completion callback.
type RecordingEvent struct {
	CallID          string
	From            string
	RecordingURL    string
	DurationSeconds int
}

// MessageEvent covers both inbound messages and message status changes.
type MessageEvent struct {
	MessageID string
	From      string
	To        string
	Body      string
	Status    string
}

// Aggregator consumes the status callback streams, classifies terminal
// outcomes, and triggers notifications. It holds no per-call state; every
// classification is a function of a single callback.
type Aggregator struct {
	cfg      routing.Config
	notifier Notifier
	log      *slog.Logger
}

func NewAggregator(cfg routing.Config, notifier Notifier, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{cfg: cfg, notifier: notifier, log: log}
}

// CallStatusChanged classifies a terminal call status.
//
// Inbound calls to the provisioned number:
//   - completed with duration < missedCallMaxSeconds -> missed (abandoned dial)
//   - completed with duration >= threshold -> nothing here (either answered,
//     or the recording path already notified)
//   - failed/canceled/busy/no-answer -> missed, regardless of duration
func (a *Aggregator) CallStatusChanged(ctx context.Context, ev CallStatusEvent) {
	if !a.inboundToGateway(ev.Direction, ev.To) {
		a.log.Debug("call status ignored", "call_id", ev.CallID, "status", ev.Status, "direction", ev.Direction)
		return
	}

	switch ev.Status {
	case "completed":
		if ev.DurationSeconds < missedCallMaxSeconds {
			a.log.Info("short inbound call classified missed", "call_id", ev.CallID, "duration", ev.DurationSeconds)
			a.notifier.Send(ctx, notify.Event{Kind: notify.KindMissedCall, Number: ev.From})
		}
	case "failed", "canceled", "busy", "no-answer":
		a.log.Info("unanswered inbound call", "call_id", ev.CallID, "status", ev.Status)
		a.notifier.Send(ctx, notify.Event{Kind: notify.KindMissedCall, Number: ev.From})
	default:
		// Non-terminal states (ringing, in-progress) need nothing.
	}
}

// RecordingFinished notifies for voicemails with audible content. A
// zero-duration recording means the caller hung up before speaking.
func (a *Aggregator) RecordingFinished(ctx context.Context, ev RecordingEvent) {
	if ev.DurationSeconds <= 0 {
		a.log.Info("empty recording discarded", "call_id", ev.CallID)
		return
	}
	a.log.Info("voicemail recorded", "call_id", ev.CallID, "duration", ev.DurationSeconds)
	a.notifier.Send(ctx, notify.Event{
		Kind:            notify.KindVoicemail,
		Number:          ev.From,
		DurationSeconds: ev.DurationSeconds,
	})
}

// MessageReceived notifies for a new inbound message.
func (a *Aggregator) MessageReceived(ctx context.Context, ev MessageEvent) {
	a.log.Info("message received", "message_id", ev.MessageID, "from", ev.From)
	a.notifier.Send(ctx, notify.Event{Kind: notify.KindMessage, Number: ev.From, Body: ev.Body})
}

// MessageStatusChanged only logs; delivery failures of our own sends are
// visible in the dashboard's live message list.
func (a *Aggregator) MessageStatusChanged(_ context.Context, ev MessageEvent) {
	switch ev.Status {
	case "failed", "undelivered":
		a.log.Warn("message delivery failed", "message_id", ev.MessageID, "status", ev.Status)
	default:
		a.log.Debug("message status", "message_id", ev.MessageID, "status", ev.Status)
	}
}

func (a *Aggregator) inboundToGateway(direction, to string) bool {
	return direction == "inbound" && to == a.cfg.PhoneNumber
}
