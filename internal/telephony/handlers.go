package telephony

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"phone-gateway/internal/notify"
	"phone-gateway/internal/routing"
	"phone-gateway/internal/status"
	"phone-gateway/pkg/logger"
)

// WebhookHandlers adapts carrier callbacks onto the routing engine and the
// status aggregator. Handlers decode form fields, call the pure engine, and
// encode the resulting call-control document; nothing else.
type WebhookHandlers struct {
	Engine     *routing.Engine
	Aggregator *status.Aggregator
	Notifier   status.Notifier
}

// VoiceApp handles the first callback for a call, inbound or outbound.
func (h WebhookHandlers) VoiceApp(c *gin.Context) {
	log := logger.FromGin(c)
	ev := parseCallEvent(c)

	d := h.Engine.RouteIncoming(ev)
	log.Info("call routed", "call_id", ev.CallID, "from", ev.From, "to", ev.To, "reason", d.Reason)

	// Best-effort heads-up for real inbound traffic; failures never reach
	// the call-control response.
	if d.Reason != "destination_mismatch" && d.Reason != "outbound_bridge" {
		h.Notifier.Send(c.Request.Context(), notify.Event{Kind: notify.KindIncomingCall, Number: ev.From})
	}

	h.writeTwiML(c, d)
}

// DialClient is the Attempting(n) entry point.
func (h WebhookHandlers) DialClient(c *gin.Context) {
	n, err := routing.ParseAttempt(c.Query(routing.AttemptParam))
	if err != nil {
		logger.FromGin(c).Warn("bad attempt parameter", "err", err)
		// Degrade to voicemail rather than failing the live call.
		h.writeTwiML(c, h.Engine.Voicemail(""))
		return
	}
	h.writeTwiML(c, h.Engine.EnterAttempt(n))
}

// DialResult consumes the outcome of one client ring attempt.
func (h WebhookHandlers) DialResult(c *gin.Context) {
	log := logger.FromGin(c)

	n, err := routing.ParseAttempt(c.Query(routing.AttemptParam))
	if err != nil {
		log.Warn("bad attempt parameter", "err", err)
		h.writeTwiML(c, h.Engine.Voicemail(""))
		return
	}

	outcome := parseDialOutcome(c)
	next := routing.Next(routing.Attempting{N: n}, outcome)
	log.Info("dial result", "attempt", n, "outcome", outcome, "next", nextName(next))

	h.writeTwiML(c, h.Engine.Decide(next))
}

// CallTimeout is the voicemail fallback entry point, reached from the
// exhausted retry loop or from the redirect-number path.
func (h WebhookHandlers) CallTimeout(c *gin.Context) {
	outcome := parseDialOutcome(c)
	logger.FromGin(c).Info("call timeout", "outcome", outcome)
	h.writeTwiML(c, h.Engine.Voicemail(outcome))
}

// DialStatus logs the result of an outbound bridge. Nothing to instruct.
func (h WebhookHandlers) DialStatus(c *gin.Context) {
	logger.FromGin(c).Info("outbound bridge finished", "outcome", parseDialOutcome(c))
	h.writeTwiML(c, routing.Decision{Action: routing.ActionNone})
}

// CallStatus consumes top-level call status changes.
func (h WebhookHandlers) CallStatus(c *gin.Context) {
	h.Aggregator.CallStatusChanged(c.Request.Context(), parseCallStatusEvent(c))
	c.Status(http.StatusOK)
}

// Recording consumes recording-completion callbacks.
func (h WebhookHandlers) Recording(c *gin.Context) {
	h.Aggregator.RecordingFinished(c.Request.Context(), parseRecordingEvent(c))
	c.Status(http.StatusOK)
}

// IncomingMessage consumes a new inbound message.
func (h WebhookHandlers) IncomingMessage(c *gin.Context) {
	h.Aggregator.MessageReceived(c.Request.Context(), parseMessageEvent(c))
	c.Status(http.StatusOK)
}

// MessageStatus consumes message delivery status changes.
func (h WebhookHandlers) MessageStatus(c *gin.Context) {
	h.Aggregator.MessageStatusChanged(c.Request.Context(), parseMessageEvent(c))
	c.Status(http.StatusOK)
}

func (h WebhookHandlers) writeTwiML(c *gin.Context, d routing.Decision) {
	xml, err := RenderTwiML(d)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, xml)
}

func nextName(s routing.State) string {
	switch s.(type) {
	case routing.Attempting:
		return "attempting"
	case routing.Answered:
		return "answered"
	case routing.Exhausted:
		return "exhausted"
	case routing.Redirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}
