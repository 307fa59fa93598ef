package telephony

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"phone-gateway/internal/routing"
	"phone-gateway/internal/status"
)

// Webhook form decoding. The carrier posts application/x-www-form-urlencoded
// bodies; only the fields this gateway reads are pulled out.
//
// Keep this boundary dumb: no routing decisions here.

func parseCallEvent(c *gin.Context) routing.CallEvent {
	return routing.CallEvent{
		CallID:    c.PostForm("CallSid"),
		From:      strings.TrimSpace(c.PostForm("From")),
		To:        strings.TrimSpace(c.PostForm("To")),
		Direction: c.PostForm("Direction"),
	}
}

// parseDialOutcome normalizes the DialCallStatus field. An absent value is
// valid on the call-timeout hop (reached via the max-attempts redirect).
func parseDialOutcome(c *gin.Context) routing.DialOutcome {
	return routing.DialOutcome(strings.TrimSpace(c.PostForm("DialCallStatus")))
}

func parseCallStatusEvent(c *gin.Context) status.CallStatusEvent {
	return status.CallStatusEvent{
		CallID:          c.PostForm("CallSid"),
		Status:          c.PostForm("CallStatus"),
		From:            strings.TrimSpace(c.PostForm("From")),
		To:              strings.TrimSpace(c.PostForm("To")),
		Direction:       c.PostForm("Direction"),
		DurationSeconds: formInt(c, "CallDuration"),
	}
}

func parseRecordingEvent(c *gin.Context) status.RecordingEvent {
	return status.RecordingEvent{
		CallID:          c.PostForm("CallSid"),
		From:            strings.TrimSpace(c.PostForm("From")),
		RecordingURL:    c.PostForm("RecordingUrl"),
		DurationSeconds: formInt(c, "RecordingDuration"),
	}
}

func parseMessageEvent(c *gin.Context) status.MessageEvent {
	return status.MessageEvent{
		MessageID: c.PostForm("MessageSid"),
		From:      strings.TrimSpace(c.PostForm("From")),
		To:        strings.TrimSpace(c.PostForm("To")),
		Body:      c.PostForm("Body"),
		Status:    c.PostForm("MessageStatus"),
	}
}

func formInt(c *gin.Context, key string) int {
	v := strings.TrimSpace(c.PostForm(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
