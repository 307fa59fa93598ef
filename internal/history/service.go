package history

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var ErrNotConfigured = errors.New("history: carrier api not configured")

// CarrierAPI abstracts the carrier REST surface this service needs.
// telephony.CarrierClient is the production implementation.
type CarrierAPI interface {
	ListCalls(ctx context.Context, limit int) ([]openapi.ApiV2010Call, error)
	ListMessages(ctx context.Context, limit int) ([]openapi.ApiV2010Message, error)
	ListRecordings(ctx context.Context, limit int) ([]openapi.ApiV2010Recording, error)
	SendMessage(ctx context.Context, from, to, body, statusCallback string) (*openapi.ApiV2010Message, error)
}

// Service answers dashboard history queries by asking the carrier live.
type Service struct {
	api CarrierAPI

	// fromNumber is the provisioned number used for outbound messages.
	fromNumber string

	// statusCallback is the absolute URL delivery updates are posted to.
	statusCallback string
}

func NewService(api CarrierAPI, fromNumber, statusCallback string) *Service {
	return &Service{api: api, fromNumber: fromNumber, statusCallback: statusCallback}
}

func (s *Service) ListCalls(ctx context.Context, limit int) ([]Call, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.api.ListCalls(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Call, 0, len(rows))
	for _, r := range rows {
		out = append(out, Call{
			CallID:          deref(r.Sid),
			From:            deref(r.From),
			To:              deref(r.To),
			Status:          CallStatus(deref(r.Status)),
			Direction:       deref(r.Direction),
			DurationSeconds: atoi(deref(r.Duration)),
			StartedAt:       carrierTime(deref(r.StartTime)),
		})
	}
	return out, nil
}

func (s *Service) ListMessages(ctx context.Context, limit int) ([]Message, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.api.ListMessages(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, Message{
			MessageID: deref(r.Sid),
			From:      deref(r.From),
			To:        deref(r.To),
			Body:      deref(r.Body),
			Status:    deref(r.Status),
			Direction: deref(r.Direction),
			SentAt:    carrierTime(deref(r.DateSent)),
		})
	}
	return out, nil
}

func (s *Service) ListRecordings(ctx context.Context, limit int) ([]Recording, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.api.ListRecordings(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Recording, 0, len(rows))
	for _, r := range rows {
		out = append(out, Recording{
			RecordingID:     deref(r.Sid),
			CallID:          deref(r.CallSid),
			DurationSeconds: atoi(deref(r.Duration)),
			MediaURL:        mediaURL(deref(r.Uri)),
			CreatedAt:       carrierTime(deref(r.DateCreated)),
		})
	}
	return out, nil
}

// SendMessage submits an outbound message from the provisioned number.
func (s *Service) SendMessage(ctx context.Context, to, body string) (Message, error) {
	if s.api == nil {
		return Message{}, ErrNotConfigured
	}
	if strings.TrimSpace(to) == "" || strings.TrimSpace(body) == "" {
		return Message{}, errors.New("history: message recipient and body are required")
	}
	row, err := s.api.SendMessage(ctx, s.fromNumber, to, body, s.statusCallback)
	if err != nil {
		return Message{}, err
	}
	return Message{
		MessageID: deref(row.Sid),
		From:      deref(row.From),
		To:        deref(row.To),
		Body:      deref(row.Body),
		Status:    deref(row.Status),
		Direction: deref(row.Direction),
	}, nil
}

// Summarize aggregates a list of calls for the dashboard header.
func Summarize(calls []Call) CallsSummary {
	var out CallsSummary
	for _, c := range calls {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		switch c.Status {
		case CallStatusCompleted:
			out.CompletedCalls++
		case CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
			out.MissedCalls++
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// carrierTime parses the carrier's RFC 1123 timestamps; zero on failure.
func carrierTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC1123Z, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// mediaURL turns the API resource URI into a fetchable audio URL.
func mediaURL(uri string) string {
	if uri == "" {
		return ""
	}
	return "https://api.twilio.com" + strings.TrimSuffix(uri, ".json") + ".mp3"
}
