package history

import (
	"context"
	"errors"
	"testing"

	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type stubCarrier struct {
	calls      []openapi.ApiV2010Call
	messages   []openapi.ApiV2010Message
	recordings []openapi.ApiV2010Recording
	err        error

	sentFrom, sentTo, sentBody, sentCallback string
}

func (s *stubCarrier) ListCalls(_ context.Context, _ int) ([]openapi.ApiV2010Call, error) {
	return s.calls, s.err
}

func (s *stubCarrier) ListMessages(_ context.Context, _ int) ([]openapi.ApiV2010Message, error) {
	return s.messages, s.err
}

func (s *stubCarrier) ListRecordings(_ context.Context, _ int) ([]openapi.ApiV2010Recording, error) {
	return s.recordings, s.err
}

func (s *stubCarrier) SendMessage(_ context.Context, from, to, body, statusCallback string) (*openapi.ApiV2010Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sentFrom, s.sentTo, s.sentBody, s.sentCallback = from, to, body, statusCallback
	return &openapi.ApiV2010Message{
		Sid:    ptr("SM1"),
		From:   ptr(from),
		To:     ptr(to),
		Body:   ptr(body),
		Status: ptr("queued"),
	}, nil
}

func ptr(s string) *string { return &s }

func TestListCallsConvertsCarrierRows(t *testing.T) {
	stub := &stubCarrier{calls: []openapi.ApiV2010Call{{
		Sid:       ptr("CA1"),
		From:      ptr("+15550002222"),
		To:        ptr("+15550009999"),
		Status:    ptr("completed"),
		Direction: ptr("inbound"),
		Duration:  ptr("42"),
		StartTime: ptr("Tue, 10 Jun 2025 14:30:00 +0000"),
	}}}
	svc := NewService(stub, "+15550009999", "https://gw.example.com/sms/status")

	calls, err := svc.ListCalls(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListCalls: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	c := calls[0]
	if c.CallID != "CA1" || c.Status != CallStatusCompleted || c.DurationSeconds != 42 {
		t.Fatalf("unexpected call: %+v", c)
	}
	if c.StartedAt.IsZero() {
		t.Fatal("expected parsed start time")
	}
}

func TestListCallsToleratesMissingFields(t *testing.T) {
	stub := &stubCarrier{calls: []openapi.ApiV2010Call{{Sid: ptr("CA2")}}}
	svc := NewService(stub, "", "")

	calls, err := svc.ListCalls(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListCalls: %v", err)
	}
	c := calls[0]
	if c.DurationSeconds != 0 || !c.StartedAt.IsZero() || c.From != "" {
		t.Fatalf("expected zero values for missing fields, got %+v", c)
	}
}

func TestListRecordingsDerivesMediaURL(t *testing.T) {
	stub := &stubCarrier{recordings: []openapi.ApiV2010Recording{{
		Sid:      ptr("RE1"),
		CallSid:  ptr("CA1"),
		Duration: ptr("12"),
		Uri:      ptr("/2010-04-01/Accounts/AC1/Recordings/RE1.json"),
	}}}
	svc := NewService(stub, "", "")

	recs, err := svc.ListRecordings(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListRecordings: %v", err)
	}
	want := "https://api.twilio.com/2010-04-01/Accounts/AC1/Recordings/RE1.mp3"
	if recs[0].MediaURL != want {
		t.Fatalf("media url = %q, want %q", recs[0].MediaURL, want)
	}
}

func TestSendMessageUsesProvisionedNumber(t *testing.T) {
	stub := &stubCarrier{}
	svc := NewService(stub, "+15550009999", "https://gw.example.com/sms/status")

	msg, err := svc.SendMessage(context.Background(), "+15550002222", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if stub.sentFrom != "+15550009999" {
		t.Fatalf("sent from %q, want provisioned number", stub.sentFrom)
	}
	if stub.sentCallback != "https://gw.example.com/sms/status" {
		t.Fatalf("status callback = %q", stub.sentCallback)
	}
	if msg.MessageID != "SM1" || msg.Status != "queued" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestSendMessageRejectsEmptyInput(t *testing.T) {
	svc := NewService(&stubCarrier{}, "+15550009999", "")

	if _, err := svc.SendMessage(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error for empty recipient")
	}
	if _, err := svc.SendMessage(context.Background(), "+15550002222", "  "); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestServiceWithoutCarrier(t *testing.T) {
	svc := NewService(nil, "", "")

	if _, err := svc.ListCalls(context.Background(), 10); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), "+15550002222", "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	calls := []Call{
		{Status: CallStatusCompleted, DurationSeconds: 30},
		{Status: CallStatusCompleted, DurationSeconds: 10},
		{Status: CallStatusNoAnswer},
		{Status: CallStatusBusy},
		{Status: CallStatusRinging},
	}

	sum := Summarize(calls)
	if sum.TotalCalls != 5 || sum.CompletedCalls != 2 || sum.MissedCalls != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.TotalDurationSeconds != 40 {
		t.Fatalf("total duration = %d, want 40", sum.TotalDurationSeconds)
	}
}
