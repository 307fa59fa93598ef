package telephony

import (
	"context"
	"errors"
	"time"

	"github.com/twilio/twilio-go"
	twiliojwt "github.com/twilio/twilio-go/client/jwt"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// CarrierConfig holds the carrier account credentials and registration.
type CarrierConfig struct {
	AccountSID   string
	AuthToken    string
	APIKeySID    string
	APIKeySecret string

	// AppSID is the carrier-side application the software client dials
	// through; its voice URL points at /voice/twiml-app.
	AppSID string
}

// CarrierClient wraps the carrier REST SDK. There is no local database:
// every history read goes straight to the carrier.
//
// The SDK is not context-aware; contexts are accepted for interface symmetry
// and future use, and the SDK's own HTTP timeouts bound the calls.
type CarrierClient struct {
	cfg CarrierConfig
	api *twilio.RestClient
}

func NewCarrierClient(cfg CarrierConfig) (*CarrierClient, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("telephony: carrier account sid and auth token are required")
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &CarrierClient{cfg: cfg, api: rc}, nil
}

func (c *CarrierClient) ListCalls(_ context.Context, limit int) ([]openapi.ApiV2010Call, error) {
	params := &openapi.ListCallParams{}
	params.SetLimit(clampLimit(limit))
	return c.api.Api.ListCall(params)
}

func (c *CarrierClient) ListMessages(_ context.Context, limit int) ([]openapi.ApiV2010Message, error) {
	params := &openapi.ListMessageParams{}
	params.SetLimit(clampLimit(limit))
	return c.api.Api.ListMessage(params)
}

func (c *CarrierClient) ListRecordings(_ context.Context, limit int) ([]openapi.ApiV2010Recording, error) {
	params := &openapi.ListRecordingParams{}
	params.SetLimit(clampLimit(limit))
	return c.api.Api.ListRecording(params)
}

// SendMessage submits an outbound message with delivery status reported to
// statusCallback.
func (c *CarrierClient) SendMessage(_ context.Context, from, to, body, statusCallback string) (*openapi.ApiV2010Message, error) {
	params := &openapi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)
	if statusCallback != "" {
		params.SetStatusCallback(statusCallback)
	}
	return c.api.Api.CreateMessage(params)
}

// VoiceAccessToken mints the short-lived token the browser client uses to
// register with the carrier's voice SDK and place calls through AppSID.
func (c *CarrierClient) VoiceAccessToken(identity string, ttl time.Duration) (string, error) {
	if c.cfg.APIKeySID == "" || c.cfg.APIKeySecret == "" {
		return "", errors.New("telephony: api key sid and secret are required for voice tokens")
	}
	if identity == "" {
		return "", errors.New("telephony: voice token identity is required")
	}

	token := twiliojwt.CreateAccessToken(twiliojwt.AccessTokenParams{
		AccountSid:    c.cfg.AccountSID,
		SigningKeySid: c.cfg.APIKeySID,
		Secret:        c.cfg.APIKeySecret,
		Identity:      identity,
		Ttl:           ttl.Seconds(),
	})
	token.AddGrant(&twiliojwt.VoiceGrant{
		Incoming: twiliojwt.Incoming{Allow: true},
		Outgoing: twiliojwt.Outgoing{ApplicationSid: c.cfg.AppSID},
	})
	return token.ToJwt()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}
