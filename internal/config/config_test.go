package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App: AppConfig{Env: "local", Port: 8080},
		Gateway: GatewayConfig{
			PublicBaseURL:  "https://gw.example.com",
			PhoneNumber:    "+15550009999",
			ClientIdentity: "browser",
		},
		Carrier: CarrierConfig{
			AccountSID:   "AC123",
			AuthToken:    "token",
			APIKeySID:    "SK123",
			APIKeySecret: "secret",
			AppSID:       "AP123",
		},
		Auth:      AuthConfig{JWTSecret: "secret"},
		Dashboard: DashboardConfig{PasswordHash: "$2a$10$hash"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_AcceptsMinimalConfig(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_DefaultsTokenTTLs(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("access ttl default = %v", c.Auth.AccessTokenTTL)
	}
	if c.Auth.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("refresh ttl default = %v", c.Auth.RefreshTokenTTL)
	}
}

func TestValidate_RejectsBadPhoneNumber(t *testing.T) {
	c := validConfig()
	c.Gateway.PhoneNumber = "5550009999"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-E.164 number")
	}

	c = validConfig()
	c.Gateway.RedirectNumber = "+0123"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for redirect number with leading zero")
	}
}

func TestValidate_ProductionRequiresIssuerAudience(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without JWT_ISSUER/JWT_AUDIENCE")
	}

	c = validConfig()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "phone-gateway"
	c.Auth.JWTAudience = "dashboard"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestVerifyWebhookSignatures(t *testing.T) {
	c := validConfig()
	if c.VerifyWebhookSignatures() {
		t.Fatalf("local env should not enforce signatures")
	}
	c.App.Env = "production"
	if !c.VerifyWebhookSignatures() {
		t.Fatalf("production must enforce signatures")
	}
}
