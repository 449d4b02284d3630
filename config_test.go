package authgate

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "token secret required",
			mutate: func(c *Config) {
				c.Token.Secret = nil
			},
			wantValid: false,
		},
		{
			name: "token lifetime zero invalid",
			mutate: func(c *Config) {
				c.Token.Lifetime = 0
			},
			wantValid: false,
		},
		{
			name: "token leeway valid",
			mutate: func(c *Config) {
				c.Token.Leeway = 45 * time.Second
			},
			wantValid: true,
		},
		{
			name: "token leeway negative invalid",
			mutate: func(c *Config) {
				c.Token.Leeway = -time.Second
			},
			wantValid: false,
		},
		{
			name: "token leeway above cap invalid",
			mutate: func(c *Config) {
				c.Token.Leeway = 3 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "max future iat negative invalid",
			mutate: func(c *Config) {
				c.Token.MaxFutureIAT = -time.Second
			},
			wantValid: false,
		},
		{
			name: "max future iat above cap invalid",
			mutate: func(c *Config) {
				c.Token.MaxFutureIAT = 25 * time.Hour
			},
			wantValid: false,
		},
		{
			name: "password cost zero selects default",
			mutate: func(c *Config) {
				c.Password.Cost = 0
			},
			wantValid: true,
		},
		{
			name: "password cost below bcrypt floor invalid",
			mutate: func(c *Config) {
				c.Password.Cost = 3
			},
			wantValid: false,
		},
		{
			name: "password cost above bcrypt ceiling invalid",
			mutate: func(c *Config) {
				c.Password.Cost = 32
			},
			wantValid: false,
		},
		{
			name: "reset ttl zero invalid",
			mutate: func(c *Config) {
				c.Reset.TTL = 0
			},
			wantValid: false,
		},
		{
			name: "max login attempts zero invalid",
			mutate: func(c *Config) {
				c.Security.MaxLoginAttempts = 0
			},
			wantValid: false,
		},
		{
			name: "login cooldown zero invalid",
			mutate: func(c *Config) {
				c.Security.LoginCooldown = 0
			},
			wantValid: false,
		},
		{
			name: "audit enabled requires buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}

func TestConfigValidateProductionPosture(t *testing.T) {
	strongSecret := []byte("0123456789abcdef0123456789abcdef")

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name: "strong posture valid",
			mutate: func(c *Config) {
				c.Token.Secret = strongSecret
			},
			wantValid: true,
		},
		{
			name:      "development secret rejected",
			mutate:    func(c *Config) {},
			wantValid: false,
		},
		{
			name: "short secret rejected",
			mutate: func(c *Config) {
				c.Token.Secret = []byte("too-short")
			},
			wantValid: false,
		},
		{
			name: "long token lifetime rejected",
			mutate: func(c *Config) {
				c.Token.Secret = strongSecret
				c.Token.Lifetime = 25 * time.Hour
			},
			wantValid: false,
		},
		{
			name: "weak password cost rejected",
			mutate: func(c *Config) {
				c.Token.Secret = strongSecret
				c.Password.Cost = 10
			},
			wantValid: false,
		},
		{
			name: "long reset ttl rejected",
			mutate: func(c *Config) {
				c.Token.Secret = strongSecret
				c.Reset.TTL = 20 * time.Minute
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.ProductionMode = true
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}
