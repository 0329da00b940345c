package main

import (
	"context"
	"path/filepath"
	"testing"

	"loanlink/internal/config"
)

func TestRun_StartupFailureClosesStore(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"missing public key", func(cfg *config.Config) {
			cfg.Auth.PublicKeyFile = filepath.Join(t.TempDir(), "missing.pem")
		}},
		{"invalid digest schedule", func(cfg *config.Config) {
			cfg.PendingDigestCron = "not a schedule"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				AppMode:     "prod",
				Port:        "0",
				StoreDriver: config.DriverSQLite,
				SQLitePath:  filepath.Join(t.TempDir(), "loanlink.db"),
				Auth:        config.AuthConfig{JWTSecret: "test-secret"},
			}
			tt.mutate(cfg)

			var opened *config.Store
			orig := openStore
			openStore = func(ctx context.Context, cfg *config.Config) (*config.Store, error) {
				store, err := orig(ctx, cfg)
				opened = store
				return store, err
			}
			t.Cleanup(func() { openStore = orig })

			if err := run(cfg); err == nil {
				t.Fatal("run returned nil, want startup error")
			}
			if opened == nil {
				t.Fatal("store was never opened")
			}
			if err := opened.HealthCheck(context.Background()); err == nil {
				t.Fatal("store still reachable after failed startup")
			}
		})
	}
}

func TestNewValidator(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "s"}}
	if v, err := newValidator(cfg); err != nil || v == nil {
		t.Fatalf("HMAC validator = %v, %v", v, err)
	}

	cfg.Auth.PublicKeyFile = filepath.Join(t.TempDir(), "absent.pem")
	if _, err := newValidator(cfg); err == nil {
		t.Fatal("missing public key file accepted")
	}
}
