package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":   "www.example:9000",
		"database_dsn":         "identity-dsn",
		"access_secret":        "a-secret",
		"refresh_secret":       "r-secret",
		"access_token_ttl":     "1m",
		"refresh_token_ttl":    "3m",
		"otp_ttl":              300000000000,
		"email_backend":        "smtp",
		"smtp_host":            "mail.example",
		"smtp_port":            2525,
		"sms_backend":          "sns",
		"aws_region":           "eu-west-1",
		"redis_addr":           "redis:6379",
		"otp_request_cooldown": "30s",
		"otp_verify_max":       3,
		"kafka_brokers":        []string{"k1:9092"},
		"google_client_id":     "g-client",
		"apple_client_id":      "a-client",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "identity-dsn", cfg.DatabaseDSN)
		assert.Equal(t, "a-secret", cfg.AccessSecret)
		assert.Equal(t, "r-secret", cfg.RefreshSecret)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenTTL)
		assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
		assert.Equal(t, "smtp", cfg.EmailBackend)
		assert.Equal(t, "mail.example", cfg.SMTPHost)
		assert.Equal(t, 2525, cfg.SMTPPort)
		assert.Equal(t, "sns", cfg.SMSBackend)
		assert.Equal(t, "eu-west-1", cfg.AWSRegion)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, 30*time.Second, cfg.OTPRequestCooldown)
		assert.Equal(t, 3, cfg.OTPVerifyMax)
		assert.Equal(t, []string{"k1:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, "g-client", cfg.GoogleClientID)
		assert.Equal(t, "a-client", cfg.AppleClientID)
	})

	t.Run("missing keys keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"log_level": "debug"})
		os.Args = []string{"testbin", "-c", partial}

		var cfg Config
		cfg.LoadDefaults()
		parseJson(&cfg)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
		assert.Equal(t, 5, cfg.OTPRequestMax)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrGRPC: "defaults:1234",
			DatabaseDSN:      "dsn",
			AccessSecret:     "key",
			AccessTokenTTL:   2 * time.Minute,
			RefreshTokenTTL:  3 * time.Minute,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "dsn", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.AccessSecret)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenTTL)
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "absent.json")}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
