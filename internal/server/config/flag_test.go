package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db", "-s", "access", "-k", "refresh",
			"-t", "1", "-r", "3", "-o", "5", "-l", "debug", "-m", "ses", "-n", "sns",
			"-R", "redis:6379", "-K", "k1:9092, k2:9092",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrGRPC: "127.0.0.1:9090",
				DatabaseDSN:      "db",
				AccessSecret:     "access",
				RefreshSecret:    "refresh",
				AccessTokenTTL:   1 * time.Minute,
				RefreshTokenTTL:  3 * time.Minute,
				OTPTTL:           5 * time.Minute,
				LogLevel:         "debug",
				EmailBackend:     "ses",
				SMSBackend:       "sns",
				RedisAddr:        "redis:6379",
				KafkaBrokers:     []string{"k1:9092", "k2:9092"},
			}},
		{name: "foreign flags ignored", args: []string{"cmd", "-x", "1", "-test.v"}, expectPanic: false,
			expected: &Config{}},
		{name: "bad int panics", args: []string{"cmd", "-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
