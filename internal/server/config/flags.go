package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   access token HMAC secret
//	-k string   refresh token HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-o int      verification code validity, minutes
//	-l string   log level (debug|info|warn|error)
//	-m string   email backend (log|smtp|ses)
//	-n string   sms backend (log|sns)
//	-R string   Redis address for the code request limiter
//	-K string   comma separated Kafka brokers
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-k", "-t", "-r", "-o", "-l", "-m", "-n", "-R", "-K"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessSecret, "s", config.AccessSecret, "access token secret")
	fs.StringVar(&config.RefreshSecret, "k", config.RefreshSecret, "refresh token secret")

	accessTokenTTL := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token validity (in minutes)")
	refreshTokenTTL := fs.Int("r", int(config.RefreshTokenTTL.Minutes()), "refresh token validity (in minutes)")
	otpTTL := fs.Int("o", int(config.OTPTTL.Minutes()), "verification code validity (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.EmailBackend, "m", config.EmailBackend, "email backend")
	fs.StringVar(&config.SMSBackend, "n", config.SMSBackend, "sms backend")
	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address")
	brokers := fs.String("K", strings.Join(config.KafkaBrokers, ","), "kafka brokers")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenTTL = time.Duration(*accessTokenTTL) * time.Minute
	config.RefreshTokenTTL = time.Duration(*refreshTokenTTL) * time.Minute
	config.OTPTTL = time.Duration(*otpTTL) * time.Minute

	config.KafkaBrokers = nil
	for _, b := range strings.Split(*brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			config.KafkaBrokers = append(config.KafkaBrokers, b)
		}
	}
}
