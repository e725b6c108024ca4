package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/flagx"
	"github.com/dmitrijs2005/easebox-identity/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
//
// Only keys present in the file override the current values.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      string         `json:"database_dsn"`
	AccessSecret     string         `json:"access_secret"`
	RefreshSecret    string         `json:"refresh_secret"`
	AccessTokenTTL   timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL  timex.Duration `json:"refresh_token_ttl"`
	OTPTTL           timex.Duration `json:"otp_ttl"`
	SweepInterval    timex.Duration `json:"sweep_interval"`
	LogLevel         string         `json:"log_level"`
	LogFormat        string         `json:"log_format"`

	EmailBackend    string `json:"email_backend"`
	EmailFrom       string `json:"email_from"`
	EmailSenderName string `json:"email_sender_name"`
	SMTPHost        string `json:"smtp_host"`
	SMTPPort        int    `json:"smtp_port"`
	SMTPUsername    string `json:"smtp_username"`
	SMTPPassword    string `json:"smtp_password"`

	SMSBackend  string `json:"sms_backend"`
	SMSSenderID string `json:"sms_sender_id"`

	AWSRegion          string `json:"aws_region"`
	AWSAccessKeyID     string `json:"aws_access_key_id"`
	AWSSecretAccessKey string `json:"aws_secret_access_key"`
	AWSEndpoint        string `json:"aws_endpoint"`

	RedisAddr          string         `json:"redis_addr"`
	RedisPassword      string         `json:"redis_password"`
	RedisDB            int            `json:"redis_db"`
	OTPRequestWindow   timex.Duration `json:"otp_request_window"`
	OTPRequestMax      int            `json:"otp_request_max"`
	OTPRequestCooldown timex.Duration `json:"otp_request_cooldown"`
	OTPVerifyMax       int            `json:"otp_verify_max"`

	KafkaBrokers  []string `json:"kafka_brokers"`
	KafkaTopic    string   `json:"kafka_topic"`
	KafkaUsername string   `json:"kafka_username"`
	KafkaPassword string   `json:"kafka_password"`
	KafkaTLS      bool     `json:"kafka_tls"`

	GoogleClientID string `json:"google_client_id"`
	AppleClientID  string `json:"apple_client_id"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.IsSet() {
		*dst = v.Duration
	}
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flag. Without the flag nothing is loaded. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessSecret, c.AccessSecret)
	setString(&config.RefreshSecret, c.RefreshSecret)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	setDuration(&config.AccessTokenTTL, c.AccessTokenTTL)
	setDuration(&config.RefreshTokenTTL, c.RefreshTokenTTL)
	setDuration(&config.OTPTTL, c.OTPTTL)
	setDuration(&config.SweepInterval, c.SweepInterval)

	setString(&config.EmailBackend, c.EmailBackend)
	setString(&config.EmailFrom, c.EmailFrom)
	setString(&config.EmailSenderName, c.EmailSenderName)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)

	setString(&config.SMSBackend, c.SMSBackend)
	setString(&config.SMSSenderID, c.SMSSenderID)

	setString(&config.AWSRegion, c.AWSRegion)
	setString(&config.AWSAccessKeyID, c.AWSAccessKeyID)
	setString(&config.AWSSecretAccessKey, c.AWSSecretAccessKey)
	setString(&config.AWSEndpoint, c.AWSEndpoint)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	setDuration(&config.OTPRequestWindow, c.OTPRequestWindow)
	setInt(&config.OTPRequestMax, c.OTPRequestMax)
	setDuration(&config.OTPRequestCooldown, c.OTPRequestCooldown)
	setInt(&config.OTPVerifyMax, c.OTPVerifyMax)

	if len(c.KafkaBrokers) > 0 {
		config.KafkaBrokers = c.KafkaBrokers
	}
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.KafkaUsername, c.KafkaUsername)
	setString(&config.KafkaPassword, c.KafkaPassword)
	if c.KafkaTLS {
		config.KafkaTLS = true
	}

	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.AppleClientID, c.AppleClientID)
}
