// Package server initializes and runs the identity server.
// It opens the database, applies migrations, selects delivery, limiter and
// event backends from configuration, handles graceful shutdown and starts
// the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/easebox-identity/internal/cryptox"
	"github.com/dmitrijs2005/easebox-identity/internal/logging"
	"github.com/dmitrijs2005/easebox-identity/internal/server/auth"
	"github.com/dmitrijs2005/easebox-identity/internal/server/config"
	"github.com/dmitrijs2005/easebox-identity/internal/server/delivery"
	"github.com/dmitrijs2005/easebox-identity/internal/server/events"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/dmitrijs2005/easebox-identity/internal/server/oauth"
	"github.com/dmitrijs2005/easebox-identity/internal/server/ratelimit"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/easebox-identity/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/easebox-identity/internal/server/grpc"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	verification *services.VerificationService
	services     gs.Services
	closers      []io.Closer
}

// openDB is a seam for tests.
var openDB = repomanager.OpenDB

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}

	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	rm, err := repomanager.NewPostgresRepositoryManager(app.db)
	if err != nil {
		return fmt.Errorf("repository manager error: %w", err)
	}
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	email, err := newEmailSender(ctx, c, app.logger)
	if err != nil {
		return fmt.Errorf("email sender error: %w", err)
	}
	sms, err := newSMSSender(ctx, c, app.logger)
	if err != nil {
		return fmt.Errorf("sms sender error: %w", err)
	}

	limiter, attempts, closer := newLimiters(c)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	publisher := newPublisher(c)
	if cl, ok := publisher.(io.Closer); ok {
		app.closers = append(app.closers, cl)
	}

	issuer := auth.NewIssuer(auth.Config{
		AccessSecret:  []byte(c.AccessSecret),
		RefreshSecret: []byte(c.RefreshSecret),
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})

	app.verification = services.NewVerificationService(app.db, rm, email, sms, app.logger,
		services.WithLimiter(limiter),
		services.WithAttemptLimiter(attempts),
		services.WithVerificationEvents(publisher),
		services.WithOTPTTL(c.OTPTTL),
	)

	app.services = gs.Services{
		Registration: services.NewRegistrationService(app.db, rm, cryptox.NewArgon2Hasher(cryptox.DefaultParams), issuer, app.verification, publisher, app.logger),
		Verification: app.verification,
		Linking:      services.NewLinkingService(app.db, rm, issuer, newProviders(c), publisher, app.logger),
		Tokens:       services.NewTokenService(app.db, rm, issuer),
		Verifier:     issuer,
	}

	return nil
}

func newEmailSender(ctx context.Context, c *config.Config, log logging.Logger) (delivery.EmailSender, error) {
	switch c.EmailBackend {
	case config.BackendSMTP:
		return delivery.NewSMTPEmailSender(delivery.SMTPConfig{
			Host:       c.SMTPHost,
			Port:       c.SMTPPort,
			Username:   c.SMTPUsername,
			Password:   c.SMTPPassword,
			From:       c.EmailFrom,
			SenderName: c.EmailSenderName,
		}, log), nil
	case config.BackendSES:
		return delivery.NewSESEmailSender(ctx, awsConfig(c), c.EmailFrom, log)
	default:
		return delivery.NewLogSender(log), nil
	}
}

func newSMSSender(ctx context.Context, c *config.Config, log logging.Logger) (delivery.SMSSender, error) {
	if c.SMSBackend == config.BackendSNS {
		return delivery.NewSNSSender(ctx, awsConfig(c), c.SMSSenderID, log)
	}
	return delivery.NewLogSender(log), nil
}

func awsConfig(c *config.Config) delivery.AWSConfig {
	return delivery.AWSConfig{
		Region:          c.AWSRegion,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
		Endpoint:        c.AWSEndpoint,
	}
}

// newLimiters builds the code-request and code-attempt limiters over one
// store: Redis when an address is configured, process memory otherwise. The
// returned closer is nil for the memory store.
func newLimiters(c *config.Config) (requests, attempts *ratelimit.Limiter, closer io.Closer) {
	var store ratelimit.Store
	if c.RedisAddr == "" {
		store = ratelimit.NewMemoryStore()
	} else {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{c.RedisAddr},
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		store, closer = ratelimit.NewRedisStore(client, "identity:"), client
	}

	requests = ratelimit.NewLimiter(store, ratelimit.Config{
		Window:   c.OTPRequestWindow,
		Max:      c.OTPRequestMax,
		Cooldown: c.OTPRequestCooldown,
	})
	attempts = ratelimit.NewLimiter(store, ratelimit.Config{
		Window: c.OTPTTL,
		Max:    c.OTPVerifyMax,
	})
	return requests, attempts, closer
}

func newPublisher(c *config.Config) events.Publisher {
	if len(c.KafkaBrokers) == 0 {
		return events.Nop{}
	}
	return events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:  c.KafkaBrokers,
		Topic:    c.KafkaTopic,
		Username: c.KafkaUsername,
		Password: c.KafkaPassword,
		TLS:      c.KafkaTLS,
	})
}

// newProviders registers a verifier for every provider with a client id.
func newProviders(c *config.Config) *oauth.Registry {
	r := oauth.NewRegistry()
	if c.GoogleClientID != "" {
		r.Register(models.ProviderGoogle, oauth.NewGoogleVerifier(c.GoogleClientID))
	}
	if c.AppleClientID != "" {
		r.Register(models.ProviderApple, oauth.NewAppleVerifier(c.AppleClientID))
	}
	return r
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.services)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrGRPC)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.verification.RunSweeper(ctx, app.config.SweepInterval)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
