package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/dmitrijs2005/easebox-identity/internal/dbx"
	"github.com/dmitrijs2005/easebox-identity/internal/logging"
	"github.com/dmitrijs2005/easebox-identity/internal/server/delivery"
	"github.com/dmitrijs2005/easebox-identity/internal/server/events"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/dmitrijs2005/easebox-identity/internal/server/ratelimit"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/repomanager"
)

const (
	DefaultOTPTTL = 10 * time.Minute
	OTPDigits     = 6
)

// RequestLimiter throttles code requests. Errors wrapping ratelimit.ErrLimited
// reject the request; any other error is a backend fault.
type RequestLimiter interface {
	Allow(ctx context.Context, subject string) error
}

// VerificationService issues one-time codes over email or SMS and consumes
// them to mark the channel verified.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	email       delivery.EmailSender
	sms         delivery.SMSSender
	limiter     RequestLimiter
	attempts    RequestLimiter
	events      events.Publisher
	log         logging.Logger
	otpTTL      time.Duration
	now         func() time.Time
	newCode     func() (string, error)
}

type VerificationOption func(*VerificationService)

func WithLimiter(l RequestLimiter) VerificationOption {
	return func(s *VerificationService) { s.limiter = l }
}

// WithAttemptLimiter throttles VerifyOTP calls per user and channel so a
// code cannot be guessed within its lifetime.
func WithAttemptLimiter(l RequestLimiter) VerificationOption {
	return func(s *VerificationService) { s.attempts = l }
}

func WithVerificationEvents(p events.Publisher) VerificationOption {
	return func(s *VerificationService) { s.events = p }
}

func WithOTPTTL(d time.Duration) VerificationOption {
	return func(s *VerificationService) {
		if d > 0 {
			s.otpTTL = d
		}
	}
}

func WithClock(now func() time.Time) VerificationOption {
	return func(s *VerificationService) { s.now = now }
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, email delivery.EmailSender, sms delivery.SMSSender, log logging.Logger, opts ...VerificationOption) *VerificationService {
	s := &VerificationService{
		db:          db,
		repomanager: m,
		email:       email,
		sms:         sms,
		events:      events.Nop{},
		log:         log.With("module", "verification"),
		otpTTL:      DefaultOTPTTL,
		now:         time.Now,
		newCode:     func() (string, error) { return common.GenerateNumericCode(OTPDigits) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RequestVerification replaces any outstanding code of (userID, ch) with a
// fresh one and delivers it. A delivery failure is reported but the stored
// code stays valid until it expires.
func (s *VerificationService) RequestVerification(ctx context.Context, userID string, ch models.Channel) error {
	if ch != models.ChannelEmail && ch != models.ChannelPhone {
		return fmt.Errorf("unknown channel %q", ch)
	}
	if !validUserID(userID) {
		return common.ErrUserNotFound
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return mapNotFound(err, common.ErrUserNotFound, "load user")
	}
	if user.Verified(ch) {
		return common.ErrAlreadyVerified
	}

	to := user.Email
	if ch == models.ChannelPhone {
		profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("load profile: %w", err)
		}
		if profile != nil {
			to = strings.TrimSpace(profile.PhoneNumber())
		} else {
			to = ""
		}
		if to == "" {
			return common.ErrNoPhoneNumber
		}
	}

	if err := s.allow(ctx, s.limiter, userID+":"+string(ch), "Too many verification requests"); err != nil {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	expiresAt := s.now().Add(s.otpTTL)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// serialises concurrent requests for the same user
		if _, err := s.repomanager.Users(tx).GetByIDForUpdate(ctx, userID); err != nil {
			return mapNotFound(err, common.ErrUserNotFound, "lock user")
		}
		if _, err := s.repomanager.OTPs(tx).DeleteForChannel(ctx, userID, ch); err != nil {
			return fmt.Errorf("delete previous codes: %w", err)
		}
		if _, err := s.repomanager.OTPs(tx).Create(ctx, &models.OTP{
			UserID:    userID,
			Code:      code,
			Channel:   ch,
			ExpiresAt: expiresAt,
		}); err != nil {
			return mapNotFound(err, common.ErrUserNotFound, "store code")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.deliver(ctx, ch, to, code); err != nil {
		s.log.Error(ctx, "verification code not delivered", "user_id", userID, "channel", ch)
		return err
	}

	s.log.Info(ctx, "verification code issued", "user_id", userID, "channel", ch)
	return nil
}

func (s *VerificationService) allow(ctx context.Context, l RequestLimiter, subject, msg string) error {
	if l == nil {
		return nil
	}
	err := l.Allow(ctx, subject)
	if err == nil {
		return nil
	}
	var le *ratelimit.LimitError
	if errors.As(err, &le) {
		return common.NewAppError(common.ErrTooManyRequests,
			fmt.Sprintf("%s; try again in %s", msg, le.RetryAfter.Round(time.Second)))
	}
	if errors.Is(err, ratelimit.ErrLimited) {
		return common.ErrTooManyRequests
	}
	// limiter backend down: fail open
	s.log.Warn(ctx, "request limiter unavailable", "subject", subject, "error", err)
	return nil
}

func (s *VerificationService) deliver(ctx context.Context, ch models.Channel, to, code string) error {
	if ch == models.ChannelPhone {
		if !s.sms.SendSMS(ctx, to, delivery.VerificationSMS(code, s.otpTTL)) {
			return common.ErrSMSSendFailed
		}
		return nil
	}

	html, err := delivery.VerificationEmail(code, s.otpTTL)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	if !s.email.SendEmail(ctx, to, delivery.VerificationEmailSubject, html) {
		return common.ErrEmailSendFailed
	}
	return nil
}

// VerifyOTP consumes the live code of (userID, ch) if it equals code and marks
// the channel verified, both in one transaction. Wrong, expired, superseded and
// already used codes are indistinguishable and yield ErrInvalidOTP.
func (s *VerificationService) VerifyOTP(ctx context.Context, userID, code string, ch models.Channel) error {
	if ch != models.ChannelEmail && ch != models.ChannelPhone {
		return fmt.Errorf("unknown channel %q", ch)
	}
	if !common.IsNumericCode(code, OTPDigits) || !validUserID(userID) {
		return common.ErrInvalidOTP
	}
	if err := s.allow(ctx, s.attempts, "verify:"+userID+":"+string(ch), "Too many verification attempts"); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.OTPs(tx).Consume(ctx, userID, code, ch, s.now()); err != nil {
			return mapNotFound(err, common.ErrInvalidOTP, "consume code")
		}
		if err := s.repomanager.Users(tx).SetVerified(ctx, userID, ch); err != nil {
			return mapNotFound(err, common.ErrUserNotFound, "mark verified")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "channel verified", "user_id", userID, "channel", ch)
	publish(ctx, s.events, s.log, events.Event{
		Type:    events.TypeUserVerified,
		UserID:  userID,
		Channel: string(ch),
	})
	return nil
}

// SweepExpired deletes codes that can no longer be consumed.
func (s *VerificationService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.OTPs(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep codes: %w", err)
	}
	if n > 0 {
		s.log.Debug(ctx, "expired codes removed", "count", n)
	}
	return n, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *VerificationService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				s.log.Error(ctx, "code sweep failed", "error", err)
			}
		}
	}
}
