package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"github.com/dmitrijs2005/easebox-identity/internal/dbx"
	"github.com/dmitrijs2005/easebox-identity/internal/server/auth"
	"github.com/dmitrijs2005/easebox-identity/internal/server/events"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/identities"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/otps"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/easebox-identity/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func checkMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

// memStore is an in-memory identity store with the same observable rules as
// the PostgreSQL repositories. Transactions are only tracked by sqlmock, so
// writes made before a rollback stay visible here.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*models.User
	profiles   map[string]*models.Profile
	otps       []*models.OTP
	identities []*models.Identity

	getByEmailErr     error
	profileCreateErr  error
	identityCreateErr error
	// beforeIdentityCreate runs once before the next identity insert.
	beforeIdentityCreate func()
	// beforeUserCreate runs once before the next user insert.
	beforeUserCreate func()
	// beforeOTPCreate runs once before the next code insert.
	beforeOTPCreate func()
}

func runOnce(mu *sync.Mutex, hook *func()) {
	mu.Lock()
	h := *hook
	*hook = nil
	mu.Unlock()
	if h != nil {
		h()
	}
}

func (s *memStore) deleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		profiles: map[string]*models.Profile{},
	}
}

func (s *memStore) addUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.UserType == "" {
		u.UserType = models.UserTypeIndividual
	}
	s.users[u.ID] = &u
	cp := u
	return &cp
}

func (s *memStore) addProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.profiles[p.UserID] = &p
}

func (s *memStore) addIdentity(userID, provider, subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = append(s.identities, &models.Identity{
		ID: uuid.NewString(), UserID: userID, Provider: provider, ProviderSubject: subject,
		CreatedAt: time.Now().Add(time.Duration(len(s.identities)) * time.Second),
	})
}

func (s *memStore) user(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *memStore) liveOTPs(userID string, ch models.Channel) []models.OTP {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OTP
	for _, o := range s.otps {
		if o.UserID == userID && o.Channel == ch {
			out = append(out, *o)
		}
	}
	return out
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	runOnce(&r.s.mu, &r.s.beforeUserCreate)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ex := range r.s.users {
		if strings.EqualFold(ex.Email, u.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.getByEmailErr != nil {
		return nil, r.s.getByEmailErr
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) SetVerified(_ context.Context, id string, ch models.Channel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if ch == models.ChannelPhone {
		u.PhoneVerified = true
	} else {
		u.EmailVerified = true
	}
	return nil
}

type memProfiles struct{ s *memStore }

func (r memProfiles) Create(_ context.Context, p *models.Profile) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.profileCreateErr != nil {
		return nil, r.s.profileCreateErr
	}
	if _, ok := r.s.profiles[p.UserID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	cp := *p
	cp.ID = uuid.NewString()
	r.s.profiles[p.UserID] = &cp
	out := cp
	return &out, nil
}

func (r memProfiles) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

type memOTPs struct{ s *memStore }

func (r memOTPs) Create(_ context.Context, o *models.OTP) (*models.OTP, error) {
	runOnce(&r.s.mu, &r.s.beforeOTPCreate)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[o.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *o
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	r.s.otps = append(r.s.otps, &cp)
	out := cp
	return &out, nil
}

func (r memOTPs) DeleteForChannel(_ context.Context, userID string, ch models.Channel) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	kept := r.s.otps[:0]
	for _, o := range r.s.otps {
		if o.UserID == userID && o.Channel == ch {
			n++
			continue
		}
		kept = append(kept, o)
	}
	r.s.otps = kept
	return n, nil
}

func (r memOTPs) Consume(_ context.Context, userID, code string, ch models.Channel, now time.Time) (*models.OTP, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, o := range r.s.otps {
		if o.UserID == userID && o.Code == code && o.Channel == ch && o.ExpiresAt.After(now) {
			r.s.otps = append(r.s.otps[:i], r.s.otps[i+1:]...)
			return o, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memOTPs) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	kept := r.s.otps[:0]
	for _, o := range r.s.otps {
		if !o.ExpiresAt.After(now) {
			n++
			continue
		}
		kept = append(kept, o)
	}
	r.s.otps = kept
	return n, nil
}

type memIdentities struct{ s *memStore }

func (r memIdentities) Create(_ context.Context, id *models.Identity) (*models.Identity, error) {
	runOnce(&r.s.mu, &r.s.beforeIdentityCreate)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.identityCreateErr != nil {
		return nil, r.s.identityCreateErr
	}
	for _, ex := range r.s.identities {
		if (ex.UserID == id.UserID && ex.Provider == id.Provider) ||
			(ex.Provider == id.Provider && ex.ProviderSubject == id.ProviderSubject) {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *id
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	r.s.identities = append(r.s.identities, &cp)
	out := cp
	return &out, nil
}

func (r memIdentities) GetByProviderSubject(_ context.Context, provider, subject string) (*models.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range r.s.identities {
		if id.Provider == provider && id.ProviderSubject == subject {
			cp := *id
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memIdentities) ListByUser(_ context.Context, userID string) ([]models.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Identity{}
	for _, id := range r.s.identities {
		if id.UserID == userID {
			out = append(out, *id)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memIdentities) CountByUser(ctx context.Context, userID string) (int, error) {
	ids, err := r.ListByUser(ctx, userID)
	return len(ids), err
}

func (r memIdentities) Delete(_ context.Context, userID, provider string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, id := range r.s.identities {
		if id.UserID == userID && id.Provider == provider {
			r.s.identities = append(r.s.identities[:i], r.s.identities[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return memUsers{m.s} }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository        { return memProfiles{m.s} }
func (m *fakeRepoManager) OTPs(dbx.DBTX) otps.Repository                { return memOTPs{m.s} }
func (m *fakeRepoManager) Identities(dbx.DBTX) identities.Repository    { return memIdentities{m.s} }

// --- delivery, events, tokens ---

type sentMessage struct {
	To, Subject, Body string
}

type fakeSender struct {
	mu   sync.Mutex
	fail bool
	sent []sentMessage
}

func (f *fakeSender) SendEmail(_ context.Context, to, subject, html string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{To: to, Subject: subject, Body: html})
	return !f.fail
}

func (f *fakeSender) SendSMS(_ context.Context, to, body string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{To: to, Body: body})
	return !f.fail
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []events.Event
}

func (f *fakePublisher) Publish(_ context.Context, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeLimiter struct {
	err   error
	calls []string
}

func (f *fakeLimiter) Allow(_ context.Context, subject string) error {
	f.calls = append(f.calls, subject)
	return f.err
}

// plainHasher stores passwords with a marker prefix.
type plainHasher struct{ err error }

func (h plainHasher) Hash(p string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + p, nil
}

func (h plainHasher) Verify(p, encoded string) (bool, error) {
	return encoded == "hashed:"+p, nil
}

func newIssuer() *auth.Issuer {
	return auth.NewIssuer(auth.Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	})
}

func strptr(s string) *string { return &s }
