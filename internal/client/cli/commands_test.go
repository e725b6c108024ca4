package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/client/client"
	"github.com/dmitrijs2005/easebox-identity/internal/client/config"
	pb "github.com/dmitrijs2005/easebox-identity/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	userID string

	registered *pb.RegisterIndividualRequest
	registerFn func() (*pb.AuthResponse, error)

	signInProvider, signInCredential string
	signInResp                       *pb.AuthResponse
	signInErr                        error

	channel, code string
	msg           string
	err           error

	providers []string
	unlinked  string
	refreshed bool
	pings     int
	pingErr   error
	closed    bool
}

func (f *fakeClient) Close() error { f.closed = true; return nil }
func (f *fakeClient) RegisterIndividual(_ context.Context, in pb.RegisterIndividualRequest) (*pb.AuthResponse, error) {
	f.registered = &in
	resp, err := f.registerFn()
	if err == nil {
		f.userID = resp.UserID
	}
	return resp, err
}
func (f *fakeClient) RequestVerification(_ context.Context, ch string) (string, error) {
	f.channel = ch
	return f.msg, f.err
}
func (f *fakeClient) VerifyOTP(_ context.Context, ch, code string) (string, error) {
	f.channel, f.code = ch, code
	return f.msg, f.err
}
func (f *fakeClient) SignInWithProvider(_ context.Context, provider, credential string) (*pb.AuthResponse, error) {
	f.signInProvider, f.signInCredential = provider, credential
	if f.signInErr == nil {
		f.userID = f.signInResp.UserID
	}
	return f.signInResp, f.signInErr
}
func (f *fakeClient) Refresh(context.Context) error { f.refreshed = true; return f.err }
func (f *fakeClient) GetLinkedProviders(context.Context) ([]string, error) {
	return f.providers, f.err
}
func (f *fakeClient) UnlinkProvider(_ context.Context, p string) (string, error) {
	f.unlinked = p
	return f.msg, f.err
}
func (f *fakeClient) Ping(context.Context) error { f.pings++; return f.pingErr }
func (f *fakeClient) UserID() string             { return f.userID }
func (f *fakeClient) SignOut()                   { f.userID = "" }

func newTestApp(f *fakeClient) *App {
	return &App{
		config: &config.Config{RequestTimeout: time.Second},
		client: f,
		reader: rdr(""),
		out:    io.Discard,
	}
}

// stubPrompts answers text prompts in order and returns pw for the password.
func stubPrompts(t *testing.T, answers []string, pw string, confirm bool) {
	t.Helper()
	origST, origGP, origGC := getSimpleText, getPassword, getConfirmation
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		i++
		return answers[i-1], nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(pw), nil }
	getConfirmation = func(_ *bufio.Reader, _ string, _ io.Writer) (bool, error) { return confirm, nil }
	t.Cleanup(func() {
		getSimpleText, getPassword, getConfirmation = origST, origGP, origGC
	})
}

func TestRegister_Success(t *testing.T) {
	out := captureOutput(t)
	f := &fakeClient{registerFn: func() (*pb.AuthResponse, error) {
		return &pb.AuthResponse{UserID: "u-1", Profile: pb.Profile{FirstName: "Jane"}}, nil
	}}
	a := newTestApp(f)
	stubPrompts(t, []string{"a@x.com", "Jane", "Doe", "+15551234567"}, "password1", true)

	require.NoError(t, a.Register(context.Background()))

	require.NotNil(t, f.registered)
	assert.Equal(t, "a@x.com", f.registered.Email)
	assert.Equal(t, "password1", f.registered.Password)
	assert.Equal(t, "Jane", f.registered.FirstName)
	assert.Equal(t, "Doe", f.registered.LastName)
	require.NotNil(t, f.registered.Phone)
	assert.Equal(t, "+15551234567", *f.registered.Phone)
	assert.True(t, f.registered.TermsAccepted)
	assert.True(t, a.isSignedIn())
	assert.Equal(t, "(a@x.com online)", a.getStatus())
	assert.Contains(t, *out, "Welcome, Jane! A verification code was sent to a@x.com")
}

func TestRegister_NoPhoneAndServiceError(t *testing.T) {
	out := captureOutput(t)
	f := &fakeClient{registerFn: func() (*pb.AuthResponse, error) {
		return nil, &client.ServiceError{Code: "TERMS_NOT_ACCEPTED", Message: "You must accept the terms"}
	}}
	a := newTestApp(f)
	stubPrompts(t, []string{"a@x.com", "Jane", "Doe", ""}, "password1", false)

	err := a.Register(context.Background())
	require.Error(t, err)
	assert.Nil(t, f.registered.Phone)
	assert.False(t, f.registered.TermsAccepted)
	assert.False(t, a.isSignedIn())
	assert.Contains(t, *out, "TERMS_NOT_ACCEPTED: You must accept the terms")
}

func TestRegister_PromptError(t *testing.T) {
	captureOutput(t)
	f := &fakeClient{}
	a := newTestApp(f)
	stubPrompts(t, nil, "", false)

	require.ErrorIs(t, a.Register(context.Background()), io.EOF)
	assert.Nil(t, f.registered)
}

func TestSignIn(t *testing.T) {
	out := captureOutput(t)
	isNew := true
	f := &fakeClient{signInResp: &pb.AuthResponse{UserID: "u-2", IsNewUser: &isNew, User: &pb.User{Email: "g@x.com"}}}
	a := newTestApp(f)
	stubPrompts(t, []string{"id-token"}, "", false)

	require.ErrorIs(t, a.SignIn(context.Background(), nil), errUsage)

	require.NoError(t, a.SignIn(context.Background(), []string{"Google"}))
	assert.Equal(t, "google", f.signInProvider)
	assert.Equal(t, "id-token", f.signInCredential)
	assert.Equal(t, ModeOnline, a.Mode)
	assert.Equal(t, "g@x.com", a.email)
	assert.Contains(t, *out, "Account created with")
}

func TestSignIn_Unauthorized(t *testing.T) {
	out := captureOutput(t)
	f := &fakeClient{signInErr: client.ErrUnauthorized}
	a := newTestApp(f)
	stubPrompts(t, []string{"bad"}, "", false)

	require.Error(t, a.SignIn(context.Background(), []string{"apple"}))
	assert.Contains(t, *out, "Session is not valid, please sign in again")
}

func TestRequestVerification(t *testing.T) {
	out := captureOutput(t)
	f := &fakeClient{msg: "Verification SMS sent successfully"}
	a := newTestApp(f)

	require.ErrorIs(t, a.RequestVerification(context.Background(), []string{"fax"}), errUsage)
	require.ErrorIs(t, a.RequestVerification(context.Background(), nil), errUsage)

	require.NoError(t, a.RequestVerification(context.Background(), []string{"PHONE"}))
	assert.Equal(t, "phone", f.channel)
	assert.Contains(t, *out, "Verification SMS sent successfully")

	f.err = client.ErrNotSignedIn
	require.Error(t, a.RequestVerification(context.Background(), []string{"email"}))
	assert.Contains(t, *out, "Please register or sign in first")
}

func TestVerify(t *testing.T) {
	captureOutput(t)
	f := &fakeClient{msg: "Email verified successfully"}
	a := newTestApp(f)

	require.NoError(t, a.Verify(context.Background(), []string{"email", "123456"}))
	assert.Equal(t, "123456", f.code)

	stubPrompts(t, []string{"654321"}, "", false)
	require.NoError(t, a.Verify(context.Background(), []string{"email"}))
	assert.Equal(t, "654321", f.code)

	require.ErrorIs(t, a.Verify(context.Background(), []string{"email", "1", "2"}), errUsage)
}

func TestProvidersAndUnlink(t *testing.T) {
	out := captureOutput(t)
	f := &fakeClient{providers: []string{"google"}, msg: "google account unlinked successfully"}
	a := newTestApp(f)

	require.NoError(t, a.Providers(context.Background()))
	assert.Contains(t, *out, "google")

	f.providers = nil
	require.NoError(t, a.Providers(context.Background()))
	assert.Contains(t, *out, "No linked providers")

	require.ErrorIs(t, a.Unlink(context.Background(), nil), errUsage)
	require.NoError(t, a.Unlink(context.Background(), []string{"Google"}))
	assert.Equal(t, "google", f.unlinked)

	f.err = &client.ServiceError{Code: "CANNOT_UNLINK_ONLY_AUTH", Message: "Cannot unlink"}
	require.Error(t, a.Unlink(context.Background(), []string{"google"}))
	assert.Contains(t, *out, "CANNOT_UNLINK_ONLY_AUTH: Cannot unlink")
}

func TestRefreshAndSignOut(t *testing.T) {
	out := captureOutput(t)
	f := &fakeClient{userID: "u-1"}
	a := newTestApp(f)
	a.email = "a@x.com"

	require.NoError(t, a.Refresh(context.Background()))
	assert.True(t, f.refreshed)

	f.err = client.ErrUnavailable
	require.Error(t, a.Refresh(context.Background()))
	assert.Equal(t, ModeOffline, a.Mode)
	assert.Contains(t, *out, "Server unavailable")

	require.NoError(t, a.SignOut(context.Background()))
	assert.False(t, a.isSignedIn())
	assert.Empty(t, a.email)
}

func TestReport_PlainError(t *testing.T) {
	out := captureOutput(t)
	a := newTestApp(&fakeClient{})
	err := errors.New("boom")
	require.Equal(t, err, a.report(err))
	assert.Contains(t, *out, "boom")
}

func TestStartOnlineStatusWatcher(t *testing.T) {
	f := &fakeClient{}
	a := newTestApp(f)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	a.StartOnlineStatusWatcher(ctx, 10*time.Millisecond)

	assert.Greater(t, f.pings, 0)
	assert.Equal(t, ModeOnline, a.Mode)
	assert.Equal(t, "(online)", a.getStatus())

	// zero interval disables the watcher
	a.StartOnlineStatusWatcher(context.Background(), 0)
}

func TestRun_ClosesClient(t *testing.T) {
	captureOutput(t)
	f := &fakeClient{}
	a := newTestApp(f)
	a.reader = rdr("exit\n")

	a.Run(context.Background())
	assert.True(t, f.closed)
}
