package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/easebox-identity/internal/client/client"
	"github.com/dmitrijs2005/easebox-identity/internal/common"
	pb "github.com/dmitrijs2005/easebox-identity/internal/proto"
)

// getSimpleText, getPassword and getConfirmation are swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getPassword     = GetPassword
	getConfirmation = GetConfirmation
)

var errUsage = errors.New("usage")

// report prints err in a user friendly form and returns it.
func (a *App) report(err error) error {
	var se *client.ServiceError
	switch {
	case errors.As(err, &se):
		printlnFn("Error:", se.Error())
	case errors.Is(err, client.ErrNotSignedIn):
		printlnFn("Please register or sign in first")
	case errors.Is(err, client.ErrUnauthorized):
		printlnFn("Session is not valid, please sign in again")
	case errors.Is(err, client.ErrUnavailable):
		printlnFn("Server unavailable")
		a.setMode(ModeOffline)
	default:
		printlnFn("Error:", err.Error())
	}
	return err
}

func usage(text string) error {
	printlnFn("Usage:", text)
	return errUsage
}

func channelArg(args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	ch := strings.ToLower(args[0])
	return ch, ch == "email" || ch == "phone"
}

func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	first, err := getSimpleText(a.reader, "Enter first name", a.out)
	if err != nil {
		return err
	}
	last, err := getSimpleText(a.reader, "Enter last name", a.out)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, "Enter phone (optional)", a.out)
	if err != nil {
		return err
	}
	terms, err := getConfirmation(a.reader, "Accept the terms of service?", a.out)
	if err != nil {
		return err
	}

	in := pb.RegisterIndividualRequest{
		Email:         email,
		Password:      string(password),
		FirstName:     first,
		LastName:      last,
		TermsAccepted: terms,
	}
	if phone != "" {
		in.Phone = &phone
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.client.RegisterIndividual(ctx, in)
	if err != nil {
		return a.report(err)
	}

	a.email = email
	a.setMode(ModeOnline)
	printlnFn(fmt.Sprintf("Welcome, %s! A verification code was sent to %s", resp.Profile.FirstName, email))
	return nil
}

// SignIn exchanges a provider ID token for a session. The token is read
// from the prompt so it does not end up in shell history.
func (a *App) SignIn(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("signin <google|apple>")
	}
	provider := strings.ToLower(args[0])

	credential, err := getSimpleText(a.reader, "Paste the "+provider+" ID token", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.client.SignInWithProvider(ctx, provider, credential)
	if err != nil {
		return a.report(err)
	}

	a.email = ""
	if resp.User != nil {
		a.email = resp.User.Email
	}
	a.setMode(ModeOnline)
	if resp.IsNewUser != nil && *resp.IsNewUser {
		printlnFn("Account created with", provider)
	} else {
		printlnFn("Signed in with", provider)
	}
	return nil
}

func (a *App) RequestVerification(ctx context.Context, args []string) error {
	ch, ok := channelArg(args)
	if !ok {
		return usage("request <email|phone>")
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.RequestVerification(ctx, ch)
	if err != nil {
		return a.report(err)
	}
	printlnFn(msg)
	return nil
}

func (a *App) Verify(ctx context.Context, args []string) error {
	ch, ok := channelArg(args)
	if !ok || len(args) > 2 {
		return usage("verify <email|phone> [code]")
	}

	var code string
	if len(args) == 2 {
		code = args[1]
	} else {
		var err error
		if code, err = getSimpleText(a.reader, "Enter the 6-digit code", a.out); err != nil {
			return err
		}
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.VerifyOTP(ctx, ch, code)
	if err != nil {
		return a.report(err)
	}
	printlnFn(msg)
	return nil
}

func (a *App) Providers(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	providers, err := a.client.GetLinkedProviders(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(providers) == 0 {
		printlnFn("No linked providers")
		return nil
	}
	for _, p := range providers {
		printlnFn("-", p)
	}
	return nil
}

func (a *App) Unlink(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("unlink <google|apple>")
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	msg, err := a.client.UnlinkProvider(ctx, strings.ToLower(args[0]))
	if err != nil {
		return a.report(err)
	}
	printlnFn(msg)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Refresh(ctx); err != nil {
		return a.report(err)
	}
	printlnFn("Tokens refreshed")
	return nil
}

func (a *App) SignOut(_ context.Context) error {
	a.client.SignOut()
	a.email = ""
	printlnFn("Signed out")
	return nil
}
