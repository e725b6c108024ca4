package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it.
type execIface interface {
	isSignedIn() bool
	Register(ctx context.Context) error
	SignIn(ctx context.Context, args []string) error
	RequestVerification(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Providers(ctx context.Context) error
	Unlink(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
//
//	Signed out:
//	  register                      create an individual account
//	  signin <google|apple>         sign in with a provider ID token
//
//	Signed in:
//	  request <email|phone>         send a verification code
//	  verify <email|phone> [code]   confirm a verification code
//	  providers                     list linked providers
//	  unlink <google|apple>         remove a linked provider
//	  refresh                       rotate the session tokens
//	  signout                       forget the session
//
// Handlers report their own errors; the loop ends on EOF, exit or quit.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("id %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isSignedIn() {
				printlnFn("Available commands: request, verify, providers, unlink, refresh, signout, exit")
			} else {
				printlnFn("Available commands: register, signin, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "signin":
			_ = a.SignIn(ctx, args)

		case "request":
			_ = a.RequestVerification(ctx, args)

		case "verify":
			_ = a.Verify(ctx, args)

		case "providers":
			_ = a.Providers(ctx)

		case "unlink":
			_ = a.Unlink(ctx, args)

		case "refresh":
			_ = a.Refresh(ctx)

		case "signout", "logout":
			_ = a.SignOut(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
