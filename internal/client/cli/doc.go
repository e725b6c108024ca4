// Package cli provides the interactive command-line client of the EaseBox
// identity service.
//
// It wires configuration and the gRPC client into a small REPL: register an
// individual account or sign in with Google/Apple, request and confirm
// verification codes, and manage linked providers. A background watcher
// pings the server and shows online/offline in the prompt.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
