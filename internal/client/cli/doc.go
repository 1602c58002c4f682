// Package cli provides the interactive catlog command-line client.
//
// It wires configuration, the local session database, the API client, the
// session and entry stores, the router and an interactive REPL. At startup
// the App restores the session from the persisted token; afterwards every
// screen command is a navigation through the router, so protected screens
// are only shown once the route guard has allowed them. A denied navigation
// lands on the login screen and, after a successful login, continues to the
// screen originally asked for.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
