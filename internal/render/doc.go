// Package render writes storefront data to a terminal.
//
// Renderers take an io.Writer and never talk to the network or the kv
// store; callers fetch, renderers draw. AuthView is the terminal
// implementation of the session view: the auth strip it prints is the
// CLI's version of swapping the login form for the account menu.
package render
