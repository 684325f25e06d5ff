// ABOUTME: Terminal implementation of the session view
// ABOUTME: Prints the auth strip shown at the top of every command

package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// AuthView renders the authentication state as a one-line strip.
type AuthView struct {
	w io.Writer
}

// NewAuthView creates a view writing to w.
func NewAuthView(w io.Writer) *AuthView {
	return &AuthView{w: w}
}

// ShowAuthenticated prints the signed-in strip, with the admin marker
// when the identity carries an admin role.
func (v *AuthView) ShowAuthenticated(name string, admin bool) {
	green := color.New(color.FgGreen)
	green.Fprintf(v.w, "● signed in as %s", name)
	if admin {
		yellow := color.New(color.FgYellow)
		yellow.Fprint(v.w, "  [admin]")
	}
	fmt.Fprintln(v.w)
}

// ShowAnonymous prints the signed-out strip.
func (v *AuthView) ShowAnonymous() {
	fmt.Fprintln(v.w, "○ not signed in")
}
