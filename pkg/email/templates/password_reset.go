package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// PasswordResetParams fill the password reset email.
type PasswordResetParams struct {
	Email string
	Link  string
	TTL   string
}

// PasswordReset is the HTML body of the password reset email. Unsafe link
// schemes are replaced by templ's sanitized placeholder.
func PasswordReset(p PasswordResetParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		link := string(templ.URL(p.Link))
		_, err := io.WriteString(w, "<p>Someone asked to reset the password for "+
			templ.EscapeString(p.Email)+".</p>\n"+
			"<p><a href=\""+templ.EscapeString(link)+"\">Choose a new password</a>. "+
			"The link expires in "+templ.EscapeString(p.TTL)+".</p>\n"+
			"<p>If you did not ask for this, ignore this email.</p>\n")
		return err
	})
}
