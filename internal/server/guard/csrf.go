package guard

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/notekeeper/notekeeper/internal/common"
)

const csrfTokenSize = 32

// CSRF issues and validates double-submit tokens. The cookie holds the token
// signed with a key derived from the CSRF secret; the form or header carries
// it in the clear.
type CSRF struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func NewCSRF(secret string, secure bool) *CSRF {
	codec := securecookie.New(deriveKey(secret, "csrf", 64), nil)
	codec.MaxAge(0)
	return &CSRF{codec: codec, secure: secure}
}

// Token returns the token from a valid existing cookie, or issues a new one.
func (c *CSRF) Token(w http.ResponseWriter, r *http.Request) (string, error) {
	if token, err := c.fromCookie(r); err == nil {
		return token, nil
	}
	return c.Issue(w)
}

// Issue always rotates the token.
func (c *CSRF) Issue(w http.ResponseWriter) (string, error) {
	token, err := common.MakeRandToken(csrfTokenSize)
	if err != nil {
		return "", fmt.Errorf("csrf token: %w", err)
	}
	encoded, err := c.codec.Encode(common.CSRFCookieName, token)
	if err != nil {
		return "", fmt.Errorf("csrf cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.CSRFCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// Validate checks the submitted token against the cookie. The form must
// already be parsed. Success does not consume the token.
func (c *CSRF) Validate(r *http.Request) error {
	expected, err := c.fromCookie(r)
	if err != nil {
		return err
	}

	submitted := r.PostForm.Get(common.CSRFFormField)
	if submitted == "" {
		submitted = r.Header.Get(common.CSRFHeaderName)
	}
	if submitted == "" {
		return fmt.Errorf("%w: missing token", common.ErrCsrfInvalid)
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) != 1 {
		return fmt.Errorf("%w: token mismatch", common.ErrCsrfInvalid)
	}
	return nil
}

func (c *CSRF) fromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(common.CSRFCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", fmt.Errorf("%w: missing cookie", common.ErrCsrfInvalid)
		}
		return "", fmt.Errorf("%w: %v", common.ErrCsrfInvalid, err)
	}

	var token string
	if err := c.codec.Decode(common.CSRFCookieName, cookie.Value, &token); err != nil {
		return "", fmt.Errorf("%w: tampered cookie", common.ErrCsrfInvalid)
	}
	if token == "" {
		return "", fmt.Errorf("%w: empty cookie", common.ErrCsrfInvalid)
	}
	return token, nil
}
