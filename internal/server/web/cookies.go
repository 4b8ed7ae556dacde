package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/models"
)

// SessionCookies maps sessions to the signed en_session cookie and carries
// the onboarding verify token in en_verify.
type SessionCookies struct {
	codecs []securecookie.Codec
	secure bool
}

// NewSessionCookies signs with the first secret and accepts any of them,
// so a new secret can be put in front of the old one for rotation.
func NewSessionCookies(secrets []string, maxAge time.Duration, secure bool) *SessionCookies {
	pairs := make([][]byte, 0, 2*len(secrets))
	for _, s := range secrets {
		pairs = append(pairs, []byte(s), nil)
	}
	codecs := securecookie.CodecsFromPairs(pairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(int(maxAge.Seconds()))
		}
	}
	return &SessionCookies{codecs: codecs, secure: secure}
}

// Set writes the session cookie. Without remember the cookie lasts for the
// browser session; the server-side expiry applies either way.
func (c *SessionCookies) Set(w http.ResponseWriter, s *models.Session, remember bool) error {
	encoded, err := securecookie.EncodeMulti(common.SessionCookieName, s.ID, c.codecs...)
	if err != nil {
		return err
	}
	cookie := c.base(common.SessionCookieName, encoded)
	if remember {
		cookie.Expires = s.ExpiresAt
	}
	http.SetCookie(w, cookie)
	return nil
}

// Read returns the session id in the request. present reports whether a
// session cookie was sent at all, so callers can clear a bad one.
func (c *SessionCookies) Read(r *http.Request) (id string, present bool, err error) {
	cookie, err := r.Cookie(common.SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", false, common.ErrUnauthenticated
		}
		return "", false, err
	}
	if err := securecookie.DecodeMulti(common.SessionCookieName, cookie.Value, &id, c.codecs...); err != nil {
		return "", true, common.ErrUnauthenticated
	}
	return id, true, nil
}

func (c *SessionCookies) Clear(w http.ResponseWriter) {
	c.expire(w, common.SessionCookieName)
}

func (c *SessionCookies) SetVerify(w http.ResponseWriter, token string, ttl time.Duration) {
	cookie := c.base(common.VerifyCookieName, token)
	cookie.MaxAge = int(ttl.Seconds())
	http.SetCookie(w, cookie)
}

func (c *SessionCookies) ReadVerify(r *http.Request) string {
	cookie, err := r.Cookie(common.VerifyCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c *SessionCookies) ClearVerify(w http.ResponseWriter) {
	c.expire(w, common.VerifyCookieName)
}

func (c *SessionCookies) expire(w http.ResponseWriter, name string) {
	cookie := c.base(name, "")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

func (c *SessionCookies) base(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
