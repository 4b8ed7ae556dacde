package common

// Cookie names used by the web layer.
const (
	SessionCookieName = "en_session"
	CSRFCookieName    = "en_csrf"
	VerifyCookieName  = "en_verify"
)

// CSRFFormField and CSRFHeaderName carry the submitted anti-forgery token.
const (
	CSRFFormField  = "csrf"
	CSRFHeaderName = "X-CSRF-Token"
)

// RedirectToParam preserves the intended destination across a login redirect.
const RedirectToParam = "redirectTo"

// Built-in role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
