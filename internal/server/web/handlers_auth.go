package web

import (
	"net/http"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/guard"
	"github.com/notekeeper/notekeeper/internal/server/services"
)

type challenge struct {
	CSRF     string               `json:"csrf"`
	Honeypot guard.HoneypotInputs `json:"honeypot"`
	Email    string               `json:"email,omitempty"`
}

func (h *Handler) newChallenge(w http.ResponseWriter, r *http.Request) (*challenge, error) {
	token, err := h.csrf.Token(w, r)
	if err != nil {
		return nil, err
	}
	inputs, err := h.honeypot.Inputs()
	if err != nil {
		return nil, err
	}
	return &challenge{CSRF: token, Honeypot: inputs}, nil
}

// csrfToken serves the token for forms that need no honeypot, such as the
// settings and notes forms of a logged-in user.
func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrf.Token(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"csrf": token})
}

// formChallenge hands out what a login or signup form must echo back.
func (h *Handler) formChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := h.newChallenge(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, c)
}

func (h *Handler) onboardingChallenge(w http.ResponseWriter, r *http.Request) {
	email, err := h.verifiedEmail(r)
	if err != nil {
		h.cookies.ClearVerify(w)
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}
	c, err := h.newChallenge(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	c.Email = email
	writeSuccess(w, http.StatusOK, c)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := h.bindForm(r.PostForm, &form); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.auth.Login(r.Context(), services.LoginInput{Username: form.Username, Password: form.Password})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.startSession(w, r, user.ID, form.Remember, form.RedirectTo)
}

// signup starts the email-first flow: the verified address travels to
// onboarding in a short-lived cookie.
func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var form signupForm
	if err := h.bindForm(r.PostForm, &form); err != nil {
		h.respondError(w, r, err)
		return
	}

	token, err := h.auth.StartSignup(r.Context(), form.Email)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.cookies.SetVerify(w, token, h.auth.VerifyTTL())
	writeSuccess(w, http.StatusOK, map[string]string{"redirectTo": "/onboarding"})
}

func (h *Handler) onboarding(w http.ResponseWriter, r *http.Request) {
	var form onboardingForm
	if err := h.bindForm(r.PostForm, &form); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.auth.Onboard(r.Context(), h.cookies.ReadVerify(r), services.OnboardingInput{
		Username: form.Username,
		Name:     form.Name,
		Password: form.Password,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.cookies.ClearVerify(w)
	h.startSession(w, r, user.ID, form.Remember, form.RedirectTo)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID string, remember bool, redirectTo string) {
	session, err := h.sessions.Issue(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.cookies.Set(w, session, remember); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"redirectTo": safeRedirect(redirectTo, "/")})
}

func (h *Handler) verifiedEmail(r *http.Request) (string, error) {
	token := h.cookies.ReadVerify(r)
	if token == "" {
		return "", common.ErrInvalidToken
	}
	return h.auth.VerifiedEmail(token)
}

// logout revokes the current session, if any, and always clears the cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, _, err := h.cookies.Read(r); err == nil {
		if err := h.sessions.Revoke(r.Context(), sessionID); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	h.cookies.Clear(w)
	writeSuccess(w, http.StatusOK, map[string]string{"redirectTo": "/"})
}
