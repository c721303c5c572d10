package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
	"github.com/aussiebroadwan/billboard/internal/blog/forms"
	"github.com/aussiebroadwan/billboard/internal/blog/media"
	"github.com/aussiebroadwan/billboard/internal/blog/service"
	"github.com/aussiebroadwan/billboard/pkg/billboardsdk"
	"github.com/aussiebroadwan/billboard/pkg/httpx"
	"github.com/aussiebroadwan/billboard/pkg/jwtx"
	"github.com/aussiebroadwan/billboard/pkg/slogx"
)

func (rt *Router) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	rt.render(w, r, http.StatusOK, "register", Page{Title: "Register", Form: &forms.Registration{}})
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form forms.Registration
	if err := forms.Decode(r, &form); err != nil {
		rt.badForm(w, r, "register", "Register", &form, err)
		return
	}

	if errs := form.Validate(); errs.Any() {
		rt.metrics.RecordRegistration("invalid")
		rt.render(w, r, http.StatusUnprocessableEntity, "register",
			Page{Title: "Register", Form: &form, Errors: errs})
		return
	}

	_, err := rt.UserService.Register(r.Context(), service.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		if errs, ok := takenErrors(err); ok {
			rt.metrics.RecordRegistration("conflict")
			rt.render(w, r, http.StatusConflict, "register",
				Page{Title: "Register", Form: &form, Errors: errs})
			return
		}
		rt.metrics.RecordRegistration("error")
		rt.serverError(w, r, err)
		return
	}

	rt.metrics.RecordRegistration("success")
	rt.addFlash(w, r,
		flash(FlashSuccess, "Account created!"),
		flash(FlashWarning, "Please update your profile info after login!!"),
	)
	httpx.SeeOther(w, r, "/profile")
}

func (rt *Router) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	rt.render(w, r, http.StatusOK, "login", Page{
		Title: "Login",
		Form:  &forms.Login{},
		Next:  safeNext(r),
	})
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r)

	var form forms.Login
	if err := forms.Decode(r, &form); err != nil {
		rt.badForm(w, r, "login", "Login", &form, err)
		return
	}

	if errs := form.Validate(); errs.Any() {
		rt.metrics.RecordLogin("invalid")
		rt.render(w, r, http.StatusUnprocessableEntity, "login",
			Page{Title: "Login", Form: &form, Errors: errs, Next: next})
		return
	}

	u, err := rt.UserService.Login(r.Context(), form.Email, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		rt.metrics.RecordLogin("failure")
		rt.render(w, r, http.StatusUnauthorized, "login", Page{
			Title:   "Login",
			Form:    &forms.Login{Email: form.Email},
			Next:    next,
			Flashes: []jwtx.Flash{flash(FlashDanger, "Login Unsuccessful. Please check email and password")},
		})
		return
	}
	if err != nil {
		rt.metrics.RecordLogin("error")
		rt.serverError(w, r, err)
		return
	}

	if err := rt.sessions.Issue(w, u.ID, u.Email, form.Remember); err != nil {
		rt.serverError(w, r, err)
		return
	}
	rt.metrics.RecordLogin("success")

	if next == "" {
		next = "/"
	}
	httpx.SeeOther(w, r, next)
}

func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := forms.CheckCSRF(r); err != nil {
		rt.render(w, r, http.StatusForbidden, "error", Page{Title: "Forbidden"})
		return
	}

	if u, ok := CurrentUser(r.Context()); ok {
		if err := rt.UserService.Logout(r.Context(), u.ID); err != nil {
			slogx.FromContext(r.Context()).Warn("failed to mark user offline",
				slog.Int64("user_id", u.ID), slog.Any("error", err))
		}
	}
	rt.sessions.Clear(w)
	httpx.SeeOther(w, r, "/")
}

func (rt *Router) handleProfileForm(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())
	rt.render(w, r, http.StatusOK, "profile", Page{
		Title:   "Profile",
		Profile: &u,
		Form:    profileForm(u),
	})
}

func (rt *Router) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, _ := CurrentUser(ctx)
	page := Page{Title: "Profile", Profile: &u}

	// Leave room for the other fields around the picture.
	r.Body = http.MaxBytesReader(w, r.Body, rt.MaxUploadBytes+forms.DefaultMaxMemory)

	var form forms.Profile
	if err := forms.Decode(r, &form); err != nil {
		if bodyTooLarge(err) {
			page.Form = profileForm(u)
			page.Errors = forms.Errors{"picture": "File is too large."}
			rt.render(w, r, http.StatusRequestEntityTooLarge, "profile", page)
			return
		}
		rt.badForm(w, r, "profile", "Profile", profileForm(u), err)
		return
	}
	page.Form = &form

	if f, header, err := r.FormFile("picture"); err == nil {
		_ = f.Close()
		if header.Filename != "" {
			form.Picture = header
			form.MaxPictureBytes = rt.MaxUploadBytes
		}
	}

	if errs := form.Validate(); errs.Any() {
		page.Errors = errs
		rt.render(w, r, http.StatusUnprocessableEntity, "profile", page)
		return
	}

	in := service.ProfileInput{
		Username: form.Username,
		Email:    form.Email,
		Phone:    form.Phone,
		Birthday: form.BirthdayDate(),
		Info:     form.Info,
	}

	if form.Picture != nil {
		name, err := rt.saveAvatar(form)
		switch {
		case errors.Is(err, media.ErrUnsupportedFormat):
			rt.metrics.RecordAvatarUpload("rejected")
			page.Errors = forms.Errors{"picture": "File could not be read as an image."}
			rt.render(w, r, http.StatusUnprocessableEntity, "profile", page)
			return
		case err != nil:
			rt.metrics.RecordAvatarUpload("error")
			rt.serverError(w, r, err)
			return
		}
		rt.metrics.RecordAvatarUpload("success")
		in.ImageFile = &name
	}

	updated, err := rt.UserService.UpdateProfile(ctx, u, in)
	if err != nil {
		if errs, ok := takenErrors(err); ok {
			page.Errors = errs
			rt.render(w, r, http.StatusConflict, "profile", page)
			return
		}
		rt.serverError(w, r, err)
		return
	}

	// The session is keyed by email, so follow the change.
	if updated.Email != u.Email {
		if err := rt.sessions.Issue(w, updated.ID, updated.Email, rt.sessions.Remembered(r)); err != nil {
			rt.serverError(w, r, err)
			return
		}
	}

	rt.addFlash(w, r, flash(FlashSuccess, "Your account has been updated!"))
	httpx.SeeOther(w, r, "/profile")
}

func (rt *Router) saveAvatar(form forms.Profile) (string, error) {
	f, err := form.Picture.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return rt.Avatars.Save(f, form.Picture.Filename)
}

// handleStatus sets the caller's presence flag.
//
//	@Summary		Set online status
//	@Description	Marks the signed-in user online (status=1) or offline (status=0). Requires a session cookie.
//	@Tags			Account
//	@Produce		json
//	@Param			status			query		int		true	"1 for online, 0 for offline"	Enums(0, 1)
//	@Param			csrf_token		query		string	false	"form token, required unless sent as X-CSRF-Token"
//	@Param			X-CSRF-Token	header		string	false	"form token from any earlier response"
//	@Success		200				{boolean}	bool	"resulting active flag"
//	@Failure		400				{object}	billboardsdk.ErrorResponse
//	@Failure		403				{object}	billboardsdk.ErrorResponse
//	@Failure		429				{object}	billboardsdk.ErrorResponse
//	@Router			/status [get]
//	@Router			/status [post]
func (rt *Router) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := forms.CheckCSRF(r); err != nil {
		billboardsdk.ErrCSRFRejected.WriteError(w)
		return
	}

	var active bool
	switch r.FormValue("status") {
	case "1":
		active = true
	case "0":
		active = false
	default:
		billboardsdk.ErrInvalidStatus.WriteError(w)
		return
	}

	u, _ := CurrentUser(r.Context())
	if err := rt.UserService.SetActive(r.Context(), u.ID, active); err != nil {
		slogx.FromContext(r.Context()).Error("failed to set status", slog.Any("error", err))
		billboardsdk.ErrServerError.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, active)
}

func profileForm(u domain.User) *forms.Profile {
	f := &forms.Profile{
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		Info:     u.Info,
	}
	if u.Birthday != nil {
		f.Birthday = u.Birthday.Format(forms.BirthdayLayout)
	}
	return f
}

// takenErrors turns a uniqueness failure into a field error.
func takenErrors(err error) (forms.Errors, bool) {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		return forms.Errors{"username": "That username is taken. Please choose a different one."}, true
	case errors.Is(err, service.ErrEmailTaken):
		return forms.Errors{"email": "That email is taken. Please choose a different one."}, true
	}
	return nil, false
}

// bodyTooLarge spots MaxBytesReader failures. The multipart reader flattens
// the error into its message, so errors.As alone is not enough.
func bodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

// safeNext returns the ?next= target when it stays on this site.
func safeNext(r *http.Request) string {
	target, ok := httpx.LocalRedirectTarget(r.URL.Query().Get("next"))
	if !ok {
		return ""
	}
	return target
}

func (rt *Router) badForm(w http.ResponseWriter, r *http.Request, page, title string, form any, err error) {
	status, message := http.StatusBadRequest, "The form could not be read. Please try again."
	if errors.Is(err, forms.ErrCSRF) {
		status, message = http.StatusForbidden, "The form expired. Please try again."
	}

	slogx.FromContext(r.Context()).Debug("rejected form body", slog.Int("status", status), slog.Any("error", err))
	rt.render(w, r, status, page, Page{
		Title:   title,
		Form:    form,
		Flashes: []jwtx.Flash{flash(FlashDanger, message)},
	})
}

func (rt *Router) addFlash(w http.ResponseWriter, r *http.Request, flashes ...jwtx.Flash) {
	if err := rt.sessions.AddFlash(w, r, flashes...); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to queue flash", slog.Any("error", err))
	}
}
