package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/billboard/internal/blog/service"
)

func (rt *Router) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := rt.UserService.ListUsers(r.Context())
	if err != nil {
		rt.serverError(w, r, err)
		return
	}
	rt.render(w, r, http.StatusOK, "users", Page{Title: "Users", Users: users})
}

// handleShowUser renders someone's profile. The edit form is only shown to
// the profile owner and always posts to /profile, which acts on the caller.
func (rt *Router) handleShowUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		rt.notFound(w, r)
		return
	}

	target, err := rt.UserService.GetUserByID(r.Context(), id)
	if errors.Is(err, service.ErrUserNotFound) {
		rt.notFound(w, r)
		return
	}
	if err != nil {
		rt.serverError(w, r, err)
		return
	}

	posts, err := rt.PostService.ByAuthor(r.Context(), target.ID)
	if err != nil {
		rt.serverError(w, r, err)
		return
	}

	actor, _ := CurrentUser(r.Context())
	page := Page{
		Title:   target.Username,
		Profile: &target,
		Posts:   posts,
		CanEdit: rt.Authorizer.CanEditProfile(actor, target),
	}
	if page.CanEdit {
		page.Form = profileForm(target)
	}
	rt.render(w, r, http.StatusOK, "user", page)
}
