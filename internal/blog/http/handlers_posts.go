package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/billboard/internal/blog/forms"
	"github.com/aussiebroadwan/billboard/internal/blog/service"
	"github.com/aussiebroadwan/billboard/pkg/httpx"
)

func (rt *Router) handleHome(w http.ResponseWriter, r *http.Request) {
	posts, err := rt.PostService.Feed(r.Context())
	if err != nil {
		rt.serverError(w, r, err)
		return
	}
	rt.render(w, r, http.StatusOK, "home", Page{Posts: posts})
}

func (rt *Router) handleAbout(w http.ResponseWriter, r *http.Request) {
	rt.render(w, r, http.StatusOK, "about", Page{Title: "About"})
}

func (rt *Router) handleNewPostForm(w http.ResponseWriter, r *http.Request) {
	rt.render(w, r, http.StatusOK, "create_post", Page{Title: "New Post", Form: &forms.Post{}})
}

func (rt *Router) handleNewPost(w http.ResponseWriter, r *http.Request) {
	var form forms.Post
	if err := forms.Decode(r, &form); err != nil {
		rt.badForm(w, r, "create_post", "New Post", &form, err)
		return
	}

	if errs := form.Validate(); errs.Any() {
		rt.render(w, r, http.StatusUnprocessableEntity, "create_post",
			Page{Title: "New Post", Form: &form, Errors: errs})
		return
	}

	u, _ := CurrentUser(r.Context())
	if _, err := rt.PostService.Create(r.Context(), u.ID, form.Title, form.Content); err != nil {
		rt.serverError(w, r, err)
		return
	}

	rt.metrics.RecordPostCreated()
	rt.addFlash(w, r, flash(FlashSuccess, "New post added!"))
	httpx.SeeOther(w, r, "/")
}

func (rt *Router) handleShowPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		rt.notFound(w, r)
		return
	}

	p, err := rt.PostService.Get(r.Context(), id)
	if errors.Is(err, service.ErrPostNotFound) {
		rt.notFound(w, r)
		return
	}
	if err != nil {
		rt.serverError(w, r, err)
		return
	}
	rt.render(w, r, http.StatusOK, "post", Page{Title: p.Title, Post: &p})
}

// pathID reads a positive {id} wildcard.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
