package service

import "github.com/aussiebroadwan/billboard/internal/blog/domain"

// Authorizer answers ownership questions. Any signed-in user may view any
// profile; only the owner may edit it.
type Authorizer struct{}

func (Authorizer) CanEditProfile(actor, target domain.User) bool {
	return actor.ID != 0 && actor.ID == target.ID
}
