package core

// Actor is the authenticated identity acting on a request. It is passed
// explicitly into every mutating service call; there is no ambient
// request-bound user.
type Actor struct {
	ID        string
	Superuser bool
}

// Can reports whether the actor may mutate an entity whose effective owner
// is ownerID. Superusers may mutate anything; an empty ownerID (author was
// deleted) matches nobody but a superuser.
func (a Actor) Can(ownerID string) bool {
	if a.Superuser {
		return true
	}
	return ownerID != "" && a.ID == ownerID
}

// Is reports whether the actor is exactly the given user. Used for checks
// that do not grant superusers a bypass (profiles, comments, follows).
func (a Actor) Is(userID string) bool {
	return userID != "" && a.ID == userID
}
