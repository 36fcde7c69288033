package domain

import "time"

// TokenIssuer issues bearer tokens naming actorID as their subject.
type TokenIssuer interface {
	Issue(actorID string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the actor id it was issued for.
// The returned id is the actor identity passed to EventService.
type TokenVerifier interface {
	Verify(token string) (actorID string, err error)
}
