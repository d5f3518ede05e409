package handler

import (
	"net/http"

	"github.com/teamops/curator-rotation/entity"
	"github.com/teamops/curator-rotation/rotation"
)

// HeaderActorResolver trusts identity headers set by the dashboard's
// auth gateway. The scheduler still enforces the role itself.
type HeaderActorResolver struct{}

func (HeaderActorResolver) ActorFromRequest(r *http.Request) (*entity.Actor, error) {
	id := r.Header.Get("X-Actor-ID")
	if id == "" {
		return nil, rotation.ErrAuthenticationRequired
	}

	return &entity.Actor{
		ID:   id,
		Name: r.Header.Get("X-Actor-Name"),
		Role: r.Header.Get("X-Actor-Role"),
	}, nil
}
