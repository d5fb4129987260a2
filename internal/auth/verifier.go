package auth

import (
	"context"

	"github.com/dkeye/classroom/internal/domain"
)

//go:generate mockgen -destination=mocks/verifier.go -package=mocks . Verifier

// Identity is what a verified credential says about its bearer.
// Role is empty when the credential carries no role claim.
type Identity struct {
	ParticipantID string
	Role          domain.Role
}

// Verifier validates a bearer credential. Rejections wrap one of the
// handshake errors; any other error is treated as the verifier being
// unavailable.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
