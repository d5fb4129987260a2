package auth

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/dkeye/classroom/internal/domain"
)

// MaxCredentialLen bounds the size of a bearer credential.
const MaxCredentialLen = 8192

// Authenticate checks the credential's shape and verifies it. It returns
// once ctx is done even if the verifier does not honour ctx itself.
func Authenticate(ctx context.Context, v Verifier, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingCredential
	}
	if len(token) > MaxCredentialLen || strings.ContainsAny(token, " \t\r\n") {
		return Identity{}, ErrMalformedCredential
	}

	type result struct {
		id  Identity
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := v.Verify(ctx, token)
		done <- result{id, err}
	}()

	select {
	case <-ctx.Done():
		return Identity{}, errors.Wrap(ErrVerifierUnavailable, ctx.Err().Error())
	case r := <-done:
		switch {
		case r.err == nil:
		case errors.Is(r.err, ErrHandshakeRejected):
			return Identity{}, r.err
		default:
			return Identity{}, errors.Wrap(ErrVerifierUnavailable, r.err.Error())
		}
		r.id.ParticipantID = strings.TrimSpace(r.id.ParticipantID)
		if r.id.ParticipantID == "" {
			return Identity{}, errors.Wrap(ErrInvalidCredential, "empty participant id")
		}
		return r.id, nil
	}
}

// Resolve authenticates token and reconciles the verified identity with
// the descriptor the client claimed. The returned descriptor carries the
// verified participant id and the role the connection will act with.
//
// The credential's role claim always wins; a credential without one acts
// as a student whatever the client claims.
func Resolve(ctx context.Context, v Verifier, token string, claimed domain.SessionDescriptor) (domain.SessionDescriptor, error) {
	id, err := Authenticate(ctx, v, token)
	if err != nil {
		return domain.SessionDescriptor{}, err
	}
	if claimed.ParticipantID != "" && claimed.ParticipantID != id.ParticipantID {
		return domain.SessionDescriptor{}, errors.Wrapf(ErrIdentityMismatch, "claimed participant %q", claimed.ParticipantID)
	}

	role := id.Role
	switch {
	case role == "":
		role = domain.RoleStudent
	case claimed.Role != "" && claimed.Role != role:
		return domain.SessionDescriptor{}, errors.Wrapf(ErrIdentityMismatch, "claimed role %q, credential role %q", claimed.Role, role)
	}

	out := claimed
	out.ParticipantID = id.ParticipantID
	out.Role = role
	return out, nil
}
