package signal

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/classroom/internal/auth"
	"github.com/dkeye/classroom/internal/domain"
)

// CredentialFromRequest finds the bearer credential: the token query
// parameter, then x-token, then the Authorization header.
func CredentialFromRequest(r *http.Request) string {
	q := r.URL.Query()
	for _, key := range []string{"token", "x-token"} {
		if t := strings.TrimSpace(q.Get(key)); t != "" {
			return strings.TrimSpace(strings.TrimPrefix(t, "Bearer "))
		}
	}
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > len("Bearer ") && strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// DescriptorFromRequest reads the session descriptor, either as a JSON
// object in the session query parameter or from discrete parameters.
func DescriptorFromRequest(r *http.Request) (domain.SessionDescriptor, error) {
	q := r.URL.Query()
	if raw := q.Get("session"); raw != "" {
		d, err := domain.ParseSessionDescriptor(raw)
		if err != nil {
			return domain.SessionDescriptor{}, descriptorError(err)
		}
		return d, nil
	}
	if q.Get("classId") == "" && q.Get("sectionId") == "" {
		return domain.SessionDescriptor{}, auth.ErrMissingDescriptor
	}
	d, err := domain.SessionDescriptor{
		ParticipantID: q.Get("participantId"),
		ClassID:       q.Get("classId"),
		SectionID:     q.Get("sectionId"),
		Role:          domain.Role(q.Get("role")),
	}.Normalize()
	if err != nil {
		return domain.SessionDescriptor{}, descriptorError(err)
	}
	return d, nil
}

func descriptorError(err error) error {
	if errors.Is(err, domain.ErrDescriptorMissing) {
		return auth.ErrMissingDescriptor
	}
	return errors.Wrap(auth.ErrInvalidDescriptor, err.Error())
}

// handshake validates the request inputs and verifies the credential
// within the configured timeout.
func (ctl *SignalWSController) handshake(r *http.Request) (domain.SessionDescriptor, error) {
	token := CredentialFromRequest(r)
	if token == "" {
		return domain.SessionDescriptor{}, auth.ErrMissingCredential
	}
	claimed, err := DescriptorFromRequest(r)
	if err != nil {
		return domain.SessionDescriptor{}, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), ctl.cfg.VerifyTimeout)
	defer cancel()
	return auth.Resolve(ctx, ctl.Verifier, token, claimed)
}

func logRejection(r *http.Request, err error) {
	var ev *zerolog.Event
	if errors.Is(err, auth.ErrVerifierUnavailable) {
		ev = log.Error()
	} else {
		ev = log.Warn()
	}
	ev.Err(err).
		Str("module", "signal").
		Str("remote", r.RemoteAddr).
		Str("reason", rejectionReason(err)).
		Msg("handshake rejected")
}

func rejectionReason(err error) string {
	for _, reason := range []error{
		auth.ErrMissingCredential,
		auth.ErrMalformedCredential,
		auth.ErrInvalidCredential,
		auth.ErrMissingDescriptor,
		auth.ErrInvalidDescriptor,
		auth.ErrIdentityMismatch,
		auth.ErrVerifierUnavailable,
	} {
		if errors.Is(err, reason) {
			return reason.Error()
		}
	}
	return "unknown"
}
