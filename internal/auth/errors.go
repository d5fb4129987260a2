package auth

import "github.com/pkg/errors"

// ErrHandshakeRejected matches every reason a connection attempt can be
// refused. Clients only ever see a generic rejection; the specific reason is
// kept for server-side logging.
var ErrHandshakeRejected = errors.New("handshake rejected")

var (
	ErrMissingCredential   error = &rejection{"credential missing"}
	ErrMalformedCredential error = &rejection{"credential malformed"}
	ErrInvalidCredential   error = &rejection{"credential invalid"}
	ErrMissingDescriptor   error = &rejection{"session descriptor missing"}
	ErrInvalidDescriptor   error = &rejection{"session descriptor invalid"}
	ErrIdentityMismatch    error = &rejection{"identity mismatch"}
	ErrVerifierUnavailable error = &rejection{"verifier unavailable"}
)

type rejection struct{ reason string }

func (r *rejection) Error() string { return r.reason }

func (r *rejection) Is(target error) bool { return target == ErrHandshakeRejected }
