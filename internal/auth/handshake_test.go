package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/classroom/internal/auth"
	"github.com/dkeye/classroom/internal/auth/mocks"
	"github.com/dkeye/classroom/internal/domain"
)

func TestAuthenticateShape(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mocks.NewMockVerifier(ctrl)

	_, err := auth.Authenticate(context.Background(), v, "  ")
	assert.ErrorIs(t, err, auth.ErrMissingCredential)

	_, err = auth.Authenticate(context.Background(), v, "abc def")
	assert.ErrorIs(t, err, auth.ErrMalformedCredential)

	_, err = auth.Authenticate(context.Background(), v, strings.Repeat("a", auth.MaxCredentialLen+1))
	assert.ErrorIs(t, err, auth.ErrMalformedCredential)
}

func TestAuthenticateVerifierFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mocks.NewMockVerifier(ctrl)

	v.EXPECT().Verify(gomock.Any(), "expired").Return(auth.Identity{}, auth.ErrInvalidCredential)
	_, err := auth.Authenticate(context.Background(), v, "expired")
	assert.ErrorIs(t, err, auth.ErrInvalidCredential)

	v.EXPECT().Verify(gomock.Any(), "boom").Return(auth.Identity{}, errors.New("connection refused"))
	_, err = auth.Authenticate(context.Background(), v, "boom")
	assert.ErrorIs(t, err, auth.ErrVerifierUnavailable)

	v.EXPECT().Verify(gomock.Any(), "anon").Return(auth.Identity{ParticipantID: " "}, nil)
	_, err = auth.Authenticate(context.Background(), v, "anon")
	assert.ErrorIs(t, err, auth.ErrInvalidCredential)
}

func TestAuthenticateHungVerifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mocks.NewMockVerifier(ctrl)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	v.EXPECT().Verify(gomock.Any(), "slow").DoAndReturn(func(context.Context, string) (auth.Identity, error) {
		<-release
		return auth.Identity{ParticipantID: "late"}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := auth.Authenticate(ctx, v, "slow")
	require.ErrorIs(t, err, auth.ErrVerifierUnavailable)
	assert.ErrorIs(t, err, auth.ErrHandshakeRejected)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve(t *testing.T) {
	room := domain.SessionDescriptor{ClassID: "c1", SectionID: "s1"}
	withClaim := func(pid string, role domain.Role) domain.SessionDescriptor {
		d := room
		d.ParticipantID = pid
		d.Role = role
		return d
	}

	tests := []struct {
		name     string
		identity auth.Identity
		claimed  domain.SessionDescriptor
		want     domain.SessionDescriptor
		wantErr  error
	}{
		{
			name:     "verified identity fills the descriptor",
			identity: auth.Identity{ParticipantID: "u-1", Role: domain.RoleInstructor},
			claimed:  room,
			want:     withClaim("u-1", domain.RoleInstructor),
		},
		{
			name:     "matching claims",
			identity: auth.Identity{ParticipantID: "u-1", Role: domain.RoleAssistant},
			claimed:  withClaim("u-1", domain.RoleAssistant),
			want:     withClaim("u-1", domain.RoleAssistant),
		},
		{
			name:     "no role claim acts as student",
			identity: auth.Identity{ParticipantID: "u-2"},
			claimed:  withClaim("u-2", domain.RoleInstructor),
			want:     withClaim("u-2", domain.RoleStudent),
		},
		{
			name:     "participant mismatch",
			identity: auth.Identity{ParticipantID: "u-1"},
			claimed:  withClaim("u-9", ""),
			wantErr:  auth.ErrIdentityMismatch,
		},
		{
			name:     "role escalation",
			identity: auth.Identity{ParticipantID: "u-1", Role: domain.RoleStudent},
			claimed:  withClaim("u-1", domain.RoleAdministrator),
			wantErr:  auth.ErrIdentityMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			v := mocks.NewMockVerifier(ctrl)
			v.EXPECT().Verify(gomock.Any(), "tok").Return(tt.identity, nil)

			got, err := auth.Resolve(context.Background(), v, "tok", tt.claimed)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
