package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	calls   int
	fail    int
	profile Profile
}

func (s *stubValidator) ValidateToken(_ context.Context, _ string) (Profile, error) {
	s.calls++
	if s.calls <= s.fail {
		return Profile{}, errors.New("stub: transient failure")
	}
	return s.profile, nil
}

func TestGatewayRetriesOnceThenSucceeds(t *testing.T) {
	stub := &stubValidator{fail: 1, profile: Profile{UserID: "u1", DisplayName: "Ada"}}
	gw := NewGateway(stub)

	profile, err := gw.Authenticate(context.Background(), "token")

	assert.NoError(t, err)
	assert.Equal(t, "u1", profile.UserID)
	assert.Equal(t, 2, stub.calls)
}

func TestGatewayFailsAfterRetryExhausted(t *testing.T) {
	stub := &stubValidator{fail: 2}
	gw := NewGateway(stub)

	_, err := gw.Authenticate(context.Background(), "token")

	assert.Error(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestStaticValidatorAcceptsBareSubject(t *testing.T) {
	v := StaticValidator{}

	profile, err := v.ValidateToken(context.Background(), "player-123")

	assert.NoError(t, err)
	assert.Equal(t, "player-123", profile.UserID)
}
