package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/evensia-dev/evensia/internal/common"
)

// stateTTL bounds how long an authorization round trip may take. The consent
// screen plus redirect comfortably fits in ten minutes.
const stateTTL = 10 * time.Minute

type stateClaims struct {
	jwt.RegisteredClaims
	FlowID string `json:"flow_id"`
}

// SignState wraps a flow ID in a signed, expiring state parameter. The
// callback refuses to exchange a code unless the state verifies, which ties
// the redirect back to a flow this server started.
func (s *Service) SignState(flowID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(stateTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		FlowID: flowID,
	})
	return token.SignedString(s.stateKey)
}

// VerifyState validates a state parameter and returns the flow ID it carries.
func (s *Service) VerifyState(raw string) (string, error) {
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.stateKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidState, err)
	}
	if !token.Valid {
		return "", common.ErrInvalidState
	}
	return claims.FlowID, nil
}
