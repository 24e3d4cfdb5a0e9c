// Package auth resolves the calling actor from bearer tokens.
//
// Token issuance (login) is owned by an external identity collaborator; this
// package only validates tokens it is handed and exposes the claims the rest
// of the platform needs: who is calling and with what role.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
)

// Claims carries the resolved actor identity.
type Claims struct {
	UserID id.UserID
	Role   string
	JTI    string
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService validates (and, for tooling and tests, signs) access tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
}

func NewJWTService(signingKey string, issuer string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// ValidateToken parses and verifies a signed token, returning actor claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	return &Claims{
		UserID: userID,
		Role:   claims.Role,
		JTI:    claims.ID,
	}, nil
}

// SignToken mints a token for the given actor. Used by the seed tool and
// tests; production tokens come from the identity collaborator, which shares
// the signing key.
func (s *JWTService) SignToken(userID id.UserID, role string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}
