package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the view of a verified token handed to callers. It is
// reconstructed entirely from the token; no store lookup is involved.
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Username       string     `json:"username,omitempty"`
	Name           string     `json:"name,omitempty"`
	Audience       []string   `json:"audience,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetUsername() string {
	return s.Username
}

func (s *SessionObject) GetName() string {
	return s.Name
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiration() *time.Time {
	return s.ExpirationDate
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s username=%s aud=%v iss=%s iat=%s",
		s.UserID,
		s.Username,
		s.Audience,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromAuthClaims creates a SessionObject from verified claims
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	var audience []string
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		audience = append(audience, jwtClaims.RegisteredClaims.Audience...)
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	return &SessionObject{
		UserID:         claims.UserID(),
		Username:       claims.Username(),
		Name:           claims.Name(),
		Audience:       audience,
		Issuer:         getIssuerFromClaims(claims),
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}

// sessionFromClaims creates a SessionObject from raw middleware claims
func sessionFromClaims(claims jwt.Claims) (*SessionObject, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrUnableToDecodeSession
	}

	aud, err := claims.GetAudience()
	if err != nil {
		return nil, ErrUnableToDecodeSession
	}

	iss, err := claims.GetIssuer()
	if err != nil {
		return nil, ErrUnableToDecodeSession
	}

	eat, err := claims.GetExpirationTime()
	if err != nil {
		return nil, ErrUnableToDecodeSession
	}

	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, ErrUnableToDecodeSession
	}

	session := &SessionObject{
		UserID:   sub,
		Audience: aud,
		Issuer:   iss,
	}

	if iat != nil {
		session.IssuedAt = &iat.Time
	}

	if eat != nil {
		session.ExpirationDate = &eat.Time
	}

	if mp, ok := claims.(jwt.MapClaims); ok {
		if username, ok := mp["username"].(string); ok {
			session.Username = username
		}
		if name, ok := mp["name"].(string); ok {
			session.Name = name
		}
		if session.UserID == "" {
			if uid, ok := mp["uid"].(string); ok {
				session.UserID = uid
			}
		}
	}

	return session, nil
}

// getIssuerFromClaims extracts the issuer from AuthClaims
func getIssuerFromClaims(claims AuthClaims) string {
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if jwtClaims.RegisteredClaims.Issuer != "" {
			return jwtClaims.RegisteredClaims.Issuer
		}
	}
	// Fallback to subject if no issuer is available
	return claims.Subject()
}
