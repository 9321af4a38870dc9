package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleTechnician = "technician"
	RoleAdmin      = "admin"

	// TokenIssuer is stamped on every staff token and required when parsing
	TokenIssuer = "boltnexus"
)

var ErrInvalidStaffToken = errors.New("invalid staff token")

// StaffClaims identify a technician or admin. The staff id travels as the
// subject so a token cannot be confused with a customer identifier.
type StaffClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// StaffID parses the subject back into the technician/admin id
func (c *StaffClaims) StaffID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidStaffToken, c.Subject)
	}
	return uint(id), nil
}

// IssueStaffToken signs an HS256 token for a technician or admin
func IssueStaffToken(secret string, staffID uint, email, role string, expiresAt time.Time) (string, error) {
	if !knownRole(role) {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidStaffToken, role)
	}

	now := time.Now()
	claims := StaffClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   strconv.FormatUint(uint64(staffID), 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseStaffToken validates signature, expiry, issuer, subject and role
func ParseStaffToken(secret, tokenString string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidStaffToken
	}

	if !claims.VerifyIssuer(TokenIssuer, true) {
		return nil, fmt.Errorf("%w: issuer %q", ErrInvalidStaffToken, claims.Issuer)
	}
	if !knownRole(claims.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidStaffToken, claims.Role)
	}
	if _, err := claims.StaffID(); err != nil {
		return nil, err
	}
	return claims, nil
}

func knownRole(role string) bool {
	return role == RoleTechnician || role == RoleAdmin
}
