package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set of the signed session cookie.
type Payload struct {
	// StandardClaims carries expiry, issue time and issuer.
	jwt.StandardClaims `json:"standard_claims"`

	// SessionID names the server-side session record. The record, not the
	// token expiry, decides whether the session is still valid.
	SessionID string `json:"sid"`

	// UserID is the account the session was issued for.
	UserID string `json:"uid"`
}
