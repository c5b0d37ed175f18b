// Package token implements the signed, time-boxed approval token handed to a
// participant when their personal authorisation of an invoice is required.
// Tokens are bearer credentials scoped to one invoice and one participant;
// only a hash of the issued token is ever persisted.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformed is returned for tokens that cannot be parsed at all
	ErrMalformed = errors.New("approval token is malformed")

	// ErrExpired is returned when the token's expiry has passed
	ErrExpired = errors.New("approval token has expired")

	// ErrInvalidSignature is returned when the signature does not verify
	ErrInvalidSignature = errors.New("approval token signature is invalid")
)

// Claims are the verified contents of an approval token.
type Claims struct {
	jwt.RegisteredClaims
	InvoiceID     int64 `json:"invoice_id"`
	ParticipantID int64 `json:"participant_id"`
}

// Issued is the result of issuing a fresh token.
type Issued struct {
	Token     string
	TokenID   string
	Hash      string
	ExpiresAt time.Time
}

// Codec issues and verifies approval tokens with a server-held secret.
// Verification is pure: it performs no I/O and no database lookups.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a codec signing with the given secret. ttl is the fixed
// validity window from issuance.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock overrides the codec's clock, for tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue creates a signed single-use token for the invoice/participant pair.
func (c *Codec) Issue(invoiceID, participantID int64) (*Issued, error) {
	now := c.now()
	jti := uuid.NewString()
	exp := now.Add(c.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		InvoiceID:     invoiceID,
		ParticipantID: participantID,
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, err
	}

	return &Issued{
		Token:     raw,
		TokenID:   jti,
		Hash:      Hash(raw),
		ExpiresAt: exp,
	}, nil
}

// Verify checks structure, expiry and signature, in that order. Expiry is
// rejected independent of signature validity so an expired-but-tampered token
// still reports ErrExpired.
func (c *Codec) Verify(raw string) (*Claims, error) {
	// Structural parse without signature verification, for the expiry check
	var unverified Claims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(raw, &unverified); err != nil {
		return nil, ErrMalformed
	}
	if unverified.ExpiresAt == nil || !c.now().Before(unverified.ExpiresAt.Time) {
		return nil, ErrExpired
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformed
		}
	}

	if claims.InvoiceID == 0 || claims.ParticipantID == 0 || claims.ID == "" {
		return nil, ErrMalformed
	}

	return &claims, nil
}

// Hash returns the persisted digest of a token. The raw token is never stored.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
