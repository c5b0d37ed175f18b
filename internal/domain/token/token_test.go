package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndVerify(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)

	issued, err := codec.Issue(42, 7)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.NotEmpty(t, issued.TokenID)
	assert.Equal(t, Hash(issued.Token), issued.Hash)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	claims, err := codec.Verify(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.InvoiceID)
	assert.Equal(t, int64(7), claims.ParticipantID)
	assert.Equal(t, issued.TokenID, claims.ID)
}

func TestVerifyExpired(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)

	issued, err := codec.Issue(1, 1)
	require.NoError(t, err)

	late := NewCodec(testSecret, time.Hour).WithClock(func() time.Time {
		return time.Now().Add(2 * time.Hour)
	})

	_, err = late.Verify(issued.Token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyExpiryCheckedBeforeSignature(t *testing.T) {
	// An expired token signed with the wrong key must still report expiry,
	// so the participant sees a request-a-new-link message rather than a
	// tamper warning.
	other := NewCodec([]byte("another-secret-another-secret-00"), time.Hour)
	issued, err := other.Issue(1, 1)
	require.NoError(t, err)

	late := NewCodec(testSecret, time.Hour).WithClock(func() time.Time {
		return time.Now().Add(2 * time.Hour)
	})

	_, err = late.Verify(issued.Token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyTampered(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)

	issued, err := codec.Issue(42, 7)
	require.NoError(t, err)

	parts := strings.Split(issued.Token, ".")
	require.Len(t, parts, 3)

	// Flip the payload; the signature no longer matches
	payload := []byte(parts[1])
	payload[0] ^= 0x01
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = codec.Verify(tampered)
	if !errors.Is(err, ErrInvalidSignature) && !errors.Is(err, ErrMalformed) {
		t.Fatalf("Verify(tampered) = %v, want signature or malformed error", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)
	issued, err := codec.Issue(42, 7)
	require.NoError(t, err)

	other := NewCodec([]byte("another-secret-another-secret-00"), time.Hour)
	_, err = other.Verify(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyMalformed(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := codec.Verify(raw)
		assert.ErrorIs(t, err, ErrMalformed, "raw=%q", raw)
	}
}

func TestHashIsStable(t *testing.T) {
	if Hash("abc") != Hash("abc") {
		t.Error("hash not deterministic")
	}
	if Hash("abc") == Hash("abd") {
		t.Error("distinct tokens share a hash")
	}
	assert.Len(t, Hash("abc"), 64)
}

func TestTokensAreUnique(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)

	a, err := codec.Issue(1, 1)
	require.NoError(t, err)
	b, err := codec.Issue(1, 1)
	require.NoError(t, err)

	assert.NotEqual(t, a.TokenID, b.TokenID)
	assert.NotEqual(t, a.Hash, b.Hash)
}
