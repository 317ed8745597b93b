package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"time"
)

// GeneratePrivateKey returns a fresh 32-character hex key; 128 bits of
// entropy. The plaintext is shown to the user exactly once at signup.
func GeneratePrivateKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashPrivateKey hashes a private key for storage.
func HashPrivateKey(privateKey string) string {
	sum := sha256.Sum256([]byte(privateKey))
	return hex.EncodeToString(sum[:])
}

// VerifyPrivateKey checks a plaintext key against its stored hash.
func VerifyPrivateKey(plainKey, hashedKey string) bool {
	sum := sha256.Sum256([]byte(plainKey))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(hashedKey)) == 1
}

// MagicTokenTTL is how long an emailed login link stays valid.
const MagicTokenTTL = 15 * time.Minute

// GenerateMagicToken returns a URL-safe single-use login token.
func GenerateMagicToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MagicTokenExpiry returns the expiry instant for a token minted now.
func MagicTokenExpiry() time.Time {
	return time.Now().UTC().Add(MagicTokenTTL)
}
