// Package auth guards the companion server with pre-shared access keys.
// Only SHA-256 hashes of the keys are configured; the plaintext is shown
// once when the key is generated.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const keyPrefix = "tripboard_"

// AccessKey holds the hashed key and a short prefix for identification.
type AccessKey struct {
	Hash   string
	Prefix string // first 14 characters of the plaintext key
}

// GenerateAccessKey creates a new key: "tripboard_" followed by 32 URL-safe
// random characters. It returns the AccessKey and the plaintext.
func GenerateAccessKey() (AccessKey, string, error) {
	b := make([]byte, 24) // 24 bytes -> 32 base64url chars
	if _, err := rand.Read(b); err != nil {
		return AccessKey{}, "", fmt.Errorf("generating random bytes: %w", err)
	}
	plaintext := keyPrefix + base64.RawURLEncoding.EncodeToString(b)
	return AccessKey{Hash: HashKey(plaintext), Prefix: plaintext[:14]}, plaintext, nil
}

// HashKey returns the hex-encoded SHA-256 hash of the given plaintext key.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

// Keys is the set of accepted key hashes.
type Keys struct {
	hashes [][]byte
}

// NewKeys accepts hex SHA-256 hashes. Blank entries are skipped; a
// malformed one is an error.
func NewKeys(hashes []string) (*Keys, error) {
	k := &Keys{}
	for _, h := range hashes {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		raw, err := hex.DecodeString(h)
		if err != nil || len(raw) != sha256.Size {
			return nil, fmt.Errorf("access key hash %.8s... is not a hex sha256 digest", h)
		}
		k.hashes = append(k.hashes, []byte(h))
	}
	return k, nil
}

// Empty reports whether no key is configured.
func (k *Keys) Empty() bool {
	return k == nil || len(k.hashes) == 0
}

// Valid reports whether plaintext hashes to one of the accepted keys.
func (k *Keys) Valid(plaintext string) bool {
	if k.Empty() || plaintext == "" {
		return false
	}
	got := []byte(HashKey(plaintext))
	ok := 0
	for _, h := range k.hashes {
		ok |= subtle.ConstantTimeCompare(got, h)
	}
	return ok == 1
}

// Middleware rejects requests without a valid "Authorization: Bearer"
// access key. With no keys configured every request passes.
func Middleware(keys *Keys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if keys.Empty() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing or malformed authorization header")
				return
			}
			if !keys.Valid(token) {
				writeUnauthorized(w, "invalid access key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="tripboard"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorBody{Code: "unauthorized", Message: message},
	})
}
