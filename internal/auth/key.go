// internal/auth/key.go
package auth

import "golang.org/x/crypto/argon2"

// Argon2id parameters for stretching the admin secret into a signing key. The secret is often a
// human-chosen passphrase, so it is not used as the HMAC key directly.
const (
	keyMemory      = 19 * 1024
	keyIterations  = 2
	keyParallelism = 1
	keyLength      = 32
)

var keySalt = []byte("impostor-admin-token-v1")

func deriveKey(secret string) []byte {
	return argon2.IDKey([]byte(secret), keySalt, keyIterations, keyMemory, keyParallelism, keyLength)
}
