package privacy

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashIdentifier returns the hex SHA-256 digest of "salt:value". The
// same (salt, value) pair always yields the same hash, and the raw
// value cannot be recovered without the server-side salt.
func HashIdentifier(salt, value string) string {
	sum := sha256.Sum256([]byte(salt + ":" + value))
	return hex.EncodeToString(sum[:])
}
