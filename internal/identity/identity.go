// Package identity centralizes contributor-identity conventions: bot
// detection and deterministic pseudo-IDs for contributors that have no
// account on the source platform.
package identity

import (
	"hash/fnv"
	"strings"
)

// Bot accounts carry a "[bot]" login suffix on GitHub.
const botSuffix = "[bot]"

// pseudoIDBase offsets generated IDs into a range no real GitHub user ID
// occupies today.
const (
	pseudoIDBase  int64 = 1_000_000_000
	pseudoIDRange int64 = 1_000_000_000
)

// IsBot reports whether the login belongs to an automated account. Empty
// logins are treated as bots so unidentifiable events never reach the
// metrics.
func IsBot(login string) bool {
	return login == "" || strings.HasSuffix(login, botSuffix)
}

// PseudoID maps a login to a stable numeric ID in the reserved range.
// Distinct logins can collide; the scheme is kept as-is because changing
// the hash would re-assign every previously issued ID.
func PseudoID(login string) int64 {
	h := fnv.New64a()
	h.Write([]byte(login))
	return pseudoIDBase + int64(h.Sum64()%uint64(pseudoIDRange))
}
