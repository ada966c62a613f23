package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// LookupKey derives the cache key for a name lookup. Case and surrounding
// whitespace do not change the key.
func LookupKey(first, last string) string {
	payload, _ := json.Marshal(map[string]string{
		"first": strings.ToLower(strings.TrimSpace(first)),
		"last":  strings.ToLower(strings.TrimSpace(last)),
	})
	sum := sha256.Sum256(payload)
	return "lookup:" + hex.EncodeToString(sum[:])
}
