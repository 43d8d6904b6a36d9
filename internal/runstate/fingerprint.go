package runstate

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint hashes a set of keys (audio keys touched, transcript keys
// touched, etc.) into a stable digest so the orchestrator can detect "same
// input set as last successful run" without storing the full key list
// redundantly in the run row.
func Fingerprint(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	h := sha256.New()
	h.Write([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}
