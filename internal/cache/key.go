package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key derives the cache fingerprint for an operation and its
// parameters. Two calls with semantically equal but differently
// ordered parameter representations produce the same key. The
// operation name prefixes the key as a namespace.
func Key(operation string, params map[string]any) string {
	canonical := canonicalize(params)
	sum := sha256.Sum256(append([]byte(operation+":"), canonical...))
	return operation + ":" + hex.EncodeToString(sum[:16])
}

// canonicalize produces a stable serialized form of the parameters:
// sorted keys and normalized number formatting. encoding/json sorts
// map keys on marshal; the round trip collapses equivalent numeric
// representations to one form.
func canonicalize(params map[string]any) []byte {
	if len(params) == 0 {
		return []byte("{}")
	}

	data, err := json.Marshal(params)
	if err != nil {
		// Non-serializable parameters still need a deterministic key.
		return []byte(fmt.Sprintf("%v", params))
	}

	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return data
	}
	renormalized, err := json.Marshal(normalized)
	if err != nil {
		return data
	}
	return renormalized
}
