package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Keyer generates deterministic cache keys from a base name and a parameter
// set.
//
// Contract:
// - Determinism: the same parameters must produce the same key regardless of
//   map iteration order.
// - Concurrency: safe for concurrent use.
type Keyer struct {
	// Namespace prefixes every generated key.
	Namespace string
}

// NewKeyer creates a keyer for the given namespace.
func NewKeyer(namespace string) *Keyer {
	return &Keyer{Namespace: namespace}
}

// BuildKey generates a cache key.
// Format: <namespace>_<base> for an empty parameter set, otherwise
// <namespace>_<base>_<hash> where hash is the first 16 hex characters of
// SHA-256(canonical serialization of the sorted parameters).
func (k *Keyer) BuildKey(base string, params map[string]any) string {
	key := k.Namespace + "_" + base
	if len(params) == 0 {
		return key
	}

	hash := sha256.Sum256(canonicalParams(params))
	return key + "_" + hex.EncodeToString(hash[:8])
}

// StripNamespace removes the keyer's namespace prefix from a key, if present.
func (k *Keyer) StripNamespace(key string) string {
	return strings.TrimPrefix(key, k.Namespace+"_")
}

// canonicalParams serializes parameters sorted by key name so insertion order
// never leaks into the digest.
func canonicalParams(params map[string]any) []byte {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buf := []byte("{")
	for i, key := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, _ := json.Marshal(key)
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, canonicalValue(params[key])...)
	}
	return append(buf, '}')
}

func canonicalValue(v any) []byte {
	switch val := v.(type) {
	case map[string]any:
		return canonicalParams(val)
	case []any:
		buf := []byte("[")
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, canonicalValue(item)...)
		}
		return append(buf, ']')
	default:
		b, err := json.Marshal(v)
		if err != nil {
			// Unmarshalable values degrade to their string form; key
			// building never fails.
			return []byte(fmt.Sprintf("%q", fmt.Sprintf("%v", v)))
		}
		return b
	}
}
