package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSavedFilter = "taskboard/saved-filter/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a stable identity for an ordered list of filter
// triples. Two saved filters with the same triples in the same order share a
// fingerprint regardless of how their values were spelled in the source file
// (e.g. 42 vs 42.0).
func Fingerprint(triples []Triple) (string, error) {
	list := make([]map[string]any, len(triples))
	for i, t := range triples {
		value, err := FromAny(t.Value)
		if err != nil {
			return "", fmt.Errorf("triple[%d] value: %w", i, err)
		}
		list[i] = map[string]any{
			"column_reference": t.Column,
			"operator":         t.Operator,
			"value":            value,
		}
	}

	data, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal triples: %w", err)
	}
	return hashWithDomain(DomainSavedFilter, data), nil
}

// MustFingerprint is Fingerprint for statically known triples. Panics on error.
func MustFingerprint(triples []Triple) string {
	fp, err := Fingerprint(triples)
	if err != nil {
		panic(err)
	}
	return fp
}
