package record

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainRecord = "unlevel/record/v1"
	DomainLayer  = "unlevel/layer/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes a content digest of one record definition. Two records
// with the same category, key and attributes always produce the same
// digest; EditorIDs are NFC normalized first so visually identical IDs agree.
func Digest(r Record) (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("digest %s %s: %w", r.Category(), r.FormKey(), err)
	}
	data := make([]byte, 0, len(payload)+64)
	data = append(data, r.Category()...)
	data = append(data, 0x00)
	data = append(data, norm.NFC.String(r.EditorID())...)
	data = append(data, 0x00)
	data = append(data, payload...)
	return hashWithDomain(DomainRecord, data), nil
}

// LayerDigest folds the digests of records, in the order given, into one
// digest. Callers pass records in a stable order.
func LayerDigest(records []Record) (string, error) {
	h := sha256.New()
	h.Write([]byte(DomainLayer))
	h.Write([]byte{0x00})
	for _, r := range records {
		d, err := Digest(r)
		if err != nil {
			return "", err
		}
		h.Write([]byte(d))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Equal reports whether two records have identical content.
func Equal(a, b Record) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	da, errA := Digest(a)
	db, errB := Digest(b)
	return errA == nil && errB == nil && da == db
}
