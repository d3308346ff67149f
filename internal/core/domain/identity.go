package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// documentIDLength is the number of hex characters kept from the
// sha256 digest of the logical key.
const documentIDLength = 16

// NewDocumentID derives the stable identifier for a document from its
// logical storage key. The configured storage prefix is stripped first,
// so moving a bucket prefix does not change the identifier while
// renaming the file does. The result is the sha256 digest of the
// cleaned key truncated to 16 hex characters.
//
// The derivation is pure: the same key always yields the same ID,
// across process restarts.
func NewDocumentID(logicalKey, storagePrefix string) string {
	cleaned := logicalKey
	if storagePrefix != "" {
		cleaned = strings.Replace(cleaned, storagePrefix, "", 1)
	}
	sum := sha256.Sum256([]byte(cleaned))
	return hex.EncodeToString(sum[:])[:documentIDLength]
}

// ChunkID derives the deterministic point ID for a chunk from its
// document ID and sequence index, as a UUIDv5 (SHA-1, DNS namespace)
// of "<documentID>_chunk_<index>". Re-ingesting the same document with
// the same chunking parameters reproduces identical chunk IDs, which
// is what makes re-ingestion an idempotent overwrite.
func ChunkID(documentID string, index int) string {
	name := fmt.Sprintf("%s_chunk_%d", documentID, index)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}
