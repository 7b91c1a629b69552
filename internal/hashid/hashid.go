// Package hashid provides the content hashing and identifier formulas used
// throughout the index: SHA-256 hex digests, POSIX path canonicalization,
// and the ChunkText/RefId/FileId constructions of the data model.
package hashid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/gitai-dev/gitai/internal/model"
)

// SHA256Hex returns the lowercase-hex SHA-256 digest of the UTF-8 bytes of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ToPosix replaces all backslashes with forward slashes. All identifier
// formulas operate on the POSIX form of a repo-relative path; absolute
// paths must never be hashed.
func ToPosix(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// ChunkText builds the canonical text whose hash is a chunk's content_hash.
func ChunkText(posixPath string, k model.Kind, name, signature string) string {
	return fmt.Sprintf("file:%s\nkind:%s\nname:%s\nsignature:%s", posixPath, k, name, signature)
}

// ContentHash is the SHA-256 hex digest of ChunkText(...). It is the sole
// dedup key for chunks.
func ContentHash(posixPath string, k model.Kind, name, signature string) string {
	return SHA256Hex(ChunkText(posixPath, k, name, signature))
}

// RefID uniquely identifies one symbol occurrence.
func RefID(posixPath, name string, k model.Kind, startLine, endLine int, contentHash string) string {
	s := fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		posixPath, name, k, strconv.Itoa(startLine), strconv.Itoa(endLine), contentHash)
	return SHA256Hex(s)
}

// FileID is stable across runs for the same repo-relative path.
func FileID(posixPath string) string {
	return SHA256Hex("file:" + posixPath)
}
