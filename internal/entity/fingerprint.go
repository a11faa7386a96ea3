package entity

import (
	"fmt"

	"github.com/jgivc/encodetracker/internal/common"
)

// SourceFingerprint is the content identity of a source file. Two files with
// the same size and content hash are the same asset, whatever they are named.
type SourceFingerprint struct {
	Filename    string
	SizeBytes   int64
	ContentHash string
}

func NewSourceFingerprint(filename string, sizeBytes int64, contentHash string) (SourceFingerprint, error) {
	if filename == "" {
		return SourceFingerprint{}, fmt.Errorf("%w: filename is empty", common.ErrInvalidFingerprint)
	}

	if sizeBytes < 0 {
		return SourceFingerprint{}, fmt.Errorf("%w: negative size %d", common.ErrInvalidFingerprint, sizeBytes)
	}

	if contentHash == "" {
		return SourceFingerprint{}, fmt.Errorf("%w: content hash is empty", common.ErrInvalidFingerprint)
	}

	return SourceFingerprint{
		Filename:    filename,
		SizeBytes:   sizeBytes,
		ContentHash: contentHash,
	}, nil
}

// Matches reports whether both fingerprints point at the same physical
// content. Filename is display only and does not participate.
func (f SourceFingerprint) Matches(other SourceFingerprint) bool {
	return f.SizeBytes == other.SizeBytes && f.ContentHash == other.ContentHash
}
