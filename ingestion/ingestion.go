// Package ingestion accepts raw document text and splits it into
// fixed-width chunks for retrieval.
package ingestion

import (
	"fmt"
	"os"
)

// Split partitions document into consecutive, non-overlapping chunks of
// size runes; the final chunk may be shorter. There is no trimming,
// overlap, or boundary awareness: concatenating the result reproduces
// the document exactly. An empty document yields nil. size must be
// positive; callers enforce that at the configuration boundary.
func Split(document string, size int) []string {
	if document == "" {
		return nil
	}

	runes := []rune(document)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// ReadDocument loads a file's contents as one opaque text payload. No
// format detection or parsing happens here; the upload boundary treats
// everything as plain text.
func ReadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}
