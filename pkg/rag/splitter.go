package rag

import (
	"strings"
	"unicode/utf8"
)

// Splitter cuts text on a separator and merges the pieces back into chunks
// of at most ChunkSize characters, carrying up to ChunkOverlap characters of
// trailing pieces into the next chunk. A single piece longer than ChunkSize
// becomes its own oversized chunk.
type Splitter struct {
	Separator    string
	ChunkSize    int
	ChunkOverlap int
}

func NewSplitter(separator string, chunkSize, chunkOverlap int) Splitter {
	if separator == "" {
		separator = "\n\n"
	}
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return Splitter{Separator: separator, ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

func (s Splitter) Split(text string) []string {
	var pieces []string
	for _, p := range strings.Split(text, s.Separator) {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return s.merge(pieces)
}

func (s Splitter) merge(pieces []string) []string {
	sepLen := utf8.RuneCountInString(s.Separator)
	var (
		chunks  []string
		current []string
		total   int
	)
	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if total+n+joinLen() > s.ChunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, s.Separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for len(current) > 0 && (total > s.ChunkOverlap || total+n+joinLen() > s.ChunkSize) {
				dropped := utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					dropped += sepLen
				}
				total -= dropped
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}
	if chunk := strings.TrimSpace(strings.Join(current, s.Separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
