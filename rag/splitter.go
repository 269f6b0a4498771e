// Package rag provides chunking, embedding, vector storage, and hybrid
// retrieval for the pipeline's retrieval stage. The backing store is keyed
// by session identifier so concurrent runs never see each other's chunks.
package rag

import "strings"

// Document is one chunk of source text with its provenance.
type Document struct {
	Content    string
	Source     string
	ChunkIndex int
}

// Splitter recursively splits text into overlapping chunks, preferring to
// break at paragraph, line, and sentence boundaries before falling back to
// words and raw characters.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	MinChunkLen  int

	separators []string
}

// NewSplitter creates a splitter. Chunks shorter than minChunkLen after
// trimming are dropped; they carry too little signal to retrieve against.
func NewSplitter(chunkSize, chunkOverlap, minChunkLen int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 400
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 8
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		MinChunkLen:  minChunkLen,
		separators:   []string{"\n\n", "\n", ". ", " ", ""},
	}
}

// Split splits text into chunks of at most ChunkSize characters.
func (s *Splitter) Split(text string) []string {
	return s.splitRecursive(text, s.separators)
}

// SplitDocument splits and labels text, filtering out undersized chunks.
func (s *Splitter) SplitDocument(text, source string) []Document {
	var docs []Document
	for i, chunk := range s.Split(text) {
		chunk = strings.TrimSpace(chunk)
		if len(chunk) < s.MinChunkLen {
			continue
		}
		docs = append(docs, Document{
			Content:    chunk,
			Source:     source,
			ChunkIndex: i,
		})
	}
	return docs
}

func (s *Splitter) splitRecursive(text string, separators []string) []string {
	if len(text) <= s.ChunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}
	if len(separators) == 0 {
		return s.sliceHard(text)
	}

	sep := separators[0]
	rest := separators[1:]
	if sep == "" {
		return s.sliceHard(text)
	}

	parts := strings.Split(text, sep)
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		piece := current.String()
		current.Reset()
		if len(piece) > s.ChunkSize {
			chunks = append(chunks, s.splitRecursive(piece, rest)...)
		} else if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}
	}

	for _, part := range parts {
		candidate := part
		if current.Len() > 0 {
			candidate = current.String() + sep + part
		}
		if len(candidate) > s.ChunkSize {
			flush()
			current.WriteString(part)
			continue
		}
		current.Reset()
		current.WriteString(candidate)
	}
	flush()

	return s.withOverlap(chunks)
}

// sliceHard cuts text at fixed offsets with overlap, the last resort when no
// separator fits.
func (s *Splitter) sliceHard(text string) []string {
	var chunks []string
	step := s.ChunkSize - s.ChunkOverlap
	for i := 0; i < len(text); i += step {
		end := i + s.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[i:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}

// withOverlap prefixes each chunk (after the first) with the tail of its
// predecessor so boundary sentences stay retrievable from both sides.
func (s *Splitter) withOverlap(chunks []string) []string {
	if s.ChunkOverlap <= 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev
		if len(prev) > s.ChunkOverlap {
			tail = prev[len(prev)-s.ChunkOverlap:]
		}
		out[i] = strings.TrimSpace(tail + " " + chunks[i])
	}
	return out
}
