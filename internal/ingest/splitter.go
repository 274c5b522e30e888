package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/brandbot/internal/model"
)

// DefaultSeparators go from coarse to fine: paragraph, line, sentence end,
// clause, word, then single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " ", ""}

// Splitter cuts text into chunks of at most ChunkSize runes. Neighbouring
// chunks share up to Overlap runes of context.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap, separators: DefaultSeparators}
}

func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

// SplitDocuments splits every document and records the rune offset of each
// chunk inside its parent in Metadata.StartIndex (-1 when it cannot be found).
func (s *Splitter) SplitDocuments(docs []model.Document) []model.Document {
	out := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		offsets := newRuneOffsets(doc.Content)
		prevStart, prevLen := -1, 0
		for _, chunk := range s.SplitText(doc.Content) {
			from := 0
			if prevStart >= 0 {
				from = max(0, prevStart+prevLen-s.overlap)
			}
			start := offsets.find(chunk, from)
			if start < 0 && from > 0 {
				start = offsets.find(chunk, 0)
			}
			out = append(out, doc.WithStart(chunk, start))
			if start >= 0 {
				prevStart, prevLen = start, utf8.RuneCountInString(chunk)
			}
		}
	}
	return out
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" {
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var (
		chunks  []string
		pending []string
	)
	for _, piece := range splitKeepSeparator(text, sep) {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending)...)
			pending = nil
		}
		if len(rest) == 0 {
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			continue
		}
		chunks = append(chunks, s.split(piece, rest)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending)...)
	}
	return chunks
}

// merge packs small pieces greedily into chunks, carrying the tail of the
// previous chunk forward as overlap.
func (s *Splitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		lengths []int
		total   int
	)
	flush := func() {
		if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
			chunks = append(chunks, doc)
		}
	}
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > s.chunkSize && len(current) > 0 {
			flush()
			for total > s.overlap || (total+n > s.chunkSize && total > 0) {
				total -= lengths[0]
				current, lengths = current[1:], lengths[1:]
			}
		}
		current = append(current, piece)
		lengths = append(lengths, n)
		total += n
	}
	if len(current) > 0 {
		flush()
	}
	return chunks
}

// splitKeepSeparator splits text on sep and leaves sep attached to the end
// of each piece. An empty sep splits into single runes.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type runeOffsets struct {
	text   string
	byRune []int
}

func newRuneOffsets(text string) *runeOffsets {
	idx := make([]int, 0, len(text)+1)
	for i := range text {
		idx = append(idx, i)
	}
	idx = append(idx, len(text))
	return &runeOffsets{text: text, byRune: idx}
}

// find returns the rune offset of chunk at or after rune offset from.
func (r *runeOffsets) find(chunk string, from int) int {
	if from >= len(r.byRune) {
		return -1
	}
	byteFrom := r.byRune[from]
	pos := strings.Index(r.text[byteFrom:], chunk)
	if pos < 0 {
		return -1
	}
	return from + utf8.RuneCountInString(r.text[byteFrom:byteFrom+pos])
}
