package ingest

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/brandbot/internal/model"
)

const sampleText = `Acme fabrica cohetes y yunques para clientes exigentes. Sus productos se envían a todo el desierto.

La garantía cubre defectos de fabricación durante un año. No cubre caídas desde acantilados, explosiones prematuras ni trampas mal armadas!

¿Necesitas soporte? Escribe a soporte@acme.example; respondemos en menos de 24 horas, de lunes a viernes, excepto días festivos.
Línea directa: 555-0100.`

func TestSplitText_RespectsChunkSize(t *testing.T) {
	for _, size := range []int{1, 7, 20, 50, 120, 1000} {
		overlap := size / 4
		s := NewSplitter(size, overlap)
		chunks := s.SplitText(sampleText)
		require.NotEmpty(t, chunks, "size %d", size)
		for _, c := range chunks {
			require.LessOrEqual(t, utf8.RuneCountInString(c), size, "size %d chunk %q", size, c)
			require.Equal(t, strings.TrimSpace(c), c)
			require.NotEmpty(t, c)
		}
	}
}

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.SplitText("  Acme vende cohetes.  ")
	require.Equal(t, []string{"Acme vende cohetes."}, chunks)
}

func TestSplitText_PrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(130, 0)
	chunks := s.SplitText(sampleText)
	require.GreaterOrEqual(t, len(chunks), 3)
	require.True(t, strings.HasPrefix(chunks[0], "Acme fabrica cohetes"))
	require.True(t, strings.HasSuffix(chunks[0], "todo el desierto."))
}

func TestSplitDocuments_RoundTripCoverage(t *testing.T) {
	for _, size := range []int{15, 40, 90} {
		s := NewSplitter(size, size/3)
		parent := model.Document{
			Content:  sampleText,
			Metadata: model.Metadata{Source: "acme.txt", Filename: "acme.txt", DocType: model.DocTypeBrand, Brand: "acme"},
		}
		chunks := s.SplitDocuments([]model.Document{parent})
		runes := []rune(sampleText)
		covered := make([]bool, len(runes))
		for _, c := range chunks {
			require.Equal(t, "acme", c.Metadata.Brand)
			start := c.Metadata.StartIndex
			require.GreaterOrEqual(t, start, 0, "chunk %q", c.Content)
			n := utf8.RuneCountInString(c.Content)
			require.Equal(t, c.Content, string(runes[start:start+n]))
			for i := start; i < start+n; i++ {
				covered[i] = true
			}
		}
		for i, r := range runes {
			if unicode.IsSpace(r) {
				continue
			}
			require.True(t, covered[i], "size %d rune %d (%q) not covered", size, i, r)
		}
	}
}

func TestSplitDocuments_OverlapSharesContext(t *testing.T) {
	text := strings.Repeat("uno dos tres cuatro cinco ", 10)
	s := NewSplitter(30, 10)
	chunks := s.SplitDocuments([]model.Document{{Content: text}})
	require.Greater(t, len(chunks), 2)
	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].Metadata.StartIndex + utf8.RuneCountInString(chunks[i-1].Content)
		require.LessOrEqual(t, chunks[i].Metadata.StartIndex, prevEnd)
	}
}

func TestSplitKeepSeparator(t *testing.T) {
	require.Equal(t, []string{"a. ", "b. ", "c"}, splitKeepSeparator("a. b. c", ". "))
	require.Equal(t, []string{"á", "b"}, splitKeepSeparator("áb", ""))
	require.Equal(t, []string{"x\n\n"}, splitKeepSeparator("x\n\n", "\n\n"))
}
