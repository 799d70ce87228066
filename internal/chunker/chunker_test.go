package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(100, 100)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(100, 150)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(-1, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	c, err := New(0, 0)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNew_ExplicitZeroOverlap(t *testing.T) {
	c, err := New(10, 0)
	require.NoError(t, err)

	chunks := c.Split(domain.RawDocument{Source: "flat.txt", Content: "0123456789abcdefghij"})
	require.Len(t, chunks, 2)
	assert.Equal(t, "0123456789", chunks[0].Text)
	assert.Equal(t, "abcdefghij", chunks[1].Text)
}

func TestNew_ZeroSizeSelectsDefaults(t *testing.T) {
	c, err := New(0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)

	c, err = New(0, 50)
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, 50, c.overlap)
}

func TestSplit_EmptyDocument(t *testing.T) {
	c, err := New(10, 2)
	require.NoError(t, err)

	chunks := c.Split(domain.RawDocument{Source: "empty.txt"})
	assert.Empty(t, chunks)
}

func TestSplit_SingleChunk(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	chunks := c.Split(domain.RawDocument{Source: "short.txt", Content: "brief note"})
	require.Len(t, chunks, 1)
	assert.Equal(t, "brief note", chunks[0].Text)
	assert.Equal(t, "short.txt", chunks[0].Source)
	assert.Equal(t, 0, chunks[0].Position)
	assert.NotEmpty(t, chunks[0].ID)
}

func TestSplit_OverlappingChunks(t *testing.T) {
	c, err := New(10, 4)
	require.NoError(t, err)

	content := strings.Repeat("abcdef", 5) // 30 runes
	chunks := c.Split(domain.RawDocument{Source: "doc.txt", Content: content})

	require.NotEmpty(t, chunks)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		// Each chunk starts with the tail of its predecessor.
		assert.Equal(t, string(prev[len(prev)-4:]), string(cur[:4]))
		assert.Equal(t, i, chunks[i].Position)
	}

	// Reassembling without the overlaps reproduces the document.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Text)
	for _, ch := range chunks[1:] {
		r := []rune(ch.Text)
		rebuilt.WriteString(string(r[4:]))
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestSplit_RuneAligned(t *testing.T) {
	c, err := New(4, 1)
	require.NoError(t, err)

	content := "心血管疾病是主要死因"
	chunks := c.Split(domain.RawDocument{Source: "zh.txt", Content: content})

	for _, ch := range chunks {
		assert.True(t, strings.Contains(content, ch.Text), "chunk %q not rune aligned", ch.Text)
	}
}

func TestSplit_CopiesMetadata(t *testing.T) {
	c, err := New(5, 1)
	require.NoError(t, err)

	doc := domain.RawDocument{
		Source:   "meta.txt",
		Content:  "0123456789",
		Metadata: map[string]string{"collection": "cardiology"},
	}
	chunks := c.Split(doc)
	require.GreaterOrEqual(t, len(chunks), 2)

	chunks[0].Metadata["collection"] = "mutated"
	assert.Equal(t, "cardiology", chunks[1].Metadata["collection"])
}

func TestSplit_UniqueIDs(t *testing.T) {
	c, err := New(5, 1)
	require.NoError(t, err)

	chunks := c.Split(domain.RawDocument{Source: "ids.txt", Content: strings.Repeat("x", 50)})
	seen := make(map[string]bool)
	for _, ch := range chunks {
		assert.False(t, seen[ch.ID])
		seen[ch.ID] = true
	}
}

func TestSplit_DeterministicIDs(t *testing.T) {
	c, err := New(5, 1)
	require.NoError(t, err)

	doc := domain.RawDocument{Source: "ids.txt", Content: strings.Repeat("x", 50)}
	first := c.Split(doc)
	second := c.Split(doc)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	assert.Equal(t, "ids.txt#0", first[0].ID)
}
