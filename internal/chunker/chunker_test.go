package chunker

import (
	"strings"
	"testing"

	"github.com/calder-labs/mirador/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.windowSize != DefaultWindowSize {
			t.Errorf("expected windowSize %d, got %d", DefaultWindowSize, c.windowSize)
		}
		if c.overlap != 150 {
			t.Errorf("expected default overlap 150, got %d", c.overlap)
		}
	})

	t.Run("custom window size", func(t *testing.T) {
		c := New(WithWindowSize(500), WithOverlapFraction(0.2))
		if c.windowSize != 500 {
			t.Errorf("expected windowSize 500, got %d", c.windowSize)
		}
		if c.overlap != 100 {
			t.Errorf("expected overlap 100, got %d", c.overlap)
		}
	})

	t.Run("invalid fraction ignored", func(t *testing.T) {
		c := New(WithOverlapFraction(1.5))
		if c.overlap != 150 {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestSplit_Empty(t *testing.T) {
	c := New()
	doc := domain.RemoteDocument{ID: "doc-1", Name: "empty.txt"}

	if got := c.Split(doc, ""); len(got) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(got))
	}
	if got := c.Split(doc, "   \n\t  "); len(got) != 0 {
		t.Errorf("expected 0 chunks for whitespace text, got %d", len(got))
	}
}

func TestSplit_SmallText(t *testing.T) {
	c := New(WithWindowSize(100))
	doc := domain.RemoteDocument{ID: "doc-1", Name: "small.txt", MIMEType: "text/plain"}

	chunks := c.Split(doc, "a short document")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	got := chunks[0]
	if got.Text != "a short document" {
		t.Errorf("unexpected chunk text %q", got.Text)
	}
	if got.DocumentID != "doc-1" || got.Position != 0 {
		t.Errorf("unexpected chunk identity: %+v", got)
	}
	if got.ID != domain.ChunkID("doc-1", 0) {
		t.Errorf("chunk id must be deterministic")
	}
	if got.Name != "small.txt" || got.MIMEType != "text/plain" {
		t.Errorf("chunk must carry source metadata: %+v", got)
	}
}

func TestSplit_Overlap(t *testing.T) {
	c := New(WithWindowSize(100), WithOverlapFraction(0.2))
	doc := domain.RemoteDocument{ID: "doc-1"}
	text := strings.Repeat("x", 250)

	chunks := c.Split(doc, text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	// Steps of 80: [0,100) [80,180) [160,250)
	if len(chunks[0].Text) != 100 || len(chunks[1].Text) != 100 || len(chunks[2].Text) != 90 {
		t.Errorf("unexpected chunk lengths: %d %d %d",
			len(chunks[0].Text), len(chunks[1].Text), len(chunks[2].Text))
	}
	for i, ch := range chunks {
		if ch.Position != i {
			t.Errorf("chunk %d has position %d", i, ch.Position)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	c := New(WithWindowSize(50), WithOverlapFraction(0.1))
	doc := domain.RemoteDocument{ID: "doc-9"}
	text := strings.Repeat("mirador keeps a fresh corpus mirror. ", 20)

	first := c.Split(doc, text)
	second := c.Split(doc, text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d ids differ: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestSplit_MultibyteSafe(t *testing.T) {
	c := New(WithWindowSize(10), WithOverlapFraction(0))
	doc := domain.RemoteDocument{ID: "doc-1"}
	text := strings.Repeat("日本語テキスト", 10)

	chunks := c.Split(doc, text)

	var rebuilt strings.Builder
	for _, ch := range chunks {
		if !strings.Contains(text, ch.Text) {
			t.Fatalf("chunk %q split a multi-byte rune", ch.Text)
		}
		rebuilt.WriteString(ch.Text)
	}
	if rebuilt.String() != text {
		t.Error("zero-overlap chunks must reassemble the original text")
	}
}
