package markdown

import (
	"fmt"
	"testing"
)

// sectionsWithLevels builds numbered sections following the given level
// pattern repeated until n sections exist.
func sectionsWithLevels(n int, pattern ...int) []Section {
	out := make([]Section, 0, n)
	for i := 0; i < n; i++ {
		lv := pattern[i%len(pattern)]
		out = append(out, Section{
			ID:    fmt.Sprintf("s%d", i),
			Title: fmt.Sprintf("S%d", i),
			Level: lv,
		})
	}
	return out
}

func TestChunkPassthrough(t *testing.T) {
	doc := &Document{Title: "Notes", Sections: sectionsWithLevels(5, 1, 2)}
	chunks := Chunker{MaxSections: 10}.Chunk(doc)

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Title != "Notes" {
		t.Errorf("Title = %q, want unchanged", chunks[0].Title)
	}
	if len(chunks[0].Sections) != 5 {
		t.Errorf("got %d sections", len(chunks[0].Sections))
	}
}

func TestChunkSplitsOnTopSections(t *testing.T) {
	// Nine groups of H1+H2+H2 = 27 sections.
	doc := &Document{Title: "Big", Sections: sectionsWithLevels(27, 1, 2, 2)}
	chunks := Chunker{MaxSections: 10}.Chunk(doc)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	total := 0
	for i, ch := range chunks {
		if len(ch.Sections) != 9 {
			t.Errorf("chunk %d has %d sections, want 9", i, len(ch.Sections))
		}
		if ch.Sections[0].Level != 1 {
			t.Errorf("chunk %d starts at level %d, want 1", i, ch.Sections[0].Level)
		}
		want := fmt.Sprintf("Big (%d/3)", i+1)
		if ch.Title != want {
			t.Errorf("chunk %d Title = %q, want %q", i, ch.Title, want)
		}
		total += len(ch.Sections)
	}
	if total != 27 {
		t.Errorf("chunks cover %d sections, want 27", total)
	}
}

func TestChunkOversizedGroupStaysWhole(t *testing.T) {
	// One H1 followed by 30 H2 children: a single unsplittable group.
	sections := sectionsWithLevels(31, 2)
	sections[0].Level = 1
	doc := &Document{Title: "Deep", Sections: sections}

	chunks := Chunker{MaxSections: 10}.Chunk(doc)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if len(chunks[0].Sections) != 31 {
		t.Errorf("got %d sections, want 31", len(chunks[0].Sections))
	}
	if chunks[0].Title != "Deep" {
		t.Errorf("single chunk Title should be unchanged, got %q", chunks[0].Title)
	}
}

func TestChunkUsesSmallestPresentLevel(t *testing.T) {
	// Document that starts at H2: six groups of H2+H3.
	doc := &Document{Title: "Sub", Sections: sectionsWithLevels(12, 2, 3)}
	chunks := Chunker{MaxSections: 4}.Chunk(doc)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Sections) != 4 {
			t.Errorf("chunk %d has %d sections, want 4", i, len(ch.Sections))
		}
		if ch.Sections[0].Level != 2 {
			t.Errorf("chunk %d starts at level %d, want 2", i, ch.Sections[0].Level)
		}
	}
}

func TestChunkDefaultThreshold(t *testing.T) {
	doc := &Document{Title: "T", Sections: sectionsWithLevels(DefaultMaxSections+1, 1)}
	chunks := Chunker{}.Chunk(doc)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if len(chunks[0].Sections) != DefaultMaxSections || len(chunks[1].Sections) != 1 {
		t.Errorf("chunk sizes = %d, %d", len(chunks[0].Sections), len(chunks[1].Sections))
	}
	if chunks[0].Title != "T (1/2)" {
		t.Errorf("Title = %q", chunks[0].Title)
	}
}
