package vocabulary

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/sirupsen/logrus"
)

func testService(t *testing.T) *Service {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(db, time.Minute, logger)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Sci-Fi", "sci-fi"},
		{"  sci-fi  ", "sci-fi"},
		{"HISTORY", "history"},
		{"straße", "strasse"},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Errorf("Normalize(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		if _, err := Normalize(in); !models.IsValidation(err) {
			t.Errorf("Normalize(%q): expected validation error, got %v", in, err)
		}
	}
}

func TestResolveConvergesOnCase(t *testing.T) {
	s := testService(t)

	first, err := s.Resolve(models.VocabularyGenre, "Sci-Fi")
	if err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}
	second, err := s.Resolve(models.VocabularyGenre, "  sci-fi ")
	if err != nil {
		t.Fatalf("Second resolve failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Case variants must resolve to the same tag: %s vs %s", first.ID, second.ID)
	}
	if first.Name != "sci-fi" {
		t.Errorf("Stored name must be normalized, got %q", first.Name)
	}
}

func TestResolveAllDeduplicates(t *testing.T) {
	s := testService(t)

	ids, err := s.ResolveAll(models.VocabularyTopic, []string{"Jazz", "jazz ", "Blues"})
	if err != nil {
		t.Fatalf("ResolveAll failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 distinct tags, got %d", len(ids))
	}

	jazz, err := s.Resolve(models.VocabularyTopic, "jazz")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ids[0] != jazz.ID {
		t.Errorf("Input order must be preserved; expected jazz first")
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	s := testService(t)

	if _, err := s.Resolve(models.VocabularyGenre, "Science Fiction"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	tags, err := s.Search(models.VocabularyGenre, "SCIENCE")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "science fiction" {
		t.Errorf("Expected a case-insensitive match, got %v", tags)
	}
}

func TestSuggestOrdersByEditDistance(t *testing.T) {
	s := testService(t)

	for _, name := range []string{"rock", "jazz", "blues"} {
		if _, err := s.Resolve(models.VocabularyGenre, name); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}

	got, err := s.Suggest(models.VocabularyGenre, "jaz", 2)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 suggestions, got %d", len(got))
	}
	if got[0].Name != "jazz" {
		t.Errorf("Expected jazz as the closest suggestion, got %q", got[0].Name)
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	s := testService(t)

	tag, err := s.Resolve(models.VocabularyGenre, "ambient")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := s.Delete(models.VocabularyGenre, tag.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// A fresh resolve must create a new tag rather than serve the cached one
	recreated, err := s.Resolve(models.VocabularyGenre, "ambient")
	if err != nil {
		t.Fatalf("Re-resolve failed: %v", err)
	}
	if recreated.ID == tag.ID {
		t.Error("Deleted tag must not be served from the cache")
	}
}
