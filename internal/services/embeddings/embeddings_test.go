package embeddings

import (
	"bytes"
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const testModel = "test-model"

func testStore(t *testing.T) (*Store, *models.Database) {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewStore(db, map[string]int{testModel: 3}, logger), db
}

func addItem(t *testing.T, db *models.Database, title string) *models.MediaItem {
	t.Helper()
	item := &models.MediaItem{Title: title, MediaType: models.MediaTypeBook}
	if err := db.CreateItem(item, &models.Book{}); err != nil {
		t.Fatalf("Failed to create %q: %v", title, err)
	}
	return item
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
		ok   bool
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1, true},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0, true},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1, true},
		{"scaled", []float32{1, 0, 0}, []float32{5, 0, 0}, 1, true},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0, false},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 0, false},
		{"empty", nil, nil, 0, false},
	}
	for _, c := range cases {
		got, ok := cosineSimilarity(c.a, c.b)
		if ok != c.ok {
			t.Errorf("%s: ok = %v, want %v", c.name, ok, c.ok)
			continue
		}
		if ok && math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: score = %f, want %f", c.name, got, c.want)
		}
	}
}

func TestSetEmbeddingValidation(t *testing.T) {
	store, db := testStore(t)
	item := addItem(t, db, "A")

	if err := store.SetEmbedding(item.ID, []float32{1, 0}, testModel); !models.IsValidation(err) {
		t.Errorf("Dimension mismatch: expected validation error, got %v", err)
	}
	if err := store.SetEmbedding(item.ID, []float32{1, 0, 0}, "unknown"); !models.IsValidation(err) {
		t.Errorf("Unknown model: expected validation error, got %v", err)
	}
	if err := store.SetEmbedding(uuid.New(), []float32{1, 0, 0}, testModel); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Missing item: expected not found, got %v", err)
	}
}

func TestSetEmbeddingReplacesWholesale(t *testing.T) {
	store, db := testStore(t)
	item := addItem(t, db, "A")

	if err := store.SetEmbedding(item.ID, []float32{1, 0, 0}, testModel); err != nil {
		t.Fatalf("First set failed: %v", err)
	}
	if err := store.SetEmbedding(item.ID, []float32{0, 1, 0}, testModel); err != nil {
		t.Fatalf("Second set failed: %v", err)
	}

	got, err := db.GetItem(item.ID)
	if err != nil {
		t.Fatalf("Failed to reload item: %v", err)
	}
	if got.Embedding[0] != 0 || got.Embedding[1] != 1 {
		t.Errorf("Expected replaced vector, got %v", got.Embedding)
	}
	if got.EmbeddingGeneratedAt == nil {
		t.Error("Generation timestamp must be stamped")
	}
}

func TestNearestNeighbors(t *testing.T) {
	store, db := testStore(t)

	query := addItem(t, db, "Query")
	near := addItem(t, db, "Close")
	mid := addItem(t, db, "Mid")
	far := addItem(t, db, "Far")
	addItem(t, db, "No Vector")

	mustSet := func(id uuid.UUID, vec []float32) {
		t.Helper()
		if err := store.SetEmbedding(id, vec, testModel); err != nil {
			t.Fatalf("SetEmbedding failed: %v", err)
		}
	}
	mustSet(query.ID, []float32{1, 0, 0})
	mustSet(near.ID, []float32{0.9, 0.1, 0})
	mustSet(mid.ID, []float32{0.7, 0.7, 0})
	mustSet(far.ID, []float32{0, 1, 0})

	neighbors, err := store.NearestNeighbors(query.ID, 10, 0.5)
	if err != nil {
		t.Fatalf("NearestNeighbors failed: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("Expected 2 neighbors above threshold, got %d", len(neighbors))
	}
	if neighbors[0].ID != near.ID || neighbors[1].ID != mid.ID {
		t.Errorf("Expected descending score order close, mid; got %v", neighbors)
	}
	for _, n := range neighbors {
		if n.ID == query.ID {
			t.Error("Query item must never be its own neighbor")
		}
	}

	// k caps the result after ranking
	capped, err := store.NearestNeighbors(query.ID, 1, 0.5)
	if err != nil {
		t.Fatalf("NearestNeighbors failed: %v", err)
	}
	if len(capped) != 1 || capped[0].ID != near.ID {
		t.Errorf("Expected only the closest neighbor, got %v", capped)
	}
}

func TestNearestNeighborsWithoutVector(t *testing.T) {
	store, db := testStore(t)
	item := addItem(t, db, "Bare")

	if _, err := store.NearestNeighbors(item.ID, 10, 0); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected not found for item without vector, got %v", err)
	}
}

func TestNeighborsSkipIncomparableVectors(t *testing.T) {
	store, db := testStore(t)
	store.dims["other-model"] = 2

	query := addItem(t, db, "Query")
	other := addItem(t, db, "Other Model")
	if err := store.SetEmbedding(query.ID, []float32{1, 0, 0}, testModel); err != nil {
		t.Fatalf("SetEmbedding failed: %v", err)
	}
	if err := store.SetEmbedding(other.ID, []float32{1, 0}, "other-model"); err != nil {
		t.Fatalf("SetEmbedding failed: %v", err)
	}

	neighbors, err := store.NearestNeighbors(query.ID, 10, -1)
	if err != nil {
		t.Fatalf("NearestNeighbors failed: %v", err)
	}
	if len(neighbors) != 0 {
		t.Errorf("Vectors from a different model must be skipped, got %v", neighbors)
	}
}

func TestSearchByVector(t *testing.T) {
	store, db := testStore(t)

	a := addItem(t, db, "A")
	if err := store.SetEmbedding(a.ID, []float32{1, 0, 0}, testModel); err != nil {
		t.Fatalf("SetEmbedding failed: %v", err)
	}

	got, err := store.SearchByVector([]float32{1, 0, 0}, 10, 0.5)
	if err != nil {
		t.Fatalf("SearchByVector failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("Expected the matching item, got %v", got)
	}

	if _, err := store.SearchByVector(nil, 10, 0); !models.IsValidation(err) {
		t.Errorf("Empty query vector: expected validation error, got %v", err)
	}
}

func TestRankTieBreaksOnID(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")

	ranked := rank([]Neighbor{
		{ID: high, Score: 0.5},
		{ID: low, Score: 0.5},
	}, 10)
	if bytes.Compare(ranked[0].ID[:], ranked[1].ID[:]) >= 0 {
		t.Errorf("Equal scores must order by ascending ID, got %v", ranked)
	}
}

func TestCrossCorpusQueries(t *testing.T) {
	store, db := testStore(t)

	item := addItem(t, db, "Media")
	if err := store.SetEmbedding(item.ID, []float32{1, 0, 0}, testModel); err != nil {
		t.Fatalf("SetEmbedding failed: %v", err)
	}

	note := &models.Note{Title: "Note"}
	if err := db.CreateNote(note); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if err := store.SetNoteEmbedding(note.ID, []float32{0.9, 0.1, 0}, testModel); err != nil {
		t.Fatalf("SetNoteEmbedding failed: %v", err)
	}

	media, err := store.MediaForNote(note.ID, 10, 0.5)
	if err != nil {
		t.Fatalf("MediaForNote failed: %v", err)
	}
	if len(media) != 1 || media[0].ID != item.ID {
		t.Errorf("Expected the similar media item, got %v", media)
	}

	notes, err := store.NotesForMedia(item.ID, 10, 0.5)
	if err != nil {
		t.Fatalf("NotesForMedia failed: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != note.ID {
		t.Errorf("Expected the similar note, got %v", notes)
	}

	// A note is never its own neighbor
	similar, err := store.SimilarNotes(note.ID, 10, -1)
	if err != nil {
		t.Fatalf("SimilarNotes failed: %v", err)
	}
	if len(similar) != 0 {
		t.Errorf("Expected no other notes, got %v", similar)
	}
}

func TestMeanVector(t *testing.T) {
	mean := MeanVector([][]float32{{1, 0}, {0, 1}})
	if len(mean) != 2 || mean[0] != 0.5 || mean[1] != 0.5 {
		t.Errorf("Expected [0.5 0.5], got %v", mean)
	}

	// Mismatched lengths are skipped, not averaged in
	mean = MeanVector([][]float32{{1, 0}, {1, 1, 1}})
	if len(mean) != 2 || mean[0] != 1 || mean[1] != 0 {
		t.Errorf("Expected mismatched vector to be skipped, got %v", mean)
	}

	if MeanVector(nil) != nil {
		t.Error("Expected nil mean for no vectors")
	}
}
