package embeddings

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store associates at most one current vector per media item or note and
// serves exact nearest-neighbor queries over the stored vectors. It never
// computes embeddings itself; collaborators hand it vectors produced by an
// external model.
type Store struct {
	db     *models.Database
	dims   map[string]int // model identifier -> fixed vector length
	logger *logrus.Logger
}

// NewStore creates a new embedding store. dims maps each known embedding
// model identifier to its fixed dimensionality.
func NewStore(db *models.Database, dims map[string]int, logger *logrus.Logger) *Store {
	return &Store{
		db:     db,
		dims:   dims,
		logger: logger,
	}
}

// Neighbor is one nearest-neighbor result
type Neighbor struct {
	ID    uuid.UUID
	Score float64
}

func (s *Store) checkVector(vector []float32, modelID string) error {
	want, ok := s.dims[modelID]
	if !ok {
		return models.NewValidationError("modelId", "unknown embedding model: "+modelID)
	}
	if len(vector) != want {
		return models.NewValidationError("vector",
			fmt.Sprintf("model %s expects %d dimensions, got %d", modelID, want, len(vector)))
	}
	return nil
}

// SetEmbedding stores the current vector for a media item, replacing any
// prior vector wholesale and stamping the generation time
func (s *Store) SetEmbedding(itemID uuid.UUID, vector []float32, modelID string) error {
	if err := s.checkVector(vector, modelID); err != nil {
		return err
	}
	item, err := s.db.GetItem(itemID)
	if err != nil {
		return err
	}
	now := time.Now()
	item.Embedding = vector
	item.EmbeddingModel = modelID
	item.EmbeddingGeneratedAt = &now
	if err := s.db.UpdateItem(item); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"item_id": itemID,
		"model":   modelID,
		"dims":    len(vector),
	}).Debug("Stored item embedding")
	return nil
}

// SetNoteEmbedding stores the current vector for a note
func (s *Store) SetNoteEmbedding(noteID uuid.UUID, vector []float32, modelID string) error {
	if err := s.checkVector(vector, modelID); err != nil {
		return err
	}
	note, err := s.db.GetNote(noteID)
	if err != nil {
		return err
	}
	now := time.Now()
	note.Embedding = vector
	note.EmbeddingModel = modelID
	note.EmbeddingGeneratedAt = &now
	return s.db.UpdateNote(note)
}

// NearestNeighbors returns up to k other items ranked by descending cosine
// similarity to the queried item's vector, filtered to score >= minSimilarity.
// The queried item itself is never returned. Fails with not-found when the
// item has no stored vector.
func (s *Store) NearestNeighbors(itemID uuid.UUID, k int, minSimilarity float64) ([]Neighbor, error) {
	item, err := s.db.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if !item.HasEmbedding() {
		return nil, models.ErrNotFound
	}
	candidates, err := s.db.GetItemsWithEmbeddings()
	if err != nil {
		return nil, err
	}

	var neighbors []Neighbor
	for _, candidate := range candidates {
		if candidate.ID == itemID {
			continue
		}
		score, ok := cosineSimilarity(item.Embedding, candidate.Embedding)
		if !ok || score < minSimilarity {
			continue
		}
		neighbors = append(neighbors, Neighbor{ID: candidate.ID, Score: score})
	}
	return rank(neighbors, k), nil
}

// SearchByVector returns up to k items ranked by similarity to an external
// query vector. Collaborators use this for text-driven searches: they embed
// the query text themselves and pass the result here.
func (s *Store) SearchByVector(vector []float32, k int, minSimilarity float64) ([]Neighbor, error) {
	if len(vector) == 0 {
		return nil, models.NewValidationError("vector", "query vector cannot be empty")
	}
	candidates, err := s.db.GetItemsWithEmbeddings()
	if err != nil {
		return nil, err
	}
	var neighbors []Neighbor
	for _, candidate := range candidates {
		score, ok := cosineSimilarity(vector, candidate.Embedding)
		if !ok || score < minSimilarity {
			continue
		}
		neighbors = append(neighbors, Neighbor{ID: candidate.ID, Score: score})
	}
	return rank(neighbors, k), nil
}

// SimilarNotes returns up to k other notes ranked by similarity to the
// queried note's vector
func (s *Store) SimilarNotes(noteID uuid.UUID, k int, minSimilarity float64) ([]Neighbor, error) {
	note, err := s.db.GetNote(noteID)
	if err != nil {
		return nil, err
	}
	if !note.HasEmbedding() {
		return nil, models.ErrNotFound
	}
	candidates, err := s.db.GetNotesWithEmbeddings()
	if err != nil {
		return nil, err
	}
	var neighbors []Neighbor
	for _, candidate := range candidates {
		if candidate.ID == noteID {
			continue
		}
		score, ok := cosineSimilarity(note.Embedding, candidate.Embedding)
		if !ok || score < minSimilarity {
			continue
		}
		neighbors = append(neighbors, Neighbor{ID: candidate.ID, Score: score})
	}
	return rank(neighbors, k), nil
}

// MediaForNote returns media items similar to a note's vector
func (s *Store) MediaForNote(noteID uuid.UUID, k int, minSimilarity float64) ([]Neighbor, error) {
	note, err := s.db.GetNote(noteID)
	if err != nil {
		return nil, err
	}
	if !note.HasEmbedding() {
		return nil, models.ErrNotFound
	}
	return s.SearchByVector(note.Embedding, k, minSimilarity)
}

// NotesForMedia returns notes similar to a media item's vector
func (s *Store) NotesForMedia(itemID uuid.UUID, k int, minSimilarity float64) ([]Neighbor, error) {
	item, err := s.db.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if !item.HasEmbedding() {
		return nil, models.ErrNotFound
	}
	candidates, err := s.db.GetNotesWithEmbeddings()
	if err != nil {
		return nil, err
	}
	var neighbors []Neighbor
	for _, candidate := range candidates {
		score, ok := cosineSimilarity(item.Embedding, candidate.Embedding)
		if !ok || score < minSimilarity {
			continue
		}
		neighbors = append(neighbors, Neighbor{ID: candidate.ID, Score: score})
	}
	return rank(neighbors, k), nil
}

// rank orders neighbors by descending score, breaking ties by ascending ID
// for determinism, and caps the result at k
func rank(neighbors []Neighbor, k int) []Neighbor {
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Score != neighbors[j].Score {
			return neighbors[i].Score > neighbors[j].Score
		}
		return bytes.Compare(neighbors[i].ID[:], neighbors[j].ID[:]) < 0
	})
	if k >= 0 && len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}

// cosineSimilarity computes similarity between two vectors. Vectors of
// different lengths (produced by different models) are incomparable and
// report ok=false.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// MeanVector averages a set of equal-length vectors; vectors whose length
// differs from the first are skipped
func MeanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dims := len(vectors[0])
	sums := make([]float64, dims)
	count := 0
	for _, v := range vectors {
		if len(v) != dims {
			continue
		}
		for i := range v {
			sums[i] += float64(v[i])
		}
		count++
	}
	if count == 0 {
		return nil
	}
	mean := make([]float32, dims)
	for i := range sums {
		mean[i] = float32(sums[i] / float64(count))
	}
	return mean
}
