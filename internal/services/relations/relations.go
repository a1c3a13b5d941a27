package relations

import (
	"sort"
	"strings"
	"sync"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/avollmer/mediarr/internal/services/embeddings"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Engine discovers and curates directed relations between media items.
// Automatic discovery is driven by embedding similarity; manual and
// import-time relations live in the same table but are never overwritten
// by a discovery run.
type Engine struct {
	db         *models.Database
	embeddings *embeddings.Store
	logger     *logrus.Logger

	defaultK      int
	minSimilarity float64

	// Serializes concurrent discovery runs per source item
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewEngine creates a new relation discovery engine. defaultK and
// minSimilarity apply when a caller passes zero values to Discover.
func NewEngine(db *models.Database, store *embeddings.Store, defaultK int, minSimilarity float64, logger *logrus.Logger) *Engine {
	if defaultK <= 0 {
		defaultK = 10
	}
	return &Engine{
		db:            db,
		embeddings:    store,
		logger:        logger,
		defaultK:      defaultK,
		minSimilarity: minSimilarity,
		locks:         make(map[uuid.UUID]*sync.Mutex),
	}
}

func (e *Engine) lockFor(id uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	return lock
}

// Discover finds the item's nearest neighbors and persists them as
// embedding-similarity relations in the itemID -> candidate direction only.
// A re-run fully supersedes the item's previous automatic relations:
// surviving pairs get refreshed scores and timestamps, vanished pairs are
// removed, and manually curated pairs are left exactly as they were.
// Concurrent runs for the same item are serialized.
func (e *Engine) Discover(itemID uuid.UUID, k int, minSimilarity float64) ([]*models.Relation, error) {
	if k <= 0 {
		k = e.defaultK
	}
	if minSimilarity <= 0 {
		minSimilarity = e.minSimilarity
	}

	lock := e.lockFor(itemID)
	lock.Lock()
	defer lock.Unlock()

	neighbors, err := e.embeddings.NearestNeighbors(itemID, k, minSimilarity)
	if err != nil {
		return nil, err
	}

	fresh := make([]*models.Relation, 0, len(neighbors))
	for _, n := range neighbors {
		if n.ID == itemID {
			// The store excludes the queried item; reject defensively anyway
			continue
		}
		score := n.Score
		fresh = append(fresh, &models.Relation{
			SourceMediaItemID:  itemID,
			RelatedMediaItemID: n.ID,
			Source:             models.RelationEmbedding,
			SimilarityScore:    &score,
		})
	}

	if err := e.db.ReplaceDiscoveredRelations(itemID, fresh); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"item_id": itemID,
		"count":   len(fresh),
	}).Info("Discovered relations")

	return e.discovered(itemID)
}

func (e *Engine) discovered(itemID uuid.UUID) ([]*models.Relation, error) {
	rels, err := e.db.RelationsFrom(itemID)
	if err != nil {
		return nil, err
	}
	auto := rels[:0]
	for _, rel := range rels {
		if rel.Source == models.RelationEmbedding {
			auto = append(auto, rel)
		}
	}
	sort.Slice(auto, func(i, j int) bool {
		si, sj := 0.0, 0.0
		if auto[i].SimilarityScore != nil {
			si = *auto[i].SimilarityScore
		}
		if auto[j].SimilarityScore != nil {
			sj = *auto[j].SimilarityScore
		}
		return si > sj
	})
	return auto, nil
}

// AddManual records a curated relation between two existing items
func (e *Engine) AddManual(sourceID, relatedID uuid.UUID, note string) (*models.Relation, error) {
	return e.addCurated(sourceID, relatedID, models.RelationManual, note)
}

// AddImportLink records a relation established at import time
func (e *Engine) AddImportLink(sourceID, relatedID uuid.UUID, note string) (*models.Relation, error) {
	return e.addCurated(sourceID, relatedID, models.RelationImportLinkage, note)
}

func (e *Engine) addCurated(sourceID, relatedID uuid.UUID, src models.RelationSource, note string) (*models.Relation, error) {
	if sourceID == relatedID {
		return nil, models.NewValidationError("relatedMediaItemId", "an item cannot relate to itself")
	}
	if len(note) > models.MaxRelationNoteLength {
		return nil, models.NewValidationError("note", "note exceeds maximum length")
	}
	if _, err := e.db.GetItem(sourceID); err != nil {
		return nil, err
	}
	if _, err := e.db.GetItem(relatedID); err != nil {
		return nil, err
	}

	rel := &models.Relation{
		SourceMediaItemID:  sourceID,
		RelatedMediaItemID: relatedID,
		Source:             src,
		Note:               strings.TrimSpace(note),
	}
	if err := e.db.UpsertRelation(rel); err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"source_id":  sourceID,
		"related_id": relatedID,
		"via":        src,
	}).Info("Recorded relation")
	return rel, nil
}

// Remove deletes the relation for an exact ordered pair
func (e *Engine) Remove(sourceID, relatedID uuid.UUID) error {
	if _, err := e.db.GetRelation(sourceID, relatedID); err != nil {
		return err
	}
	return e.db.DeleteRelation(sourceID, relatedID)
}

// RelationsFor returns every relation touching the item, from both sides.
// Storage is asymmetric; querying both columns gives callers symmetric
// visibility.
func (e *Engine) RelationsFor(itemID uuid.UUID) ([]*models.Relation, error) {
	if _, err := e.db.GetItem(itemID); err != nil {
		return nil, err
	}
	outgoing, err := e.db.RelationsFrom(itemID)
	if err != nil {
		return nil, err
	}
	incoming, err := e.db.RelationsTo(itemID)
	if err != nil {
		return nil, err
	}
	return append(outgoing, incoming...), nil
}

// Recommendation pairs an item with its similarity to the caller's taste
// profile
type Recommendation struct {
	Item  *models.MediaItem
	Score float64
}

// Recommend builds a taste profile from the mean vector of liked and
// superliked items and returns the closest other items. With excludeExplored
// set, only items still uncharted are returned.
func (e *Engine) Recommend(count int, excludeExplored bool) ([]Recommendation, error) {
	if count <= 0 {
		count = 20
	}
	items, err := e.db.GetItemsWithEmbeddings()
	if err != nil {
		return nil, err
	}

	liked := make(map[uuid.UUID]bool)
	var vectors [][]float32
	for _, item := range items {
		if item.Rating == nil {
			continue
		}
		if *item.Rating == models.RatingSuperLike || *item.Rating == models.RatingLike {
			liked[item.ID] = true
			vectors = append(vectors, item.Embedding)
		}
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	profile := embeddings.MeanVector(vectors)
	// Overshoot so liked items can be filtered out afterwards
	neighbors, err := e.embeddings.SearchByVector(profile, count+len(liked), e.minSimilarity)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation
	for _, n := range neighbors {
		if liked[n.ID] {
			continue
		}
		item, err := e.db.GetItem(n.ID)
		if err != nil {
			continue
		}
		if excludeExplored && item.Status != models.StatusUncharted {
			continue
		}
		recs = append(recs, Recommendation{Item: item, Score: n.Score})
		if len(recs) == count {
			break
		}
	}
	return recs, nil
}
