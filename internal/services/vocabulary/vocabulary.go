package vocabulary

import (
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/avollmer/mediarr/internal/models"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

// Service maintains the two controlled tag vocabularies. Every lookup and
// store goes through the normalized form of a name: trimmed and Unicode
// case-folded, so names differing only in case or surrounding whitespace
// resolve to the same tag.
type Service struct {
	db     *models.Database
	cache  *cache.Cache
	logger *logrus.Logger
}

// NewService creates a new vocabulary service. Resolved tags are cached for
// cacheTTL to keep bulk imports from re-reading the same handful of names.
func NewService(db *models.Database, cacheTTL time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		cache:  cache.New(cacheTTL, 2*cacheTTL),
		logger: logger,
	}
}

// Normalize returns the canonical form of a raw tag name: trimmed and
// case-folded. Fails when the trimmed result is empty.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", models.NewValidationError("name", "tag name cannot be empty")
	}
	return cases.Fold().String(trimmed), nil
}

// Resolve returns the tag with the given name, creating it when absent.
// Resolution is idempotent: names differing only in letter case or
// surrounding whitespace yield the same tag.
func (s *Service) Resolve(vocab models.Vocabulary, raw string) (*models.Tag, error) {
	name, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	key := cacheKey(vocab, name)
	if cached, found := s.cache.Get(key); found {
		return cached.(*models.Tag), nil
	}

	tag, created, err := s.db.ResolveTag(vocab, name)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.WithFields(logrus.Fields{
			"vocabulary": vocab,
			"name":       name,
		}).Info("Created tag")
	}
	s.cache.Set(key, tag, cache.DefaultExpiration)
	return tag, nil
}

// ResolveAll resolves a list of raw names and returns the distinct tag IDs
// in input order
func (s *Service) ResolveAll(vocab models.Vocabulary, raws []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, raw := range raws {
		tag, err := s.Resolve(vocab, raw)
		if err != nil {
			return nil, err
		}
		if !seen[tag.ID] {
			seen[tag.ID] = true
			ids = append(ids, tag.ID)
		}
	}
	return ids, nil
}

// Get retrieves a tag by ID
func (s *Service) Get(vocab models.Vocabulary, id uuid.UUID) (*models.Tag, error) {
	return s.db.GetTag(vocab, id)
}

// List returns every tag in a vocabulary sorted by name
func (s *Service) List(vocab models.Vocabulary) ([]*models.Tag, error) {
	return s.db.ListTags(vocab)
}

// Search returns tags whose name contains the query, case-insensitively.
// An empty query lists the whole vocabulary.
func (s *Service) Search(vocab models.Vocabulary, query string) ([]*models.Tag, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return s.db.ListTags(vocab)
	}
	return s.db.SearchTags(vocab, cases.Fold().String(trimmed))
}

// Suggest returns up to max existing tags closest to the raw name by edit
// distance, nearest first. Useful when a search comes back empty.
func (s *Service) Suggest(vocab models.Vocabulary, raw string, max int) ([]*models.Tag, error) {
	name, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	tags, err := s.db.ListTags(vocab)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return levenshtein.ComputeDistance(name, tags[i].Name) <
			levenshtein.ComputeDistance(name, tags[j].Name)
	})
	if max > 0 && len(tags) > max {
		tags = tags[:max]
	}
	return tags, nil
}

// Delete removes a tag and unlinks it from every item referencing it
func (s *Service) Delete(vocab models.Vocabulary, id uuid.UUID) error {
	tag, err := s.db.GetTag(vocab, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteTag(vocab, id); err != nil {
		return err
	}
	s.cache.Delete(cacheKey(vocab, tag.Name))
	s.logger.WithFields(logrus.Fields{
		"vocabulary": vocab,
		"name":       tag.Name,
	}).Info("Deleted tag")
	return nil
}

// ItemsFor returns every media item linked to a tag
func (s *Service) ItemsFor(vocab models.Vocabulary, id uuid.UUID) ([]*models.MediaItem, error) {
	if _, err := s.db.GetTag(vocab, id); err != nil {
		return nil, err
	}
	return s.db.ItemsForTag(vocab, id)
}

func cacheKey(vocab models.Vocabulary, name string) string {
	return string(vocab) + ":" + name
}
