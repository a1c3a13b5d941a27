package models

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Genre is a tag in the genre vocabulary. Name holds the normalized form
// and is unique within the vocabulary; the unique index is the single
// source of truth for uniqueness.
type Genre struct {
	ID        uuid.UUID `boltholdKey:"ID"`
	Name      string    `boltholdUnique:"Name"`
	CreatedAt time.Time
}

// Topic is a tag in the topic vocabulary, independent of genres
type Topic struct {
	ID        uuid.UUID `boltholdKey:"ID"`
	Name      string    `boltholdUnique:"Name"`
	CreatedAt time.Time
}

// Tag is the vocabulary-agnostic view of a genre or topic
type Tag struct {
	ID         uuid.UUID
	Name       string
	Vocabulary Vocabulary
	CreatedAt  time.Time
}

func (g *Genre) tag() *Tag {
	return &Tag{ID: g.ID, Name: g.Name, Vocabulary: VocabularyGenre, CreatedAt: g.CreatedAt}
}

func (t *Topic) tag() *Tag {
	return &Tag{ID: t.ID, Name: t.Name, Vocabulary: VocabularyTopic, CreatedAt: t.CreatedAt}
}

// ResolveTag returns the existing tag with the given normalized name, or
// creates it. The insert-catch-reread pattern makes concurrent resolution of
// the same name converge on a single winning row: a create that loses the
// uniqueness race re-reads the winner instead of failing.
func (db *Database) ResolveTag(vocab Vocabulary, name string) (*Tag, bool, error) {
	if !ValidVocabulary(vocab) {
		return nil, false, NewValidationError("vocabulary", "unknown vocabulary: "+string(vocab))
	}

	tag, err := db.GetTagByName(vocab, name)
	if err == nil {
		return tag, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	id := uuid.New()
	now := time.Now()
	var insertErr error
	switch vocab {
	case VocabularyGenre:
		insertErr = db.store.Insert(id, &Genre{ID: id, Name: name, CreatedAt: now})
	case VocabularyTopic:
		insertErr = db.store.Insert(id, &Topic{ID: id, Name: name, CreatedAt: now})
	}
	if insertErr == nil {
		tag, err := db.GetTag(vocab, id)
		return tag, true, err
	}
	if errors.Is(insertErr, bolthold.ErrUniqueExists) {
		// Lost the race; fetch the winner
		tag, err := db.GetTagByName(vocab, name)
		return tag, false, err
	}
	return nil, false, wrapStoreErr("create tag", insertErr)
}

// GetTag retrieves a tag by ID within a vocabulary
func (db *Database) GetTag(vocab Vocabulary, id uuid.UUID) (*Tag, error) {
	switch vocab {
	case VocabularyGenre:
		var g Genre
		if err := db.store.Get(id, &g); err != nil {
			return nil, wrapStoreErr("get genre", err)
		}
		return g.tag(), nil
	case VocabularyTopic:
		var t Topic
		if err := db.store.Get(id, &t); err != nil {
			return nil, wrapStoreErr("get topic", err)
		}
		return t.tag(), nil
	}
	return nil, NewValidationError("vocabulary", "unknown vocabulary: "+string(vocab))
}

// GetTagByName retrieves a tag by its normalized name
func (db *Database) GetTagByName(vocab Vocabulary, name string) (*Tag, error) {
	switch vocab {
	case VocabularyGenre:
		var g Genre
		if err := db.store.FindOne(&g, bolthold.Where("Name").Eq(name).Index("Name")); err != nil {
			return nil, wrapStoreErr("find genre", err)
		}
		return g.tag(), nil
	case VocabularyTopic:
		var t Topic
		if err := db.store.FindOne(&t, bolthold.Where("Name").Eq(name).Index("Name")); err != nil {
			return nil, wrapStoreErr("find topic", err)
		}
		return t.tag(), nil
	}
	return nil, NewValidationError("vocabulary", "unknown vocabulary: "+string(vocab))
}

// ListTags retrieves every tag in a vocabulary, sorted by name
func (db *Database) ListTags(vocab Vocabulary) ([]*Tag, error) {
	var tags []*Tag
	switch vocab {
	case VocabularyGenre:
		var genres []*Genre
		if err := db.store.Find(&genres, nil); err != nil {
			return nil, wrapStoreErr("list genres", err)
		}
		for _, g := range genres {
			tags = append(tags, g.tag())
		}
	case VocabularyTopic:
		var topics []*Topic
		if err := db.store.Find(&topics, nil); err != nil {
			return nil, wrapStoreErr("list topics", err)
		}
		for _, t := range topics {
			tags = append(tags, t.tag())
		}
	default:
		return nil, NewValidationError("vocabulary", "unknown vocabulary: "+string(vocab))
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// SearchTags retrieves tags whose normalized name contains the substring.
// An empty query returns every tag in the vocabulary.
func (db *Database) SearchTags(vocab Vocabulary, query string) ([]*Tag, error) {
	tags, err := db.ListTags(vocab)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return tags, nil
	}
	matched := tags[:0]
	for _, t := range tags {
		if strings.Contains(t.Name, query) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// DeleteTag removes a tag and unlinks it from every item that references it,
// in one transaction
func (db *Database) DeleteTag(vocab Vocabulary, id uuid.UUID) error {
	if _, err := db.GetTag(vocab, id); err != nil {
		return err
	}
	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		var items []*MediaItem
		if err := db.store.TxFind(tx, &items, nil); err != nil {
			return err
		}
		for _, item := range items {
			var changed bool
			switch vocab {
			case VocabularyGenre:
				item.GenreIDs, changed = removeID(item.GenreIDs, id)
			case VocabularyTopic:
				item.TopicIDs, changed = removeID(item.TopicIDs, id)
			}
			if changed {
				if err := db.store.TxUpdate(tx, item.ID, item); err != nil {
					return err
				}
			}
		}
		switch vocab {
		case VocabularyGenre:
			return db.store.TxDelete(tx, id, &Genre{})
		default:
			return db.store.TxDelete(tx, id, &Topic{})
		}
	})
	return wrapStoreErr("delete tag", err)
}

// ItemsForTag retrieves every item linked to the given tag
func (db *Database) ItemsForTag(vocab Vocabulary, id uuid.UUID) ([]*MediaItem, error) {
	items, err := db.GetAllItems()
	if err != nil {
		return nil, err
	}
	linked := items[:0]
	for _, item := range items {
		ids := item.GenreIDs
		if vocab == VocabularyTopic {
			ids = item.TopicIDs
		}
		for _, tagID := range ids {
			if tagID == id {
				linked = append(linked, item)
				break
			}
		}
	}
	return linked, nil
}
