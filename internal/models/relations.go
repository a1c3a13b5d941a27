package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Relation is a directed link between two media items, keyed by the ordered
// pair (source, related). Re-discovery refreshes the row in place; a pair is
// never stored twice.
type Relation struct {
	Key                string         `boltholdKey:"Key"`
	SourceMediaItemID  uuid.UUID      `boltholdIndex:"SourceMediaItemID"`
	RelatedMediaItemID uuid.UUID      `boltholdIndex:"RelatedMediaItemID"`
	Source             RelationSource `boltholdIndex:"Source"`
	SimilarityScore    *float64
	Note               string
	CreatedAt          time.Time
}

// RelationKey builds the storage key for an ordered item pair
func RelationKey(source, related uuid.UUID) string {
	return source.String() + "/" + related.String()
}

// GetRelation retrieves the relation for an exact ordered pair
func (db *Database) GetRelation(source, related uuid.UUID) (*Relation, error) {
	var rel Relation
	if err := db.store.Get(RelationKey(source, related), &rel); err != nil {
		return nil, wrapStoreErr("get relation", err)
	}
	return &rel, nil
}

// UpsertRelation creates or replaces the relation row for its ordered pair
func (db *Database) UpsertRelation(rel *Relation) error {
	if rel.SourceMediaItemID == rel.RelatedMediaItemID {
		return NewValidationError("relatedMediaItemId", "an item cannot relate to itself")
	}
	rel.Key = RelationKey(rel.SourceMediaItemID, rel.RelatedMediaItemID)
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now()
	}
	return wrapStoreErr("upsert relation", db.store.Upsert(rel.Key, rel))
}

// DeleteRelation removes the relation for an exact ordered pair
func (db *Database) DeleteRelation(source, related uuid.UUID) error {
	err := db.store.Delete(RelationKey(source, related), &Relation{})
	return wrapStoreErr("delete relation", err)
}

// RelationsFrom retrieves relations where the item is the source
func (db *Database) RelationsFrom(id uuid.UUID) ([]*Relation, error) {
	var rels []*Relation
	err := db.store.Find(&rels, bolthold.Where("SourceMediaItemID").Eq(id).Index("SourceMediaItemID"))
	if err != nil {
		return nil, wrapStoreErr("list relations", err)
	}
	return rels, nil
}

// RelationsTo retrieves relations where the item is the related side
func (db *Database) RelationsTo(id uuid.UUID) ([]*Relation, error) {
	var rels []*Relation
	err := db.store.Find(&rels, bolthold.Where("RelatedMediaItemID").Eq(id).Index("RelatedMediaItemID"))
	if err != nil {
		return nil, wrapStoreErr("list relations", err)
	}
	return rels, nil
}

// ReplaceDiscoveredRelations atomically supersedes the automatic relations of
// one source item. Existing embedding-similarity rows not present in the new
// set are removed; rows whose pair already carries a manual or import-linkage
// relation are left untouched. Runs in a single transaction so a concurrent
// reader never sees a half-replaced set.
func (db *Database) ReplaceDiscoveredRelations(source uuid.UUID, fresh []*Relation) error {
	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		var existing []*Relation
		err := db.store.TxFind(tx, &existing,
			bolthold.Where("SourceMediaItemID").Eq(source).Index("SourceMediaItemID"))
		if err != nil {
			return err
		}

		curated := make(map[string]bool)
		stale := make(map[string]bool)
		for _, rel := range existing {
			if rel.Source == RelationEmbedding {
				stale[rel.Key] = true
			} else {
				curated[rel.Key] = true
			}
		}

		for _, rel := range fresh {
			if rel.SourceMediaItemID == rel.RelatedMediaItemID {
				return NewValidationError("relatedMediaItemId", "an item cannot relate to itself")
			}
			rel.Key = RelationKey(rel.SourceMediaItemID, rel.RelatedMediaItemID)
			if curated[rel.Key] {
				// Manual curation is never overwritten by discovery
				continue
			}
			delete(stale, rel.Key)
			rel.Source = RelationEmbedding
			if rel.CreatedAt.IsZero() {
				rel.CreatedAt = time.Now()
			}
			if err := db.store.TxUpsert(tx, rel.Key, rel); err != nil {
				return err
			}
		}

		for key := range stale {
			if err := db.store.TxDelete(tx, key, &Relation{}); err != nil && !errors.Is(err, bolthold.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	return wrapStoreErr("replace discovered relations", err)
}
