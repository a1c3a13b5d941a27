package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// MaxTitleLength bounds the title of every media item
const MaxTitleLength = 500

// MaxRelationNoteLength bounds the free-text note on a relation
const MaxRelationNoteLength = 500

// MediaItem is the shared identity for every cataloged piece of media.
// Exactly one subtype record exists alongside it, keyed by the same ID.
type MediaItem struct {
	ID          uuid.UUID `boltholdKey:"ID"`
	Title       string
	MediaType   MediaType `boltholdIndex:"MediaType"`
	Link        string
	Description string
	Thumbnail   string

	Status    Status `boltholdIndex:"Status"`
	Rating    *Rating
	Ownership *OwnershipStatus

	GenreIDs []uuid.UUID
	TopicIDs []uuid.UUID

	// Current embedding, replaced wholesale whenever regenerated
	Embedding            []float32
	EmbeddingModel       string
	EmbeddingGeneratedAt *time.Time

	DateAdded time.Time
}

// HasEmbedding reports whether the item carries a current vector
func (m *MediaItem) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// CreateItem inserts the base row, its subtype row and tag links in a single
// transaction. Partial creation is never observable: if the subtype insert
// fails the base row is rolled back with it.
func (db *Database) CreateItem(item *MediaItem, subtype any) error {
	handler, ok := subtypeRegistry[item.MediaType]
	if !ok {
		return NewValidationError("mediaType", "unknown media type: "+string(item.MediaType))
	}
	if err := handler.validate(item.ID, subtype); err != nil {
		return err
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.DateAdded.IsZero() {
		item.DateAdded = time.Now()
	}
	if item.Status == "" {
		item.Status = StatusUncharted
	}

	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		if err := db.store.TxInsert(tx, item.ID, item); err != nil {
			return err
		}
		return handler.insert(db.store, tx, item.ID, subtype)
	})
	return wrapStoreErr("create item", err)
}

// GetItem retrieves a media item by ID
func (db *Database) GetItem(id uuid.UUID) (*MediaItem, error) {
	var item MediaItem
	if err := db.store.Get(id, &item); err != nil {
		return nil, wrapStoreErr("get item", err)
	}
	return &item, nil
}

// GetItemWithSubtype retrieves the base row and its subtype row together
func (db *Database) GetItemWithSubtype(id uuid.UUID) (*MediaItem, any, error) {
	item, err := db.GetItem(id)
	if err != nil {
		return nil, nil, err
	}
	handler, ok := subtypeRegistry[item.MediaType]
	if !ok {
		return item, nil, nil
	}
	var subtype any
	err = db.store.Bolt().View(func(tx *bbolt.Tx) error {
		var err error
		subtype, err = handler.get(db.store, tx, id)
		return err
	})
	if err != nil && !errors.Is(err, bolthold.ErrNotFound) {
		return nil, nil, wrapStoreErr("get subtype", err)
	}
	return item, subtype, nil
}

// UpdateItem replaces the mutable fields of an existing item.
// The media type discriminator never changes after creation.
func (db *Database) UpdateItem(item *MediaItem) error {
	existing, err := db.GetItem(item.ID)
	if err != nil {
		return err
	}
	item.MediaType = existing.MediaType
	item.DateAdded = existing.DateAdded
	return wrapStoreErr("update item", db.store.Update(item.ID, item))
}

// UpdateSubtype replaces the subtype row of an existing item
func (db *Database) UpdateSubtype(id uuid.UUID, subtype any) error {
	item, err := db.GetItem(id)
	if err != nil {
		return err
	}
	handler := subtypeRegistry[item.MediaType]
	if err := handler.validate(id, subtype); err != nil {
		return err
	}
	err = db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		return handler.update(db.store, tx, id, subtype)
	})
	return wrapStoreErr("update subtype", err)
}

// GetAllItems retrieves every media item
func (db *Database) GetAllItems() ([]*MediaItem, error) {
	var items []*MediaItem
	if err := db.store.Find(&items, nil); err != nil {
		return nil, wrapStoreErr("list items", err)
	}
	return items, nil
}

// GetItemsByType retrieves all items of one media type
func (db *Database) GetItemsByType(mt MediaType) ([]*MediaItem, error) {
	var items []*MediaItem
	if err := db.store.Find(&items, bolthold.Where("MediaType").Eq(mt).Index("MediaType")); err != nil {
		return nil, wrapStoreErr("list items by type", err)
	}
	return items, nil
}

// GetItemsWithEmbeddings retrieves every item that carries a current vector
func (db *Database) GetItemsWithEmbeddings() ([]*MediaItem, error) {
	items, err := db.GetAllItems()
	if err != nil {
		return nil, err
	}
	withVectors := items[:0]
	for _, item := range items {
		if item.HasEmbedding() {
			withVectors = append(withVectors, item)
		}
	}
	return withVectors, nil
}

// DeleteItem removes the base row and every dependent structure: the subtype
// row, mixlist and playlist memberships, and relations in both directions.
// Deleting a podcast series also deletes its episodes. Everything happens in
// one transaction so no orphan rows are ever observable.
func (db *Database) DeleteItem(id uuid.UUID) error {
	if _, err := db.GetItem(id); err != nil {
		return err
	}
	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		return db.txDeleteItem(tx, id)
	})
	return wrapStoreErr("delete item", err)
}

func (db *Database) txDeleteItem(tx *bbolt.Tx, id uuid.UUID) error {
	var item MediaItem
	if err := db.store.TxGet(tx, id, &item); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil
		}
		return err
	}

	// Subtype row shares the base key
	if handler, ok := subtypeRegistry[item.MediaType]; ok {
		if err := handler.delete(db.store, tx, id); err != nil && !errors.Is(err, bolthold.ErrNotFound) {
			return err
		}
	}

	// Dependent items and dangling parent references
	switch item.MediaType {
	case MediaTypePodcastSeries:
		var episodes []*PodcastEpisode
		if err := db.store.TxFind(tx, &episodes, bolthold.Where("SeriesID").Eq(id).Index("SeriesID")); err != nil {
			return err
		}
		for _, ep := range episodes {
			if err := db.txDeleteItem(tx, ep.ID); err != nil {
				return err
			}
		}
	case MediaTypeVideo:
		if err := db.txUnlinkVideoParent(tx, id); err != nil {
			return err
		}
	case MediaTypeChannel:
		if err := db.txUnlinkChannel(tx, id); err != nil {
			return err
		}
	}

	// Relations in both directions
	var rels []*Relation
	if err := db.store.TxFind(tx, &rels, bolthold.Where("SourceMediaItemID").Eq(id).Index("SourceMediaItemID")); err != nil {
		return err
	}
	var incoming []*Relation
	if err := db.store.TxFind(tx, &incoming, bolthold.Where("RelatedMediaItemID").Eq(id).Index("RelatedMediaItemID")); err != nil {
		return err
	}
	for _, rel := range append(rels, incoming...) {
		if err := db.store.TxDelete(tx, rel.Key, &Relation{}); err != nil && !errors.Is(err, bolthold.ErrNotFound) {
			return err
		}
	}

	// Mixlist memberships
	var mixlists []*Mixlist
	if err := db.store.TxFind(tx, &mixlists, nil); err != nil {
		return err
	}
	for _, ml := range mixlists {
		if trimmed, changed := removeID(ml.MediaItemIDs, id); changed {
			ml.MediaItemIDs = trimmed
			if err := db.store.TxUpdate(tx, ml.ID, ml); err != nil {
				return err
			}
		}
	}

	// Ordered playlist memberships
	var playlists []*YouTubePlaylist
	if err := db.store.TxFind(tx, &playlists, nil); err != nil {
		return err
	}
	for _, pl := range playlists {
		if trimmed, changed := removeID(pl.VideoIDs, id); changed {
			pl.VideoIDs = trimmed
			if err := db.store.TxUpdate(tx, pl.ID, pl); err != nil {
				return err
			}
		}
	}

	return db.store.TxDelete(tx, id, &MediaItem{})
}

// txUnlinkVideoParent clears ParentVideoID on episodes of a deleted series video
func (db *Database) txUnlinkVideoParent(tx *bbolt.Tx, id uuid.UUID) error {
	var videos []*Video
	if err := db.store.TxFind(tx, &videos, nil); err != nil {
		return err
	}
	for _, v := range videos {
		if v.ParentVideoID != nil && *v.ParentVideoID == id {
			v.ParentVideoID = nil
			if err := db.store.TxUpdate(tx, v.ID, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// txUnlinkChannel clears ChannelID on videos and playlists of a deleted channel
func (db *Database) txUnlinkChannel(tx *bbolt.Tx, id uuid.UUID) error {
	var videos []*Video
	if err := db.store.TxFind(tx, &videos, nil); err != nil {
		return err
	}
	for _, v := range videos {
		if v.ChannelID != nil && *v.ChannelID == id {
			v.ChannelID = nil
			if err := db.store.TxUpdate(tx, v.ID, v); err != nil {
				return err
			}
		}
	}
	var playlists []*YouTubePlaylist
	if err := db.store.TxFind(tx, &playlists, nil); err != nil {
		return err
	}
	for _, pl := range playlists {
		if pl.ChannelID != nil && *pl.ChannelID == id {
			pl.ChannelID = nil
			if err := db.store.TxUpdate(tx, pl.ID, pl); err != nil {
				return err
			}
		}
	}
	return nil
}

func removeID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	changed := false
	out := ids[:0]
	for _, existing := range ids {
		if existing == id {
			changed = true
			continue
		}
		out = append(out, existing)
	}
	return out, changed
}
