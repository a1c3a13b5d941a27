package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Mixlist is a named, unordered collection of media items
type Mixlist struct {
	ID           uuid.UUID `boltholdKey:"ID"`
	Name         string
	Description  string
	Thumbnail    string
	DateCreated  time.Time
	MediaItemIDs []uuid.UUID
}

// CreateMixlist inserts a new mixlist
func (db *Database) CreateMixlist(ml *Mixlist) error {
	if ml.ID == uuid.Nil {
		ml.ID = uuid.New()
	}
	if ml.DateCreated.IsZero() {
		ml.DateCreated = time.Now()
	}
	return wrapStoreErr("create mixlist", db.store.Insert(ml.ID, ml))
}

// GetMixlist retrieves a mixlist by ID
func (db *Database) GetMixlist(id uuid.UUID) (*Mixlist, error) {
	var ml Mixlist
	if err := db.store.Get(id, &ml); err != nil {
		return nil, wrapStoreErr("get mixlist", err)
	}
	return &ml, nil
}

// ListMixlists retrieves every mixlist, sorted by name
func (db *Database) ListMixlists() ([]*Mixlist, error) {
	var lists []*Mixlist
	if err := db.store.Find(&lists, nil); err != nil {
		return nil, wrapStoreErr("list mixlists", err)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].Name < lists[j].Name })
	return lists, nil
}

// UpdateMixlist replaces an existing mixlist
func (db *Database) UpdateMixlist(ml *Mixlist) error {
	return wrapStoreErr("update mixlist", db.store.Update(ml.ID, ml))
}

// DeleteMixlist removes a mixlist; its items are untouched
func (db *Database) DeleteMixlist(id uuid.UUID) error {
	return wrapStoreErr("delete mixlist", db.store.Delete(id, &Mixlist{}))
}

// AddItemToMixlist links an item into a mixlist. Adding an item that is
// already a member is a no-op, so no duplicate pairs can exist.
func (db *Database) AddItemToMixlist(mixlistID, itemID uuid.UUID) error {
	if _, err := db.GetItem(itemID); err != nil {
		return err
	}
	ml, err := db.GetMixlist(mixlistID)
	if err != nil {
		return err
	}
	for _, existing := range ml.MediaItemIDs {
		if existing == itemID {
			return nil
		}
	}
	ml.MediaItemIDs = append(ml.MediaItemIDs, itemID)
	return db.UpdateMixlist(ml)
}

// RemoveItemFromMixlist unlinks an item from a mixlist
func (db *Database) RemoveItemFromMixlist(mixlistID, itemID uuid.UUID) error {
	ml, err := db.GetMixlist(mixlistID)
	if err != nil {
		return err
	}
	trimmed, changed := removeID(ml.MediaItemIDs, itemID)
	if !changed {
		return ErrNotFound
	}
	ml.MediaItemIDs = trimmed
	return db.UpdateMixlist(ml)
}
