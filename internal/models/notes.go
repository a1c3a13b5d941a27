package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
)

// Note is a freeform note. Notes are not media items but participate in
// semantic indexing through the same embedding fields.
type Note struct {
	ID        uuid.UUID `boltholdKey:"ID"`
	Title     string
	VaultName string `boltholdIndex:"VaultName"`
	SourceURL string
	Content   string

	Embedding            []float32
	EmbeddingModel       string
	EmbeddingGeneratedAt *time.Time

	DateAdded time.Time
}

// HasEmbedding reports whether the note carries a current vector
func (n *Note) HasEmbedding() bool {
	return len(n.Embedding) > 0
}

// CreateNote inserts a new note
func (db *Database) CreateNote(note *Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	if note.DateAdded.IsZero() {
		note.DateAdded = time.Now()
	}
	return wrapStoreErr("create note", db.store.Insert(note.ID, note))
}

// GetNote retrieves a note by ID
func (db *Database) GetNote(id uuid.UUID) (*Note, error) {
	var note Note
	if err := db.store.Get(id, &note); err != nil {
		return nil, wrapStoreErr("get note", err)
	}
	return &note, nil
}

// UpdateNote replaces an existing note
func (db *Database) UpdateNote(note *Note) error {
	return wrapStoreErr("update note", db.store.Update(note.ID, note))
}

// DeleteNote removes a note
func (db *Database) DeleteNote(id uuid.UUID) error {
	return wrapStoreErr("delete note", db.store.Delete(id, &Note{}))
}

// ListNotes retrieves every note, optionally filtered by vault
func (db *Database) ListNotes(vault string) ([]*Note, error) {
	var notes []*Note
	var err error
	if vault == "" {
		err = db.store.Find(&notes, nil)
	} else {
		err = db.store.Find(&notes, bolthold.Where("VaultName").Eq(vault).Index("VaultName"))
	}
	if err != nil {
		return nil, wrapStoreErr("list notes", err)
	}
	return notes, nil
}

// GetNotesWithEmbeddings retrieves every note that carries a current vector
func (db *Database) GetNotesWithEmbeddings() ([]*Note, error) {
	notes, err := db.ListNotes("")
	if err != nil {
		return nil, err
	}
	withVectors := notes[:0]
	for _, note := range notes {
		if note.HasEmbedding() {
			withVectors = append(withVectors, note)
		}
	}
	return withVectors, nil
}
