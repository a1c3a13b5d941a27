package notes

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/google/uuid"
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
	return NewService(db, logger)
}

func TestCreateNoteValidation(t *testing.T) {
	s := testService(t)

	if _, err := s.Create(NewNote{Title: "  "}); !models.IsValidation(err) {
		t.Errorf("Expected validation error for empty title, got %v", err)
	}

	note, err := s.Create(NewNote{Title: "  Reading list  ", VaultName: " main "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if note.Title != "Reading list" {
		t.Errorf("Title must be trimmed, got %q", note.Title)
	}
	if note.VaultName != "main" {
		t.Errorf("Vault must be trimmed, got %q", note.VaultName)
	}
	if note.DateAdded.IsZero() {
		t.Error("DateAdded must be stamped")
	}
}

func TestListNotesByVault(t *testing.T) {
	s := testService(t)

	if _, err := s.Create(NewNote{Title: "In main", VaultName: "main"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Create(NewNote{Title: "In work", VaultName: "work"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	all, err := s.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 notes, got %d", len(all))
	}

	main, err := s.List("main")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(main) != 1 || main[0].Title != "In main" {
		t.Errorf("Expected only the main vault note, got %d", len(main))
	}
}

func TestUpdateAndDeleteNote(t *testing.T) {
	s := testService(t)

	note, err := s.Create(NewNote{Title: "Draft"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := s.UpdateContent(note.ID, "Final", "done")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Final" || updated.Content != "done" {
		t.Errorf("Update not applied: %+v", updated)
	}

	if err := s.Delete(note.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(note.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Second delete: expected not found, got %v", err)
	}
	if _, err := s.Get(uuid.New()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Missing note: expected not found, got %v", err)
	}
}
