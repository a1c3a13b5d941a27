package notes

import (
	"strings"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service owns the lifecycle of freeform notes
type Service struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewService creates a new notes service
func NewService(db *models.Database, logger *logrus.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// NewNote carries the attributes for note creation
type NewNote struct {
	Title     string
	VaultName string
	SourceURL string
	Content   string
}

// Create inserts a new note
func (s *Service) Create(nn NewNote) (*models.Note, error) {
	title := strings.TrimSpace(nn.Title)
	if title == "" {
		return nil, models.NewValidationError("title", "title is required")
	}
	if len(title) > models.MaxTitleLength {
		return nil, models.NewValidationError("title", "title exceeds maximum length")
	}
	note := &models.Note{
		Title:     title,
		VaultName: strings.TrimSpace(nn.VaultName),
		SourceURL: nn.SourceURL,
		Content:   nn.Content,
	}
	if err := s.db.CreateNote(note); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"note_id": note.ID,
		"vault":   note.VaultName,
	}).Info("Created note")
	return note, nil
}

// Get retrieves a note by ID
func (s *Service) Get(id uuid.UUID) (*models.Note, error) {
	return s.db.GetNote(id)
}

// List retrieves notes, optionally filtered by vault name
func (s *Service) List(vault string) ([]*models.Note, error) {
	return s.db.ListNotes(strings.TrimSpace(vault))
}

// UpdateContent replaces the title and content of an existing note
func (s *Service) UpdateContent(id uuid.UUID, title, content string) (*models.Note, error) {
	note, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, models.NewValidationError("title", "title is required")
	}
	if len(trimmed) > models.MaxTitleLength {
		return nil, models.NewValidationError("title", "title exceeds maximum length")
	}
	note.Title = trimmed
	note.Content = content
	if err := s.db.UpdateNote(note); err != nil {
		return nil, err
	}
	return note, nil
}

// Delete removes a note
func (s *Service) Delete(id uuid.UUID) error {
	if _, err := s.db.GetNote(id); err != nil {
		return err
	}
	return s.db.DeleteNote(id)
}
