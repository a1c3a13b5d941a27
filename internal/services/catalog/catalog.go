package catalog

import (
	"strings"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/avollmer/mediarr/internal/services/vocabulary"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxAncestorDepth bounds the parent walk when rejecting hierarchy cycles
const maxAncestorDepth = 32

// Service owns the media item lifecycle: creation of the base row together
// with its subtype row, updates, and cascading deletion
type Service struct {
	db     *models.Database
	vocab  *vocabulary.Service
	logger *logrus.Logger
}

// NewService creates a new catalog service
func NewService(db *models.Database, vocab *vocabulary.Service, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		vocab:  vocab,
		logger: logger,
	}
}

// NewItem carries the base attributes for item creation. Genres and Topics
// are raw tag names, resolved through the vocabulary on create.
type NewItem struct {
	Title       string
	MediaType   models.MediaType
	Link        string
	Description string
	Thumbnail   string
	Status      models.Status
	Rating      *models.Rating
	Ownership   *models.OwnershipStatus
	Genres      []string
	Topics      []string
}

// CreateItem creates the base row and the subtype row atomically, resolving
// and linking any supplied tag names on the way
func (s *Service) CreateItem(ni NewItem, subtype any) (*models.MediaItem, error) {
	title := strings.TrimSpace(ni.Title)
	if title == "" {
		return nil, models.NewValidationError("title", "title is required")
	}
	if len(title) > models.MaxTitleLength {
		return nil, models.NewValidationError("title", "title exceeds maximum length")
	}
	if !models.KnownMediaType(ni.MediaType) {
		return nil, models.NewValidationError("mediaType", "unknown media type: "+string(ni.MediaType))
	}
	if ni.Status != "" && !models.ValidStatus(ni.Status) {
		return nil, models.NewValidationError("status", "unknown status: "+string(ni.Status))
	}
	if ni.Rating != nil && !models.ValidRating(*ni.Rating) {
		return nil, models.NewValidationError("rating", "unknown rating: "+string(*ni.Rating))
	}
	if ni.Ownership != nil && !models.ValidOwnership(*ni.Ownership) {
		return nil, models.NewValidationError("ownershipStatus", "unknown ownership status: "+string(*ni.Ownership))
	}

	if err := s.checkReferences(ni.MediaType, subtype); err != nil {
		return nil, err
	}

	genreIDs, err := s.vocab.ResolveAll(models.VocabularyGenre, ni.Genres)
	if err != nil {
		return nil, err
	}
	topicIDs, err := s.vocab.ResolveAll(models.VocabularyTopic, ni.Topics)
	if err != nil {
		return nil, err
	}

	item := &models.MediaItem{
		ID:          uuid.New(),
		Title:       title,
		MediaType:   ni.MediaType,
		Link:        ni.Link,
		Description: ni.Description,
		Thumbnail:   ni.Thumbnail,
		Status:      ni.Status,
		Rating:      ni.Rating,
		Ownership:   ni.Ownership,
		GenreIDs:    genreIDs,
		TopicIDs:    topicIDs,
	}

	if err := s.db.CreateItem(item, subtype); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"item_id": item.ID,
		"type":    item.MediaType,
		"title":   item.Title,
	}).Info("Created media item")
	return item, nil
}

// ItemUpdate carries the mutable base fields; nil pointers leave the
// current value untouched. The media type discriminator cannot change.
type ItemUpdate struct {
	Title       *string
	Link        *string
	Description *string
	Thumbnail   *string
	Status      *models.Status
	Rating      *models.Rating
	Ownership   *models.OwnershipStatus
	Genres      []string
	Topics      []string
}

// UpdateItem replaces the mutable fields of an existing item
func (s *Service) UpdateItem(id uuid.UUID, upd ItemUpdate) (*models.MediaItem, error) {
	item, err := s.db.GetItem(id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, models.NewValidationError("title", "title is required")
		}
		if len(title) > models.MaxTitleLength {
			return nil, models.NewValidationError("title", "title exceeds maximum length")
		}
		item.Title = title
	}
	if upd.Link != nil {
		item.Link = *upd.Link
	}
	if upd.Description != nil {
		item.Description = *upd.Description
	}
	if upd.Thumbnail != nil {
		item.Thumbnail = *upd.Thumbnail
	}
	if upd.Status != nil {
		if !models.ValidStatus(*upd.Status) {
			return nil, models.NewValidationError("status", "unknown status: "+string(*upd.Status))
		}
		item.Status = *upd.Status
	}
	if upd.Rating != nil {
		if !models.ValidRating(*upd.Rating) {
			return nil, models.NewValidationError("rating", "unknown rating: "+string(*upd.Rating))
		}
		item.Rating = upd.Rating
	}
	if upd.Ownership != nil {
		if !models.ValidOwnership(*upd.Ownership) {
			return nil, models.NewValidationError("ownershipStatus", "unknown ownership status: "+string(*upd.Ownership))
		}
		item.Ownership = upd.Ownership
	}
	if upd.Genres != nil {
		ids, err := s.vocab.ResolveAll(models.VocabularyGenre, upd.Genres)
		if err != nil {
			return nil, err
		}
		item.GenreIDs = ids
	}
	if upd.Topics != nil {
		ids, err := s.vocab.ResolveAll(models.VocabularyTopic, upd.Topics)
		if err != nil {
			return nil, err
		}
		item.TopicIDs = ids
	}

	if err := s.db.UpdateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateSubtype replaces the subtype row of an existing item
func (s *Service) UpdateSubtype(id uuid.UUID, subtype any) error {
	item, err := s.db.GetItem(id)
	if err != nil {
		return err
	}
	if err := s.checkReferences(item.MediaType, subtype); err != nil {
		return err
	}
	return s.db.UpdateSubtype(id, subtype)
}

// Get retrieves an item together with its subtype row
func (s *Service) Get(id uuid.UUID) (*models.MediaItem, any, error) {
	return s.db.GetItemWithSubtype(id)
}

// List retrieves every item, optionally filtered by media type
func (s *Service) List(mt models.MediaType) ([]*models.MediaItem, error) {
	if mt == "" {
		return s.db.GetAllItems()
	}
	if !models.KnownMediaType(mt) {
		return nil, models.NewValidationError("mediaType", "unknown media type: "+string(mt))
	}
	return s.db.GetItemsByType(mt)
}

// DeleteItem removes an item and every dependent row
func (s *Service) DeleteItem(id uuid.UUID) error {
	if err := s.db.DeleteItem(id); err != nil {
		return err
	}
	s.logger.WithField("item_id", id).Info("Deleted media item")
	return nil
}

// checkReferences verifies that parent and owner references inside a subtype
// record point at existing items of the right type and introduce no cycle
func (s *Service) checkReferences(mt models.MediaType, subtype any) error {
	switch mt {
	case models.MediaTypePodcastEpisode:
		ep, ok := subtype.(*models.PodcastEpisode)
		if !ok {
			return nil
		}
		return s.requireType(ep.SeriesID, models.MediaTypePodcastSeries, "seriesId")
	case models.MediaTypeVideo:
		v, ok := subtype.(*models.Video)
		if !ok {
			return nil
		}
		if v.ParentVideoID != nil {
			if err := s.requireType(*v.ParentVideoID, models.MediaTypeVideo, "parentVideoId"); err != nil {
				return err
			}
			if err := s.checkVideoCycle(v.ID, *v.ParentVideoID); err != nil {
				return err
			}
		}
		if v.ChannelID != nil {
			return s.requireType(*v.ChannelID, models.MediaTypeChannel, "channelId")
		}
	case models.MediaTypePlaylist:
		pl, ok := subtype.(*models.YouTubePlaylist)
		if !ok {
			return nil
		}
		if pl.ChannelID != nil {
			return s.requireType(*pl.ChannelID, models.MediaTypeChannel, "channelId")
		}
	}
	return nil
}

func (s *Service) requireType(id uuid.UUID, mt models.MediaType, field string) error {
	item, err := s.db.GetItem(id)
	if err != nil {
		return err
	}
	if item.MediaType != mt {
		return models.NewValidationError(field, "referenced item is not a "+string(mt))
	}
	return nil
}

// checkVideoCycle rejects a parent assignment that would make a video its
// own ancestor. The walk is depth-bounded so a corrupted chain cannot loop
// forever.
func (s *Service) checkVideoCycle(childID, parentID uuid.UUID) error {
	current := parentID
	for depth := 0; depth < maxAncestorDepth; depth++ {
		if current == childID {
			return models.NewValidationError("parentVideoId", "parent assignment would create a cycle")
		}
		video, err := s.db.GetVideo(current)
		if err != nil || video.ParentVideoID == nil {
			return nil
		}
		current = *video.ParentVideoID
	}
	return models.NewValidationError("parentVideoId", "ancestor chain exceeds maximum depth")
}

// AssignVideoParent re-parents a video episode under a series video
func (s *Service) AssignVideoParent(videoID uuid.UUID, parentID *uuid.UUID) error {
	video, err := s.db.GetVideo(videoID)
	if err != nil {
		return err
	}
	if parentID != nil {
		if *parentID == videoID {
			return models.NewValidationError("parentVideoId", "a video cannot be its own parent")
		}
		if err := s.requireType(*parentID, models.MediaTypeVideo, "parentVideoId"); err != nil {
			return err
		}
		if err := s.checkVideoCycle(videoID, *parentID); err != nil {
			return err
		}
	}
	video.ParentVideoID = parentID
	return s.db.UpdateSubtype(videoID, video)
}

// AddVideoToPlaylist appends a video to a playlist's ordered membership.
// Re-adding a member is a no-op.
func (s *Service) AddVideoToPlaylist(playlistID, videoID uuid.UUID) error {
	if err := s.requireType(videoID, models.MediaTypeVideo, "videoId"); err != nil {
		return err
	}
	pl, err := s.db.GetPlaylist(playlistID)
	if err != nil {
		return err
	}
	for _, existing := range pl.VideoIDs {
		if existing == videoID {
			return nil
		}
	}
	pl.VideoIDs = append(pl.VideoIDs, videoID)
	return s.db.UpdateSubtype(playlistID, pl)
}

// RemoveVideoFromPlaylist drops a video from a playlist's ordered membership
func (s *Service) RemoveVideoFromPlaylist(playlistID, videoID uuid.UUID) error {
	pl, err := s.db.GetPlaylist(playlistID)
	if err != nil {
		return err
	}
	kept := pl.VideoIDs[:0]
	found := false
	for _, existing := range pl.VideoIDs {
		if existing == videoID {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return models.ErrNotFound
	}
	pl.VideoIDs = kept
	return s.db.UpdateSubtype(playlistID, pl)
}

// CreateMixlist creates a named collection of items
func (s *Service) CreateMixlist(name, description string) (*models.Mixlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name", "mixlist name is required")
	}
	ml := &models.Mixlist{Name: name, Description: description}
	if err := s.db.CreateMixlist(ml); err != nil {
		return nil, err
	}
	return ml, nil
}

// AddToMixlist links an item into a mixlist
func (s *Service) AddToMixlist(mixlistID, itemID uuid.UUID) error {
	return s.db.AddItemToMixlist(mixlistID, itemID)
}

// RemoveFromMixlist unlinks an item from a mixlist
func (s *Service) RemoveFromMixlist(mixlistID, itemID uuid.UUID) error {
	return s.db.RemoveItemFromMixlist(mixlistID, itemID)
}

// DeleteMixlist removes a mixlist, leaving its items in place
func (s *Service) DeleteMixlist(id uuid.UUID) error {
	if _, err := s.db.GetMixlist(id); err != nil {
		return err
	}
	return s.db.DeleteMixlist(id)
}
