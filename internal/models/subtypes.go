package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Book holds attributes meaningful only to books
type Book struct {
	ID        uuid.UUID `boltholdKey:"ID"`
	Author    string
	ISBN      string
	ASIN      string
	Format    BookFormat
	PageCount int
	Publisher string
}

// Movie holds attributes meaningful only to movies
type Movie struct {
	ID             uuid.UUID `boltholdKey:"ID"`
	Director       string
	Cast           string
	ReleaseYear    int
	RuntimeMinutes int
	MpaaRating     string
	ImdbID         string
	TmdbID         string
	TmdbRating     float64
	Tagline        string
	OriginalTitle  string
}

// TVShow holds attributes meaningful only to TV shows
type TVShow struct {
	ID           uuid.UUID `boltholdKey:"ID"`
	Creator      string
	FirstAirYear int
	SeasonCount  int
	Network      string
	ImdbID       string
	TmdbID       string
}

// PodcastSeries is a podcast feed that owns episodes
type PodcastSeries struct {
	ID           uuid.UUID `boltholdKey:"ID"`
	Publisher    string
	ExternalID   string
	IsSubscribed bool
	LastSyncDate *time.Time
}

// PodcastEpisode belongs to exactly one podcast series and is
// cascade-deleted with it
type PodcastEpisode struct {
	ID              uuid.UUID `boltholdKey:"ID"`
	SeriesID        uuid.UUID `boltholdIndex:"SeriesID"`
	AudioLink       string
	ReleaseDate     *time.Time
	DurationSeconds int
	ExternalID      string
}

// Video is a standalone video, a series container, or an episode of one.
// Episodes point at their series through ParentVideoID; YouTube videos may
// additionally point at their owning channel.
type Video struct {
	ID            uuid.UUID `boltholdKey:"ID"`
	Kind          VideoKind
	ParentVideoID *uuid.UUID
	ChannelID     *uuid.UUID
	Platform      string
	LengthSeconds int
	ExternalID    string
}

// Article holds attributes meaningful only to articles
type Article struct {
	ID            uuid.UUID `boltholdKey:"ID"`
	Author        string
	Publication   string
	PublishedDate *time.Time
	WordCount     int
}

// Website holds attributes meaningful only to websites
type Website struct {
	ID     uuid.UUID `boltholdKey:"ID"`
	Domain string
}

// Document holds attributes meaningful only to documents
type Document struct {
	ID         uuid.UUID `boltholdKey:"ID"`
	FileType   string
	PageCount  int
	ExternalID string
}

// YouTubeChannel holds attributes meaningful only to channels
type YouTubeChannel struct {
	ID         uuid.UUID `boltholdKey:"ID"`
	ExternalID string
	Handle     string
}

// YouTubePlaylist optionally belongs to a channel and keeps an ordered
// membership of video items; slice order is the playlist position
type YouTubePlaylist struct {
	ID         uuid.UUID `boltholdKey:"ID"`
	ChannelID  *uuid.UUID
	ExternalID string
	VideoIDs   []uuid.UUID
}

// subtypeHandler binds one media type to its validation and persistence
// routines. The registry keeps subtype dispatch a closed, explicit set:
// adding a media type means adding exactly one entry here.
type subtypeHandler struct {
	validate func(id uuid.UUID, rec any) error
	insert   func(s *bolthold.Store, tx *bbolt.Tx, id uuid.UUID, rec any) error
	update   func(s *bolthold.Store, tx *bbolt.Tx, id uuid.UUID, rec any) error
	get      func(s *bolthold.Store, tx *bbolt.Tx, id uuid.UUID) (any, error)
	delete   func(s *bolthold.Store, tx *bbolt.Tx, id uuid.UUID) error
}

func newSubtypeHandler[T any](setID func(*T, uuid.UUID), check func(*T) error) subtypeHandler {
	coerce := func(rec any) (*T, error) {
		r, ok := rec.(*T)
		if !ok || r == nil {
			return nil, NewValidationError("subtype", fmt.Sprintf("expected %T, got %T", (*T)(nil), rec))
		}
		return r, nil
	}
	return subtypeHandler{
		validate: func(id uuid.UUID, rec any) error {
			r, err := coerce(rec)
			if err != nil {
				return err
			}
			if check != nil {
				return check(r)
			}
			return nil
		},
		insert: func(s *bolthold.Store, tx *bbolt.Tx, id uuid.UUID, rec any) error {
			r, err := coerce(rec)
			if err != nil {
				return err
			}
			setID(r, id)
			return s.TxInsert(tx, id, r)
		},
		update: func(s *bolthold.Store, tx *bbolt.Tx, id uuid.UUID, rec any) error {
			r, err := coerce(rec)
			if err != nil {
				return err
			}
			setID(r, id)
			return s.TxUpsert(tx, id, r)
		},
		get: func(s *bolthold.Store, tx *bbolt.Tx, id uuid.UUID) (any, error) {
			r := new(T)
			if err := s.TxGet(tx, id, r); err != nil {
				return nil, err
			}
			return r, nil
		},
		delete: func(s *bolthold.Store, tx *bbolt.Tx, id uuid.UUID) error {
			return s.TxDelete(tx, id, new(T))
		},
	}
}

var subtypeRegistry = map[MediaType]subtypeHandler{
	MediaTypeBook: newSubtypeHandler(
		func(r *Book, id uuid.UUID) { r.ID = id }, nil),
	MediaTypeMovie: newSubtypeHandler(
		func(r *Movie, id uuid.UUID) { r.ID = id }, nil),
	MediaTypeTVShow: newSubtypeHandler(
		func(r *TVShow, id uuid.UUID) { r.ID = id }, nil),
	MediaTypePodcastSeries: newSubtypeHandler(
		func(r *PodcastSeries, id uuid.UUID) { r.ID = id }, nil),
	MediaTypePodcastEpisode: newSubtypeHandler(
		func(r *PodcastEpisode, id uuid.UUID) { r.ID = id },
		func(r *PodcastEpisode) error {
			if r.SeriesID == uuid.Nil {
				return NewValidationError("seriesId", "podcast episode requires an owning series")
			}
			return nil
		}),
	MediaTypeVideo: newSubtypeHandler(
		func(r *Video, id uuid.UUID) { r.ID = id },
		func(r *Video) error {
			if r.Kind != VideoKindSeries && r.Kind != VideoKindEpisode && r.Kind != "" {
				return NewValidationError("kind", "unknown video kind: "+string(r.Kind))
			}
			return nil
		}),
	MediaTypeArticle: newSubtypeHandler(
		func(r *Article, id uuid.UUID) { r.ID = id }, nil),
	MediaTypeWebsite: newSubtypeHandler(
		func(r *Website, id uuid.UUID) { r.ID = id }, nil),
	MediaTypeDocument: newSubtypeHandler(
		func(r *Document, id uuid.UUID) { r.ID = id }, nil),
	MediaTypeChannel: newSubtypeHandler(
		func(r *YouTubeChannel, id uuid.UUID) { r.ID = id }, nil),
	MediaTypePlaylist: newSubtypeHandler(
		func(r *YouTubePlaylist, id uuid.UUID) { r.ID = id }, nil),
}

// KnownMediaType reports whether mt has a registered subtype handler
func KnownMediaType(mt MediaType) bool {
	_, ok := subtypeRegistry[mt]
	return ok
}

// GetEpisodes retrieves the episode subtype rows owned by a podcast series
func (db *Database) GetEpisodes(seriesID uuid.UUID) ([]*PodcastEpisode, error) {
	var episodes []*PodcastEpisode
	err := db.store.Find(&episodes, bolthold.Where("SeriesID").Eq(seriesID).Index("SeriesID"))
	if err != nil {
		return nil, wrapStoreErr("list episodes", err)
	}
	return episodes, nil
}

// GetVideo retrieves the video subtype row for an item
func (db *Database) GetVideo(id uuid.UUID) (*Video, error) {
	var v Video
	if err := db.store.Get(id, &v); err != nil {
		return nil, wrapStoreErr("get video", err)
	}
	return &v, nil
}

// GetPlaylist retrieves the playlist subtype row for an item
func (db *Database) GetPlaylist(id uuid.UUID) (*YouTubePlaylist, error) {
	var pl YouTubePlaylist
	if err := db.store.Get(id, &pl); err != nil {
		return nil, wrapStoreErr("get playlist", err)
	}
	return &pl, nil
}
