package models

// MediaType discriminates the concrete subtype of a media item
type MediaType string

const (
	MediaTypeBook           MediaType = "book"
	MediaTypeMovie          MediaType = "movie"
	MediaTypeTVShow         MediaType = "tvshow"
	MediaTypePodcastSeries  MediaType = "podcast_series"
	MediaTypePodcastEpisode MediaType = "podcast_episode"
	MediaTypeVideo          MediaType = "video"
	MediaTypeArticle        MediaType = "article"
	MediaTypeWebsite        MediaType = "website"
	MediaTypeDocument       MediaType = "document"
	MediaTypeChannel        MediaType = "youtube_channel"
	MediaTypePlaylist       MediaType = "youtube_playlist"
)

// Status represents how far along the user is with an item
type Status string

const (
	StatusUncharted         Status = "uncharted"
	StatusActivelyExploring Status = "actively_exploring"
	StatusCompleted         Status = "completed"
	StatusAbandoned         Status = "abandoned"
)

// Rating is the user's ordinal verdict on an item
type Rating string

const (
	RatingSuperLike Rating = "superlike"
	RatingLike      Rating = "like"
	RatingNeutral   Rating = "neutral"
	RatingDislike   Rating = "dislike"
)

// OwnershipStatus records how the user has access to an item
type OwnershipStatus string

const (
	OwnershipOwn       OwnershipStatus = "own"
	OwnershipRented    OwnershipStatus = "rented"
	OwnershipStreaming OwnershipStatus = "streaming"
)

// Vocabulary selects one of the two independent tag namespaces
type Vocabulary string

const (
	VocabularyGenre Vocabulary = "genre"
	VocabularyTopic Vocabulary = "topic"
)

// RelationSource records how a relation between two items was discovered
type RelationSource string

const (
	RelationManual        RelationSource = "manual"
	RelationEmbedding     RelationSource = "embedding_similarity"
	RelationImportLinkage RelationSource = "import_linkage"
)

// VideoKind distinguishes series containers from episodes
type VideoKind string

const (
	VideoKindSeries  VideoKind = "series"
	VideoKindEpisode VideoKind = "episode"
)

// BookFormat is the physical or digital format of a book
type BookFormat string

const (
	BookFormatPhysical  BookFormat = "physical"
	BookFormatEbook     BookFormat = "ebook"
	BookFormatAudiobook BookFormat = "audiobook"
)

// ValidStatus reports whether s is a known status value
func ValidStatus(s Status) bool {
	switch s {
	case StatusUncharted, StatusActivelyExploring, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// ValidRating reports whether r is a known rating value
func ValidRating(r Rating) bool {
	switch r {
	case RatingSuperLike, RatingLike, RatingNeutral, RatingDislike:
		return true
	}
	return false
}

// ValidOwnership reports whether o is a known ownership status
func ValidOwnership(o OwnershipStatus) bool {
	switch o {
	case OwnershipOwn, OwnershipRented, OwnershipStreaming:
		return true
	}
	return false
}

// ValidVocabulary reports whether v is a known vocabulary
func ValidVocabulary(v Vocabulary) bool {
	return v == VocabularyGenre || v == VocabularyTopic
}
