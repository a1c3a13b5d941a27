package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/avollmer/mediarr/internal/services/catalog"
	"github.com/avollmer/mediarr/internal/services/notes"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newSubtype builds an empty subtype record for a media type, filled from
// the add command's flags where they apply
func newSubtype(mt models.MediaType, f *addFlags) (any, error) {
	switch mt {
	case models.MediaTypeBook:
		return &models.Book{Author: f.author, ISBN: f.isbn, Format: models.BookFormat(f.format)}, nil
	case models.MediaTypeMovie:
		return &models.Movie{Director: f.director, ReleaseYear: f.year}, nil
	case models.MediaTypeTVShow:
		return &models.TVShow{Creator: f.director, FirstAirYear: f.year}, nil
	case models.MediaTypePodcastSeries:
		return &models.PodcastSeries{Publisher: f.publisher}, nil
	case models.MediaTypePodcastEpisode:
		seriesID, err := parseIDFlag(f.series, "series")
		if err != nil {
			return nil, err
		}
		return &models.PodcastEpisode{SeriesID: seriesID}, nil
	case models.MediaTypeVideo:
		video := &models.Video{Platform: f.platform}
		if f.parent != "" {
			parentID, err := parseIDFlag(f.parent, "parent")
			if err != nil {
				return nil, err
			}
			video.ParentVideoID = &parentID
			video.Kind = models.VideoKindEpisode
		}
		return video, nil
	case models.MediaTypeArticle:
		return &models.Article{Author: f.author, Publication: f.publisher}, nil
	case models.MediaTypeWebsite:
		return &models.Website{Domain: f.domain}, nil
	case models.MediaTypeDocument:
		return &models.Document{FileType: f.format}, nil
	case models.MediaTypeChannel:
		return &models.YouTubeChannel{Handle: f.handle}, nil
	case models.MediaTypePlaylist:
		return &models.YouTubePlaylist{}, nil
	}
	return nil, fmt.Errorf("unknown media type %q", mt)
}

type addFlags struct {
	mediaType string
	link      string
	desc      string
	genres    []string
	topics    []string
	author    string
	director  string
	year      int
	publisher string
	platform  string
	series    string
	parent    string
	domain    string
	handle    string
	isbn      string
	format    string
}

func addCmd() *cobra.Command {
	f := &addFlags{}

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a media item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			mt := models.MediaType(f.mediaType)
			subtype, err := newSubtype(mt, f)
			if err != nil {
				return err
			}

			item, err := a.catalog.CreateItem(catalog.NewItem{
				Title:       args[0],
				MediaType:   mt,
				Link:        f.link,
				Description: f.desc,
				Genres:      f.genres,
				Topics:      f.topics,
			}, subtype)
			if err != nil {
				return err
			}

			fmt.Printf("Added %s %s (%s)\n", item.MediaType, item.Title, item.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.mediaType, "type", "t", "book", "media type")
	cmd.Flags().StringVar(&f.link, "link", "", "canonical link")
	cmd.Flags().StringVar(&f.desc, "desc", "", "description")
	cmd.Flags().StringArrayVarP(&f.genres, "genre", "g", nil, "genre tag (repeatable)")
	cmd.Flags().StringArrayVar(&f.topics, "topic", nil, "topic tag (repeatable)")
	cmd.Flags().StringVar(&f.author, "author", "", "author (books, articles)")
	cmd.Flags().StringVar(&f.director, "director", "", "director or creator")
	cmd.Flags().IntVar(&f.year, "year", 0, "release or first-air year")
	cmd.Flags().StringVar(&f.publisher, "publisher", "", "publisher or publication")
	cmd.Flags().StringVar(&f.platform, "platform", "", "video platform")
	cmd.Flags().StringVar(&f.series, "series", "", "owning podcast series id")
	cmd.Flags().StringVar(&f.parent, "parent", "", "parent video id")
	cmd.Flags().StringVar(&f.domain, "domain", "", "website domain")
	cmd.Flags().StringVar(&f.handle, "handle", "", "channel handle")
	cmd.Flags().StringVar(&f.isbn, "isbn", "", "book ISBN")
	cmd.Flags().StringVar(&f.format, "format", "", "book format or document file type")
	return cmd
}

func listCmd() *cobra.Command {
	var mediaType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List media items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.catalog.List(models.MediaType(mediaType))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tTITLE")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.ID, item.MediaType, item.Status, item.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&mediaType, "type", "t", "", "filter by media type")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one item with its subtype attributes and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id: %w", err)
			}

			item, subtype, err := a.catalog.Get(id)
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s)\n", item.Title, item.MediaType)
			fmt.Printf("  ID:      %s\n", item.ID)
			fmt.Printf("  Status:  %s\n", item.Status)
			if item.Link != "" {
				fmt.Printf("  Link:    %s\n", item.Link)
			}
			if item.Rating != nil {
				fmt.Printf("  Rating:  %s\n", *item.Rating)
			}
			printTags(a, "Genres", models.VocabularyGenre, item.GenreIDs)
			printTags(a, "Topics", models.VocabularyTopic, item.TopicIDs)
			if item.HasEmbedding() {
				fmt.Printf("  Embedding: %d dims via %s\n", len(item.Embedding), item.EmbeddingModel)
			}
			if subtype != nil {
				fmt.Printf("  Details: %+v\n", subtype)
			}
			return nil
		},
	}
}

func printTags(a *app, label string, vocab models.Vocabulary, ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if tag, err := a.vocab.Get(vocab, id); err == nil {
			names = append(names, tag.Name)
		}
	}
	fmt.Printf("  %s: %v\n", label, names)
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete an item and everything that depends on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id: %w", err)
			}
			if err := a.catalog.DeleteItem(id); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", id)
			return nil
		},
	}
}

// embedCmd stores an externally computed vector for an item or note. The
// vector is read as a JSON array from a file or stdin.
func embedCmd() *cobra.Command {
	var modelID, file string
	var isNote bool

	cmd := &cobra.Command{
		Use:   "embed [id]",
		Short: "Store an externally computed embedding vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id: %w", err)
			}

			vector, err := readVector(file)
			if err != nil {
				return err
			}

			if isNote {
				err = a.embeddings.SetNoteEmbedding(id, vector, modelID)
			} else {
				err = a.embeddings.SetEmbedding(id, vector, modelID)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Stored %d-dim vector for %s\n", len(vector), id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "gte-large-v1.5", "embedding model identifier")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON vector file, - for stdin")
	cmd.Flags().BoolVar(&isNote, "note", false, "target is a note, not a media item")
	return cmd
}

func readVector(file string) ([]float32, error) {
	var r io.Reader = os.Stdin
	if file != "-" {
		fh, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		r = fh
	}
	var vector []float32
	if err := json.NewDecoder(r).Decode(&vector); err != nil {
		return nil, fmt.Errorf("failed to decode vector: %w", err)
	}
	return vector, nil
}

func mixlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mixlist",
		Short: "Manage mixlists",
	}

	var desc string
	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a mixlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			ml, err := a.catalog.CreateMixlist(args[0], desc)
			if err != nil {
				return err
			}
			fmt.Printf("Created mixlist %s (%s)\n", ml.Name, ml.ID)
			return nil
		},
	}
	create.Flags().StringVar(&desc, "desc", "", "description")

	add := &cobra.Command{
		Use:   "add [mixlist-id] [item-id]",
		Short: "Add an item to a mixlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			mixlistID, err := parseIDFlag(args[0], "mixlist")
			if err != nil {
				return err
			}
			itemID, err := parseIDFlag(args[1], "item")
			if err != nil {
				return err
			}
			return a.catalog.AddToMixlist(mixlistID, itemID)
		},
	}

	remove := &cobra.Command{
		Use:   "remove [mixlist-id] [item-id]",
		Short: "Remove an item from a mixlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			mixlistID, err := parseIDFlag(args[0], "mixlist")
			if err != nil {
				return err
			}
			itemID, err := parseIDFlag(args[1], "item")
			if err != nil {
				return err
			}
			return a.catalog.RemoveFromMixlist(mixlistID, itemID)
		},
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List mixlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			lists, err := a.db.ListMixlists()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tITEMS\tNAME")
			for _, ml := range lists {
				fmt.Fprintf(w, "%s\t%d\t%s\n", ml.ID, len(ml.MediaItemIDs), ml.Name)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(create, add, remove, ls)
	return cmd
}

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage freeform notes",
	}

	var vault, content string
	add := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			note, err := a.notes.Create(notes.NewNote{
				Title:     args[0],
				VaultName: vault,
				Content:   content,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added note %s (%s)\n", note.Title, note.ID)
			return nil
		},
	}
	add.Flags().StringVar(&vault, "vault", "", "vault name")
	add.Flags().StringVar(&content, "content", "", "note body")

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			list, err := a.notes.List(vault)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVAULT\tTITLE")
			for _, n := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.VaultName, n.Title)
			}
			return w.Flush()
		},
	}
	ls.Flags().StringVar(&vault, "vault", "", "filter by vault")

	cmd.AddCommand(add, ls)
	return cmd
}

func parseIDFlag(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", field, raw)
	}
	return id, nil
}
