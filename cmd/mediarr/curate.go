package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/avollmer/mediarr/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const suggestionLimit = 5

func tagsCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "tags [vocabulary]",
		Short: "List or search a tag vocabulary (genre or topic)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			vocab := models.Vocabulary(args[0])
			tags, err := a.vocab.Search(vocab, search)
			if err != nil {
				return err
			}

			if len(tags) == 0 && search != "" {
				suggestions, err := a.vocab.Suggest(vocab, search, suggestionLimit)
				if err != nil {
					return err
				}
				if len(suggestions) > 0 {
					fmt.Println("No match; did you mean:")
					for _, tag := range suggestions {
						fmt.Printf("  %s\n", tag.Name)
					}
					return nil
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, tag := range tags {
				fmt.Fprintf(w, "%s\t%s\n", tag.ID, tag.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "substring to search for")
	return cmd
}

func similarCmd() *cobra.Command {
	var k int
	var minSimilarity float64

	cmd := &cobra.Command{
		Use:   "similar [id]",
		Short: "Find the nearest items by embedding similarity",
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

			neighbors, err := a.embeddings.NearestNeighbors(id, k, minSimilarity)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tID\tTITLE")
			for _, n := range neighbors {
				title := ""
				if item, err := a.db.GetItem(n.ID); err == nil {
					title = item.Title
				}
				fmt.Fprintf(w, "%.4f\t%s\t%s\n", n.Score, n.ID, title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 10, "maximum number of results")
	cmd.Flags().Float64Var(&minSimilarity, "min", 0.5, "minimum cosine similarity")
	return cmd
}

func relateCmd() *cobra.Command {
	var note string
	var imported bool

	cmd := &cobra.Command{
		Use:   "relate [source-id] [related-id]",
		Short: "Record a curated relation between two items",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			sourceID, err := parseIDFlag(args[0], "source")
			if err != nil {
				return err
			}
			relatedID, err := parseIDFlag(args[1], "related")
			if err != nil {
				return err
			}

			if imported {
				_, err = a.relations.AddImportLink(sourceID, relatedID, note)
			} else {
				_, err = a.relations.AddManual(sourceID, relatedID, note)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Related %s -> %s\n", sourceID, relatedID)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "free-text annotation")
	cmd.Flags().BoolVar(&imported, "import", false, "record as an import linkage instead of manual")
	return cmd
}

func unrelateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unrelate [source-id] [related-id]",
		Short: "Remove a relation between two items",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			sourceID, err := parseIDFlag(args[0], "source")
			if err != nil {
				return err
			}
			relatedID, err := parseIDFlag(args[1], "related")
			if err != nil {
				return err
			}
			if err := a.relations.Remove(sourceID, relatedID); err != nil {
				return err
			}
			fmt.Printf("Unrelated %s -> %s\n", sourceID, relatedID)
			return nil
		},
	}
}

func relationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relations [id]",
		Short: "Show every relation an item participates in",
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

			rels, err := a.relations.RelationsFor(id)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tRELATED\tORIGIN\tSCORE\tNOTE")
			for _, rel := range rels {
				score := ""
				if rel.SimilarityScore != nil {
					score = fmt.Sprintf("%.4f", *rel.SimilarityScore)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rel.SourceMediaItemID, rel.RelatedMediaItemID, rel.Source, score, rel.Note)
			}
			return w.Flush()
		},
	}
}

func discoverCmd() *cobra.Command {
	var k int
	var minSimilarity float64
	var all bool

	cmd := &cobra.Command{
		Use:   "discover [id]",
		Short: "Discover embedding-based relations for one item or the whole catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if all {
				return discoverAll(a, k, minSimilarity)
			}
			if len(args) != 1 {
				return fmt.Errorf("either an item id or --all is required")
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id: %w", err)
			}

			rels, err := a.relations.Discover(id, k, minSimilarity)
			if err != nil {
				return err
			}
			fmt.Printf("Discovered %d relations for %s\n", len(rels), id)
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 0, "neighbor candidates per item (0 uses the configured default)")
	cmd.Flags().Float64Var(&minSimilarity, "min", 0, "minimum similarity (0 uses the configured default)")
	cmd.Flags().BoolVar(&all, "all", false, "sweep every item that has an embedding")
	return cmd
}

func discoverAll(a *app, k int, minSimilarity float64) error {
	items, err := a.db.GetItemsWithEmbeddings()
	if err != nil {
		return err
	}
	var failed int
	for _, item := range items {
		if _, err := a.relations.Discover(item.ID, k, minSimilarity); err != nil {
			a.logger.WithError(err).WithField("item_id", item.ID).Warn("Discovery failed for item")
			failed++
		}
	}
	fmt.Printf("Swept %d items, %d failed\n", len(items), failed)
	return nil
}

func recommendCmd() *cobra.Command {
	var count int
	var includeExplored bool

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend unexplored items close to what you liked",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			recs, err := a.relations.Recommend(count, !includeExplored)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tID\tTITLE")
			for _, r := range recs {
				fmt.Fprintf(w, "%.4f\t%s\t%s\n", r.Score, r.Item.ID, r.Item.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of recommendations")
	cmd.Flags().BoolVar(&includeExplored, "include-explored", false, "include items you have already started")
	return cmd
}
