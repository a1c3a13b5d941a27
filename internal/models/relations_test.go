package models

import (
	"errors"
	"testing"
)

func TestUpsertRelationRejectsSelf(t *testing.T) {
	db := testDB(t)

	item := mustCreateItem(t, db, "Lonely", MediaTypeBook, &Book{})
	err := db.UpsertRelation(&Relation{
		SourceMediaItemID:  item.ID,
		RelatedMediaItemID: item.ID,
		Source:             RelationManual,
	})
	if !IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestUpsertRelationSamePairReplaces(t *testing.T) {
	db := testDB(t)

	a := mustCreateItem(t, db, "A", MediaTypeBook, &Book{})
	b := mustCreateItem(t, db, "B", MediaTypeBook, &Book{})

	first := &Relation{SourceMediaItemID: a.ID, RelatedMediaItemID: b.ID, Source: RelationManual, Note: "old"}
	if err := db.UpsertRelation(first); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	second := &Relation{SourceMediaItemID: a.ID, RelatedMediaItemID: b.ID, Source: RelationManual, Note: "new"}
	if err := db.UpsertRelation(second); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	rels, err := db.RelationsFrom(a.ID)
	if err != nil {
		t.Fatalf("Failed to list relations: %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("Expected one row per ordered pair, got %d", len(rels))
	}
	if rels[0].Note != "new" {
		t.Errorf("Expected replaced note, got %q", rels[0].Note)
	}
}

func TestRelationDirectionality(t *testing.T) {
	db := testDB(t)

	a := mustCreateItem(t, db, "A", MediaTypeBook, &Book{})
	b := mustCreateItem(t, db, "B", MediaTypeBook, &Book{})

	if err := db.UpsertRelation(&Relation{SourceMediaItemID: a.ID, RelatedMediaItemID: b.ID, Source: RelationManual}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Only the stored direction exists as a row
	if _, err := db.GetRelation(b.ID, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reverse pair should not exist, got %v", err)
	}

	// But the related side still sees it through the incoming index
	incoming, err := db.RelationsTo(b.ID)
	if err != nil {
		t.Fatalf("Failed to list incoming: %v", err)
	}
	if len(incoming) != 1 || incoming[0].SourceMediaItemID != a.ID {
		t.Errorf("Expected one incoming relation from A, got %d", len(incoming))
	}
}

func TestReplaceDiscoveredRelations(t *testing.T) {
	db := testDB(t)

	a := mustCreateItem(t, db, "A", MediaTypeBook, &Book{})
	b := mustCreateItem(t, db, "B", MediaTypeBook, &Book{})
	c := mustCreateItem(t, db, "C", MediaTypeBook, &Book{})
	d := mustCreateItem(t, db, "D", MediaTypeBook, &Book{})

	// An automatic relation that will vanish and a manual one that must not
	stale := 0.8
	if err := db.UpsertRelation(&Relation{
		SourceMediaItemID: a.ID, RelatedMediaItemID: b.ID,
		Source: RelationEmbedding, SimilarityScore: &stale,
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := db.UpsertRelation(&Relation{
		SourceMediaItemID: a.ID, RelatedMediaItemID: c.ID,
		Source: RelationManual, Note: "hand picked",
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	score := 0.9
	fresh := []*Relation{
		{SourceMediaItemID: a.ID, RelatedMediaItemID: d.ID, SimilarityScore: &score},
		// Targets the manually curated pair; must be skipped
		{SourceMediaItemID: a.ID, RelatedMediaItemID: c.ID, SimilarityScore: &score},
	}
	if err := db.ReplaceDiscoveredRelations(a.ID, fresh); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if _, err := db.GetRelation(a.ID, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stale automatic relation should be removed, got %v", err)
	}

	manual, err := db.GetRelation(a.ID, c.ID)
	if err != nil {
		t.Fatalf("Manual relation lost: %v", err)
	}
	if manual.Source != RelationManual || manual.Note != "hand picked" {
		t.Errorf("Manual relation must survive discovery untouched: %+v", manual)
	}

	discovered, err := db.GetRelation(a.ID, d.ID)
	if err != nil {
		t.Fatalf("Fresh relation missing: %v", err)
	}
	if discovered.Source != RelationEmbedding {
		t.Errorf("Expected embedding_similarity source, got %s", discovered.Source)
	}
	if discovered.SimilarityScore == nil || *discovered.SimilarityScore != score {
		t.Errorf("Score mismatch: %v", discovered.SimilarityScore)
	}
}
