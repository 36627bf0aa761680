package history_test

import (
	"context"
	"testing"
	"time"

	"atelier/internal/history"
	"atelier/internal/testsupport"
)

func TestStoreRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	first, err := store.Add(ctx, history.Record{
		ListingID: 101,
		InputName: "sunset.png",
		Title:     "Sunset Print",
		ShopID:    "shop-1",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected an assigned row id")
	}

	if _, err := store.Add(ctx, history.Record{
		ListingID: 102,
		InputName: "forest.png",
		Title:     "Forest Print",
		ShopID:    "shop-1",
		CreatedAt: time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ListingID != 102 || records[1].ListingID != 101 {
		t.Fatalf("expected newest first, got %d then %d", records[0].ListingID, records[1].ListingID)
	}
	if records[1].Title != "Sunset Print" || records[1].InputName != "sunset.png" {
		t.Fatalf("unexpected record %+v", records[1])
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ListingID != 102 {
		t.Fatalf("unexpected limited result %+v", limited)
	}
}

func TestStoreReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Add(context.Background(), history.Record{ListingID: 7, InputName: "a.png", Title: "A", ShopID: "s"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	records, err := reopened.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].ListingID != 7 {
		t.Fatalf("expected persisted record, got %+v", records)
	}
}
