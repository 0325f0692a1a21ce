package memorystore

import (
	"context"
	"errors"
	"testing"

	"github.com/open-rails/vipkit/membership"
)

func TestInsertIsNotUpsert(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := membership.Record{Identifier: "A", Group: "vip", GrantedAt: 100, ExpiresAt: 0}
	if err := s.Insert(ctx, first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.Insert(ctx, membership.Record{Identifier: "A", Group: "gold", GrantedAt: 200})
	if !errors.Is(err, membership.ErrExists) {
		t.Fatalf("duplicate insert returned %v", err)
	}

	rec, found, _ := s.Find(ctx, "A")
	if !found || rec.Group != "vip" || rec.GrantedAt != 100 {
		t.Errorf("record lost first grant's terms: %+v", rec)
	}
	if s.Len() != 1 {
		t.Errorf("store holds %d records, want 1", s.Len())
	}
}

func TestDeleteMissing(t *testing.T) {
	s := New()
	if err := s.Delete(context.Background(), "nobody"); !errors.Is(err, membership.ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestFindMissIsNotAnError(t *testing.T) {
	s := New()
	_, found, err := s.Find(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("benign miss returned error %v", err)
	}
	if found {
		t.Fatal("found a record in an empty store")
	}
}

func TestFindExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Insert(ctx, membership.Record{Identifier: "perm", Group: "vip", GrantedAt: 10, ExpiresAt: 0})
	s.Insert(ctx, membership.Record{Identifier: "live", Group: "vip", GrantedAt: 10, ExpiresAt: 500})
	s.Insert(ctx, membership.Record{Identifier: "dead", Group: "vip", GrantedAt: 10, ExpiresAt: 90})

	expired, err := s.FindExpired(ctx, 100)
	if err != nil {
		t.Fatalf("find expired: %v", err)
	}
	if len(expired) != 1 || expired[0].Identifier != "dead" {
		t.Fatalf("expired = %+v", expired)
	}
}
