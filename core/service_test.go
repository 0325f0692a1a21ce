package core_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/vipkit/core"
	"github.com/open-rails/vipkit/entitlements"
	"github.com/open-rails/vipkit/membership"
	memorystore "github.com/open-rails/vipkit/storage/memory"
	viptesting "github.com/open-rails/vipkit/testing"
)

func TestGrantIdempotent(t *testing.T) {
	ts := viptesting.NewService(nil)
	ctx := context.Background()

	if err := ts.Grant(ctx, "A", "vip", 0); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	firstGranted := ts.Clock.Now().Unix()

	ts.Clock.Add(time.Hour)
	err := ts.Grant(ctx, "A", "vip", 60)
	if !errors.Is(err, membership.ErrExists) {
		t.Fatalf("second grant returned %v", err)
	}

	rec, found, _ := ts.Store.Find(ctx, "A")
	if !found {
		t.Fatal("record missing")
	}
	if rec.GrantedAt != firstGranted || rec.ExpiresAt != 0 {
		t.Errorf("record carries second grant's terms: %+v", rec)
	}
}

func TestGrantUnknownGroup(t *testing.T) {
	ts := viptesting.NewService(nil)
	err := ts.Grant(context.Background(), "A", "diamond", 0)
	if !errors.Is(err, core.ErrUnknownGroup) {
		t.Fatalf("got %v", err)
	}
	if _, found, _ := ts.Store.Find(context.Background(), "A"); found {
		t.Error("rejected grant wrote state")
	}
}

func TestRevokeMissingIsNoop(t *testing.T) {
	ts := viptesting.NewService(nil)
	if err := ts.Revoke(context.Background(), "nobody"); err != nil {
		t.Fatalf("revoke of absent record returned %v", err)
	}
}

func TestRevokeEvictsConnectedSlot(t *testing.T) {
	ts := viptesting.NewService(nil)
	ctx := context.Background()

	ts.Grant(ctx, "A", "vip", 0)
	ts.HandleConnect(5, "A")
	ts.Flush()
	if !ts.IsVIP(5) {
		t.Fatal("connected player not VIP after load")
	}

	if err := ts.Revoke(ctx, "A"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ts.IsVIP(5) {
		t.Error("revoked player still VIP this session")
	}
	if ts.GroupOf(5) != "" {
		t.Errorf("group still cached: %q", ts.GroupOf(5))
	}
}

func TestPermanentAndTimedMemberships(t *testing.T) {
	ts := viptesting.NewService(nil)
	ctx := context.Background()

	ts.Grant(ctx, "A", "vip", 0)
	ts.HandleConnect(3, "A")
	ts.Flush()
	if !ts.IsVIP(3) {
		t.Fatal("permanent membership reads as not VIP")
	}
	if got := ts.GroupOf(3); got != "vip" {
		t.Fatalf("GroupOf = %q", got)
	}

	ts.Grant(ctx, "B", "vip", 10)
	ts.HandleConnect(4, "B")
	ts.Flush()
	if !ts.IsVIP(4) {
		t.Fatal("timed membership reads as not VIP before expiry")
	}

	ts.Clock.Add(11 * time.Second)
	if ts.IsVIP(4) {
		t.Fatal("membership still VIP past expiry")
	}
	ts.Flush()
	if _, found, _ := ts.Store.Find(ctx, "B"); found {
		t.Error("expired record survived lazy cleanup")
	}

	// The permanent membership is unaffected by time.
	ts.Clock.Add(1000 * time.Hour)
	if !ts.IsVIP(3) {
		t.Error("permanent membership expired")
	}
}

func TestAsyncGrantRevoke(t *testing.T) {
	ts := viptesting.NewService(nil)

	ts.GrantAsync("A", "vip", 0)
	ts.Flush()
	if _, found, _ := ts.Store.Find(context.Background(), "A"); !found {
		t.Fatal("async grant not persisted")
	}

	ts.RevokeAsync("A")
	ts.Flush()
	if _, found, _ := ts.Store.Find(context.Background(), "A"); found {
		t.Fatal("async revoke not persisted")
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	ts := viptesting.NewService(nil)
	ctx := context.Background()

	ts.Grant(ctx, "perm", "vip", 0)
	ts.Grant(ctx, "timed", "vip", 30)
	ts.Clock.Add(31 * time.Second)

	ts.Sweep(ctx)

	if _, found, _ := ts.Store.Find(ctx, "timed"); found {
		t.Error("expired record survived sweep")
	}
	if _, found, _ := ts.Store.Find(ctx, "perm"); !found {
		t.Error("permanent record was swept")
	}
}

func TestStartAndClose(t *testing.T) {
	ts := viptesting.NewService(nil)
	ts.Start(context.Background())
	ts.Close()
}

// gatedStore delays Find until the gate opens, simulating a slow database
// lookup that outlives the session it was started for.
type gatedStore struct {
	membership.Store
	gate chan struct{}
}

func (g *gatedStore) Find(ctx context.Context, id string) (membership.Record, bool, error) {
	<-g.gate
	return g.Store.Find(ctx, id)
}

func TestSlotGenerationSafety(t *testing.T) {
	inner := memorystore.New()
	gs := &gatedStore{Store: inner, gate: make(chan struct{})}
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	log := logrus.New()
	log.SetOutput(io.Discard)

	svc, err := core.New(core.Options{
		Store: gs,
		Config: entitlements.New(map[string]entitlements.Group{
			"vip":  {Features: map[string]string{}},
			"gold": {Features: map[string]string{}},
		}),
		Logger: log,
		Clock:  mock,
	})
	if err != nil {
		t.Fatal(err)
	}

	now := mock.Now().Unix()
	inner.Insert(context.Background(), membership.Record{Identifier: "A", Group: "vip", GrantedAt: now})
	inner.Insert(context.Background(), membership.Record{Identifier: "B", Group: "gold", GrantedAt: now})

	// A's load hangs on the gate; A disconnects and B reuses the slot
	// before either load can land.
	svc.HandleConnect(2, "A")
	svc.HandleDisconnect(2)
	svc.HandleConnect(2, "B")

	close(gs.gate)
	svc.Flush()

	if got := svc.GroupOf(2); got != "gold" {
		t.Fatalf("slot reflects stale session: GroupOf = %q, want %q", got, "gold")
	}
	if !svc.IsVIP(2) {
		t.Error("current session's own load missing")
	}
}
