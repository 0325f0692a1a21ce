// Package testing provides utilities for testing modules that consume
// vipkit. It wires a core.Service onto the in-memory store with a mock
// clock, so tests can grant, connect, and advance time without a database.
//
// Example usage:
//
//	ts := viptesting.NewService(nil)
//	ts.Grant(context.Background(), "STEAM_0:1:11111", "vip", 0)
//	ts.HandleConnect(3, "STEAM_0:1:11111")
//	ts.Flush()
package testing

import (
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/vipkit/core"
	"github.com/open-rails/vipkit/entitlements"
	memorystore "github.com/open-rails/vipkit/storage/memory"
)

// Service bundles a ready-to-use core.Service with the handles tests need:
// the backing store, the mock clock, and the live configuration.
type Service struct {
	*core.Service
	Store *memorystore.Store
	Clock *clock.Mock
}

// NewService builds a Service over the given groups. A nil map yields a
// single "vip" group with a small feature set.
func NewService(groups map[string]entitlements.Group) *Service {
	if groups == nil {
		groups = map[string]entitlements.Group{
			"vip": {Features: map[string]string{
				"armor":      "100",
				"gravity":    "0.8",
				"fast_spawn": "1",
			}},
		}
	}
	store := memorystore.New()
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	log := logrus.New()
	log.SetOutput(io.Discard)

	svc, err := core.New(core.Options{
		Store:  store,
		Config: entitlements.New(groups),
		Logger: log,
		Clock:  mock,
	})
	if err != nil {
		panic(err)
	}
	return &Service{Service: svc, Store: store, Clock: mock}
}
