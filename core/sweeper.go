package core

import (
	"context"
	"errors"

	"github.com/open-rails/vipkit/membership"
)

// Sweep deletes every expired record from the store. Deletions are
// independent and best-effort: one failure is logged and the rest of the
// batch proceeds. The session cache is never touched; expired snapshots
// already read as invalid on every resolver call.
func (s *Service) Sweep(ctx context.Context) {
	expired, err := s.store.FindExpired(ctx, s.now())
	if err != nil {
		s.log.WithError(err).Warn("expiration sweep query failed")
		return
	}
	for _, rec := range expired {
		err := s.store.Delete(ctx, rec.Identifier)
		if err != nil && !errors.Is(err, membership.ErrNotFound) {
			s.log.WithError(err).WithField("identifier", rec.Identifier).Warn("expired membership not removed")
			continue
		}
		s.log.WithField("identifier", rec.Identifier).Info("expired membership removed")
	}
}
