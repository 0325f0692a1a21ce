package core

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/vipkit/membership"
)

// IsVIP reports whether the player on slot has an active membership. Reading
// an expired snapshot evicts the slot and schedules the stale record's
// deletion, so lazy cleanup agrees with the periodic sweep.
func (s *Service) IsVIP(slot int) bool {
	rec, ok := s.cache.Peek(slot)
	if !ok {
		return false
	}
	if rec.ValidAt(s.now()) {
		return true
	}
	s.cache.Evict(slot)
	s.log.WithFields(logrus.Fields{
		"identifier": rec.Identifier,
		"slot":       slot,
	}).Info("vip expired, evicting session")
	s.tasks.Go("expired-cleanup", func() error {
		err := s.store.Delete(context.Background(), rec.Identifier)
		if errors.Is(err, membership.ErrNotFound) {
			return nil
		}
		return err
	})
	return false
}

// HasFeature reports whether the player on slot is entitled to feature. A
// feature is enabled purely by having a non-empty value in the player's
// group; a cached group missing from the live configuration is logged as an
// inconsistency and reads as no entitlement.
func (s *Service) HasFeature(slot int, feature string) bool {
	v, ok := s.featureValue(slot, feature)
	return ok && v != ""
}

func (s *Service) featureValue(slot int, feature string) (string, bool) {
	if !s.IsVIP(slot) {
		return "", false
	}
	rec, ok := s.cache.Peek(slot)
	if !ok || rec.Group == "" {
		return "", false
	}
	cfg := s.Config()
	if !cfg.HasGroup(rec.Group) {
		s.log.WithFields(logrus.Fields{
			"group":      rec.Group,
			"identifier": rec.Identifier,
		}).Warn("cached vip group missing from configuration")
		return "", false
	}
	return cfg.FeatureValue(rec.Group, feature)
}

// FeatureString returns the feature's value, or "" when not entitled.
func (s *Service) FeatureString(slot int, feature string) string {
	if !s.HasFeature(slot, feature) {
		return ""
	}
	v, _ := s.featureValue(slot, feature)
	return v
}

// FeatureInt returns the feature's value as an int. Not entitled, or a value
// that fails to parse, yields math.MinInt; a parse failure on an enabled
// feature is logged as a configuration defect.
func (s *Service) FeatureInt(slot int, feature string) int {
	if !s.HasFeature(slot, feature) {
		return math.MinInt
	}
	v, _ := s.featureValue(slot, feature)
	n, err := strconv.Atoi(v)
	if err != nil {
		s.logMalformed(slot, feature, v, err)
		return math.MinInt
	}
	return n
}

// FeatureFloat returns the feature's value as a float64, or -math.MaxFloat64
// when not entitled or malformed.
func (s *Service) FeatureFloat(slot int, feature string) float64 {
	if !s.HasFeature(slot, feature) {
		return -math.MaxFloat64
	}
	v, _ := s.featureValue(slot, feature)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.logMalformed(slot, feature, v, err)
		return -math.MaxFloat64
	}
	return f
}

// FeatureBool returns true when the feature's value is "1" or a truthy
// boolean string, false otherwise.
func (s *Service) FeatureBool(slot int, feature string) bool {
	if !s.HasFeature(slot, feature) {
		return false
	}
	v, _ := s.featureValue(slot, feature)
	if v == "1" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		s.logMalformed(slot, feature, v, err)
		return false
	}
	return b
}

func (s *Service) logMalformed(slot int, feature, value string, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{
		"feature": feature,
		"value":   value,
		"group":   s.GroupOf(slot),
	}).Warn("malformed feature value in configuration")
}
