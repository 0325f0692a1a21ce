package entitlements

import (
	"strings"
	"testing"
)

func testGroups() map[string]Group {
	return map[string]Group{
		"vip":  {Features: map[string]string{"armor": "100"}},
		"gold": {Features: map[string]string{"armor": "200", "trail": "1"}},
	}
}

func TestRegisterUnregisterFeature(t *testing.T) {
	c := New(testGroups())

	c.RegisterFeature("jetpack")
	for _, g := range []string{"vip", "gold"} {
		v, ok := c.FeatureValue(g, "jetpack")
		if !ok {
			t.Fatalf("group %q missing registered feature", g)
		}
		if v != "" {
			t.Errorf("group %q registered with value %q, want empty", g, v)
		}
	}

	// Registering again must not clobber a value set by config.
	c.RegisterFeature("armor")
	if v, _ := c.FeatureValue("vip", "armor"); v != "100" {
		t.Errorf("armor overwritten to %q", v)
	}

	c.UnregisterFeature("jetpack")
	for _, g := range []string{"vip", "gold"} {
		if _, ok := c.FeatureValue(g, "jetpack"); ok {
			t.Errorf("group %q still has unregistered feature", g)
		}
	}
	c.UnregisterFeature("jetpack") // idempotent
}

func TestFeatureValue(t *testing.T) {
	c := New(testGroups())
	if v, ok := c.FeatureValue("gold", "trail"); !ok || v != "1" {
		t.Errorf("got %q %v", v, ok)
	}
	if _, ok := c.FeatureValue("vip", "trail"); ok {
		t.Error("feature reported for group that lacks it")
	}
	if _, ok := c.FeatureValue("silver", "armor"); ok {
		t.Error("feature reported for unknown group")
	}
}

func TestNewCopiesInput(t *testing.T) {
	groups := testGroups()
	c := New(groups)
	groups["vip"].Features["armor"] = "0"
	if v, _ := c.FeatureValue("vip", "armor"); v != "100" {
		t.Errorf("config shares caller's map, armor = %q", v)
	}
}

func TestLoadReader(t *testing.T) {
	cfg, err := LoadReader(strings.NewReader(`{
		"groups": {
			"vip": {"features": {"armor": "100", "gravity": "0.8"}}
		}
	}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.HasGroup("vip") {
		t.Fatal("vip group missing")
	}
	if v, _ := cfg.FeatureValue("vip", "gravity"); v != "0.8" {
		t.Errorf("gravity = %q", v)
	}

	if _, err := LoadReader(strings.NewReader(`{"groups": {}}`)); err == nil {
		t.Error("empty group map accepted")
	}
	if _, err := LoadReader(strings.NewReader(`not json`)); err == nil {
		t.Error("malformed JSON accepted")
	}
}
