// Package entitlements holds the loaded mapping of VIP group names to their
// feature values. Feature values are stored as strings; numeric or boolean
// interpretation happens at the call site via the core accessors.
package entitlements

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Group is one named tier's feature map. An empty value means the feature is
// registered but disabled for the group.
type Group struct {
	Features map[string]string `json:"features"`
}

// Config is the live group -> feature -> value mapping. Groups are fixed at
// load time; feature keys may be registered or unregistered across all
// groups at runtime.
type Config struct {
	mu     sync.RWMutex
	groups map[string]Group
}

// New builds a Config from a group map. The map is copied; the caller's
// reference is not retained.
func New(groups map[string]Group) *Config {
	c := &Config{groups: make(map[string]Group, len(groups))}
	for name, g := range groups {
		features := make(map[string]string, len(g.Features))
		for k, v := range g.Features {
			features[k] = v
		}
		c.groups[name] = Group{Features: features}
	}
	return c
}

type fileShape struct {
	Groups map[string]Group `json:"groups"`
}

// Load reads a JSON config file of the shape
// {"groups": {"vip": {"features": {"armor": "100"}}}}.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("entitlements: open config: %w", err)
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader decodes a config from r.
func LoadReader(r io.Reader) (*Config, error) {
	var fs fileShape
	if err := json.NewDecoder(r).Decode(&fs); err != nil {
		return nil, fmt.Errorf("entitlements: decode config: %w", err)
	}
	if len(fs.Groups) == 0 {
		return nil, fmt.Errorf("entitlements: config defines no groups")
	}
	return New(fs.Groups), nil
}

// HasGroup reports whether name is a defined group.
func (c *Config) HasGroup(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.groups[name]
	return ok
}

// GroupNames returns the defined group names, in no particular order.
func (c *Config) GroupNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.groups))
	for name := range c.groups {
		out = append(out, name)
	}
	return out
}

// FeatureValue returns the value of feature for group. ok is false when the
// group is unknown or the feature key is absent from it.
func (c *Config) FeatureValue(group, feature string) (value string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, found := c.groups[group]
	if !found {
		return "", false
	}
	value, ok = g.Features[feature]
	return value, ok
}

// RegisterFeature adds the feature key with an empty value to every group
// that does not already define it. Idempotent.
func (c *Config) RegisterFeature(feature string) {
	if feature == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.groups {
		if _, ok := g.Features[feature]; !ok {
			g.Features[feature] = ""
		}
	}
}

// UnregisterFeature removes the feature key from every group. Idempotent.
func (c *Config) UnregisterFeature(feature string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.groups {
		delete(g.Features, feature)
	}
}
