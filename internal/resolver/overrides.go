package resolver

import (
	_ "embed"
	"fmt"
	"os"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"

	"gopkg.in/yaml.v3"
)

//go:embed data/overrides.yaml
var embeddedOverrides []byte

// Overrides are per-constituency records layered over store records in the
// exact-match tier.
type Overrides map[core.ConstituencyID]*constituency.Record

type overridesFile struct {
	Constituencies []constituency.Record `yaml:"constituencies"`
}

// ParseOverrides decodes an overrides document. Duplicate ids are rejected.
func ParseOverrides(raw []byte) (Overrides, error) {
	var doc overridesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	out := make(Overrides, len(doc.Constituencies))
	for i := range doc.Constituencies {
		rec := doc.Constituencies[i]
		id, err := core.ParseConstituencyID(rec.ID.String())
		if err != nil {
			return nil, fmt.Errorf("overrides entry %d: %w", i, err)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("overrides: duplicate id %s", id)
		}
		rec.ID = id
		out[id] = &rec
	}
	return out, nil
}

// DefaultOverrides returns the overrides shipped with the binary.
func DefaultOverrides() (Overrides, error) {
	return ParseOverrides(embeddedOverrides)
}

// LoadOverrides reads the embedded overrides and, when path is set, layers the
// file at path over them entry by entry.
func LoadOverrides(path string) (Overrides, error) {
	base, err := DefaultOverrides()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file: %w", err)
	}
	extra, err := ParseOverrides(raw)
	if err != nil {
		return nil, err
	}
	for id, rec := range extra {
		if existing, ok := base[id]; ok {
			merged := existing.Overlay(rec)
			base[id] = &merged
			continue
		}
		base[id] = rec
	}
	return base, nil
}
