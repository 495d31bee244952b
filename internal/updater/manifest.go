package updater

import (
	"bytes"
	"encoding/json"
)

// Manifest is a repository manifest's modelled fields: identity, version,
// privacy, and the three dependency tables. Field declaration order here is
// also the order keys are written back out in, so repeated runs produce a
// stable diff instead of shuffling keys on every write.
type Manifest struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Private     bool              `json:"private,omitempty"`
	Production  map[string]string `json:"dependencies,omitempty"`
	Development map[string]string `json:"devDependencies,omitempty"`
	Peer        map[string]string `json:"peerDependencies,omitempty"`
}

// ParseManifest decodes raw manifest bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Marshal re-encodes the manifest with tab indentation and a trailing
// newline, matching the formatting contract manifest rewrites must keep.
func (m *Manifest) Marshal() ([]byte, error) {
	out, err := json.MarshalIndent(m, "", "\t")
	if err != nil {
		return nil, err
	}
	out = append(bytes.TrimRight(out, "\n"), '\n')
	return out, nil
}

// table returns the dependency table matching depType, or nil if depType is
// unrecognised or that table is empty on this manifest.
func (m *Manifest) table(depType string) map[string]string {
	switch depType {
	case "production":
		return m.Production
	case "development":
		return m.Development
	case "peer":
		return m.Peer
	default:
		return nil
	}
}
