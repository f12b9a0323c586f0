package netplan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML representation of a NetPlan.
type File struct {
	Nodes   []NodeSpec   `yaml:"nodes"`
	Links   []LinkSpec   `yaml:"links"`
	Demands []DemandSpec `yaml:"demands"`
}

// NodeSpec describes a node in YAML.
type NodeSpec struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// LinkSpec describes a link in YAML. Up defaults to true; Bidirectional adds
// the reverse link with ID+ReverseIDOffset.
type LinkSpec struct {
	ID            int64   `yaml:"id"`
	From          int64   `yaml:"from"`
	To            int64   `yaml:"to"`
	Capacity      float64 `yaml:"capacity"`
	LengthKm      float64 `yaml:"length_km"`
	Up            *bool   `yaml:"up"`
	Bidirectional bool    `yaml:"bidirectional"`
}

// DemandSpec describes a demand in YAML.
type DemandSpec struct {
	ID             int64   `yaml:"id"`
	From           int64   `yaml:"from"`
	To             int64   `yaml:"to"`
	OfferedTraffic float64 `yaml:"offered_traffic"`
}

// ReverseIDOffset is added to a bidirectional link ID to form its reverse link ID.
const ReverseIDOffset = 1_000_000

// Load reads a NetPlan from a YAML file.
func Load(path string) (*NetPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network file: %w", err)
	}
	np, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return np, nil
}

// Parse decodes a NetPlan from YAML.
func Parse(data []byte) (*NetPlan, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing network: %w", err)
	}
	return f.Build()
}

// Build converts the YAML representation into a NetPlan.
func (f *File) Build() (*NetPlan, error) {
	np := New()
	for _, n := range f.Nodes {
		if err := np.AddNode(n.ID, n.Name); err != nil {
			return nil, err
		}
	}
	for _, ls := range f.Links {
		up := ls.Up == nil || *ls.Up
		l := Link{ID: ls.ID, From: ls.From, To: ls.To, Capacity: ls.Capacity, LengthKm: ls.LengthKm, Up: up}
		if err := np.AddLink(l); err != nil {
			return nil, err
		}
		if ls.Bidirectional {
			l.ID, l.From, l.To = ls.ID+ReverseIDOffset, ls.To, ls.From
			if err := np.AddLink(l); err != nil {
				return nil, err
			}
		}
	}
	for _, d := range f.Demands {
		if err := np.AddDemand(Demand{ID: d.ID, From: d.From, To: d.To, OfferedTraffic: d.OfferedTraffic}); err != nil {
			return nil, err
		}
	}
	return np, nil
}
