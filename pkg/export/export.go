// Package export renders solved networks into portable artifacts:
// solution snapshots in YAML or JSON, optionally snappy-compressed, and
// DOT drawings of the network topology.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"
	"gopkg.in/yaml.v3"

	"github.com/inwe-boku/fluxopt/pkg/network"
)

// Format selects the snapshot encoding.
type Format int

const (
	// FormatYAML encodes snapshots as YAML
	FormatYAML Format = iota
	// FormatJSON encodes snapshots as indented JSON
	FormatJSON
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ErrUnknownFormat is returned for file extensions and format values the
// package cannot encode.
var ErrUnknownFormat = errors.New("unknown snapshot format")

// Snapshot is the solution of a solved network in plain data: sizes,
// flows and storage state per time step, ready for serialization.
type Snapshot struct {
	Network   string      `json:"network" yaml:"network"`
	Times     []time.Time `json:"times" yaml:"times"`
	TotalCost float64     `json:"total_cost" yaml:"total_cost"`
	Nodes     []NodeState `json:"nodes" yaml:"nodes"`
	Edges     []EdgeFlow  `json:"edges" yaml:"edges"`
}

// NodeState is the solved state of one node.
type NodeState struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`

	// Size is the solved capacity, absent for nodes without one.
	Size *float64 `json:"size,omitempty" yaml:"size,omitempty"`

	// Supply is the synthetic inflow of an input leaf, Demand the
	// synthetic outflow of a fixed output node.
	Supply []float64 `json:"supply,omitempty" yaml:"supply,omitempty"`
	Demand []float64 `json:"demand,omitempty" yaml:"demand,omitempty"`

	Storage *StorageState `json:"storage,omitempty" yaml:"storage,omitempty"`
}

// StorageState is the solved state of a node's storage.
type StorageState struct {
	Size      float64   `json:"size" yaml:"size"`
	Level     []float64 `json:"level" yaml:"level"`
	Charge    []float64 `json:"charge" yaml:"charge"`
	Discharge []float64 `json:"discharge" yaml:"discharge"`
}

// EdgeFlow is the solved flow along one edge.
type EdgeFlow struct {
	From      string    `json:"from" yaml:"from"`
	To        string    `json:"to" yaml:"to"`
	Commodity string    `json:"commodity" yaml:"commodity"`
	Flow      []float64 `json:"flow" yaml:"flow"`
}

// NewSnapshot captures the solution of a solved network. Fails with the
// network's not-solved error when called before a successful solve.
func NewSnapshot(net *network.Network) (*Snapshot, error) {
	total, err := net.TotalCost()
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Network:   net.Name(),
		Times:     net.Grid().Times(),
		TotalCost: total,
	}

	for _, node := range net.Nodes() {
		state := NodeState{Name: node.Name(), Type: node.Type().String()}

		size, err := node.Size()
		switch {
		case err == nil:
			state.Size = &size
		case errors.Is(err, network.ErrNoSize):
			// No capacity to report.
		default:
			return nil, fmt.Errorf("failed to read size of %s: %w", node.Name(), err)
		}

		switch node.Type() {
		case network.TypeFixedInput, network.TypeScalableInput:
			flow, err := node.InputFlow("")
			if err != nil {
				return nil, fmt.Errorf("failed to read supply of %s: %w", node.Name(), err)
			}
			state.Supply = flow.Values()
		case network.TypeFixedOutput:
			flow, err := node.OutputFlow("")
			if err != nil {
				return nil, fmt.Errorf("failed to read demand of %s: %w", node.Name(), err)
			}
			state.Demand = flow.Values()
		}

		if st := node.Storage(); st != nil {
			storage, err := storageState(st)
			if err != nil {
				return nil, fmt.Errorf("failed to read storage of %s: %w", node.Name(), err)
			}
			state.Storage = storage
		}

		s.Nodes = append(s.Nodes, state)
	}

	for _, edge := range net.Topology() {
		to, ok := net.Node(edge.To)
		if !ok {
			return nil, fmt.Errorf("failed to resolve edge target %s", edge.To)
		}
		flow, err := to.InputFlow(edge.From)
		if err != nil {
			return nil, fmt.Errorf("failed to read flow %s -> %s: %w", edge.From, edge.To, err)
		}
		s.Edges = append(s.Edges, EdgeFlow{
			From:      edge.From,
			To:        edge.To,
			Commodity: edge.Commodity,
			Flow:      flow.Values(),
		})
	}

	return s, nil
}

func storageState(st *network.Storage) (*StorageState, error) {
	size, err := st.Size()
	if err != nil {
		return nil, err
	}
	level, err := st.Level()
	if err != nil {
		return nil, err
	}
	charge, err := st.Charge()
	if err != nil {
		return nil, err
	}
	discharge, err := st.Discharge()
	if err != nil {
		return nil, err
	}
	return &StorageState{
		Size:      size,
		Level:     level.Values(),
		Charge:    charge.Values(),
		Discharge: discharge.Values(),
	}, nil
}

// Marshal encodes the snapshot in the given format.
func (s *Snapshot) Marshal(f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(s)
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, f)
	}
}

// Unmarshal decodes a snapshot from the given format.
func Unmarshal(data []byte, f Format) (*Snapshot, error) {
	s := &Snapshot{}
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to decode yaml snapshot: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to decode json snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, f)
	}
	return s, nil
}

// WriteFile writes the snapshot to path. The extension selects the
// format: .yaml or .yml, .json, each optionally followed by .sz for
// snappy compression, e.g. "run.yaml.sz".
func (s *Snapshot) WriteFile(path string) error {
	format, compress, err := formatFromPath(path)
	if err != nil {
		return err
	}
	data, err := s.Marshal(format)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if compress {
		data = snappy.Encode(nil, data)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadFile reads a snapshot written by WriteFile.
func ReadFile(path string) (*Snapshot, error) {
	format, compressed, err := formatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if compressed {
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
		}
	}
	return Unmarshal(data, format)
}

// formatFromPath maps a file path to its encoding.
func formatFromPath(path string) (Format, bool, error) {
	compressed := false
	if strings.EqualFold(filepath.Ext(path), ".sz") {
		compressed = true
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	case ".json":
		return FormatJSON, compressed, nil
	default:
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}
