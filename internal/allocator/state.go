package allocator

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"
)

// State is a serializable snapshot of an allocator.
type State struct {
	Factors   []string  `json:"factors"`
	Weights   []float64 `json:"weights"`
	Budget    float64   `json:"l1_budget"`
	Eta       float64   `json:"eta"`
	Tau       float64   `json:"tau"`
	Steps     int       `json:"steps"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot captures the allocator together with the factor names its weights refer to.
func (a *Allocator) Snapshot(factors []string) State {
	return State{
		Factors: slices.Clone(factors),
		Weights: a.Weights(),
		Budget:  a.budget,
		Eta:     a.eta,
		Tau:     a.tau,
		Steps:   a.steps,
	}
}

// Restore replaces the allocator weights with a previously saved snapshot.
func (a *Allocator) Restore(s State) error {
	if len(s.Weights) != len(a.weights) {
		return fmt.Errorf("%w: snapshot has %d weights, allocator %d", ErrShapeMismatch, len(s.Weights), len(a.weights))
	}
	a.weights = ProjectL1Ball(s.Weights, a.budget)
	a.steps = s.Steps
	return nil
}

// LoadState reads a snapshot from a JSON file.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode allocator state: %w", err)
	}
	return &s, nil
}

// SaveState writes a snapshot to a JSON file.
func SaveState(filePath string, s State) error {
	s.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
