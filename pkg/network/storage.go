package network

import (
	"github.com/inwe-boku/fluxopt/pkg/timegrid"
	"github.com/inwe-boku/fluxopt/pkg/units"
	"github.com/inwe-boku/fluxopt/pkg/validation"
)

type initialMode int

const (
	initialCyclic initialMode = iota
	initialFree
	initialFixed
)

// InitialLevel selects how the storage level before the first time step
// is tied down.
type InitialLevel struct {
	mode  initialMode
	value float64
}

// InitialCyclic wraps the first step's level balance around to the last
// step, so the storage ends the horizon where it started. This is the
// default.
var InitialCyclic = InitialLevel{mode: initialCyclic}

// InitialFree leaves the level before the first step unconstrained.
var InitialFree = InitialLevel{mode: initialFree}

// InitialFixed starts the level recurrence from a known level.
func InitialFixed(level float64) InitialLevel {
	return InitialLevel{mode: initialFixed, value: level}
}

// Storage buffers the output commodity of the node it is attached to.
// Charging and discharging shift flow between time steps, bounded by the
// storage size and the charging speed; losses apply per step and per
// charge.
type Storage struct {
	costs            units.Quantity
	maxChargingSpeed float64
	storageLoss      float64
	chargingLoss     float64
	initial          InitialLevel

	attachedTo string
	result     *storageResult
}

// storageResult is the solution snapshot written back after a solve.
type storageResult struct {
	size      float64
	level     timegrid.Series
	charge    timegrid.Series
	discharge timegrid.Series
}

// StorageOption configures a storage at construction.
type StorageOption func(*Storage)

// WithInitialLevel sets the policy for the level before the first step.
func WithInitialLevel(initial InitialLevel) StorageOption {
	return func(s *Storage) {
		s.initial = initial
	}
}

// NewStorage creates a storage attachment. Costs are per unit of stored
// commodity; maxChargingSpeed is the share of the total capacity that can
// be charged or discharged per hour; storageLoss is the share of the
// level lost per step; chargingLoss the share lost while charging.
func NewStorage(costs units.Quantity, maxChargingSpeed, storageLoss, chargingLoss float64, opts ...StorageOption) (*Storage, error) {
	s := &Storage{
		costs:            costs,
		maxChargingSpeed: maxChargingSpeed,
		storageLoss:      storageLoss,
		chargingLoss:     chargingLoss,
		initial:          InitialCyclic,
	}
	for _, opt := range opts {
		opt(s)
	}

	params := &validation.StorageParams{
		Costs:            costs.Value,
		MaxChargingSpeed: maxChargingSpeed,
		StorageLoss:      storageLoss,
		ChargingLoss:     chargingLoss,
		InitialLevel:     s.initial.value,
	}
	if err := validation.ValidateStorageParams(params); err != nil {
		return nil, NewConfig("new storage").Cause(err).Err()
	}
	return s, nil
}

// attach binds the storage to a node, at most once.
func (s *Storage) attach(node string) error {
	if s.attachedTo != "" {
		return NewConfig("new node").Node(node).
			Contextf("storage belongs to %s", s.attachedTo).Cause(ErrStorageOwned).Err()
	}
	s.attachedTo = node
	return nil
}

// Costs returns the capacity costs per unit of stored commodity.
func (s *Storage) Costs() units.Quantity {
	return s.costs
}

// MaxChargingSpeed returns the share of capacity chargeable per hour.
func (s *Storage) MaxChargingSpeed() float64 {
	return s.maxChargingSpeed
}

// StorageLoss returns the share of the level lost per time step.
func (s *Storage) StorageLoss() float64 {
	return s.storageLoss
}

// ChargingLoss returns the share of charged flow lost while charging.
func (s *Storage) ChargingLoss() float64 {
	return s.chargingLoss
}

// Size returns the solved storage capacity.
func (s *Storage) Size() (float64, error) {
	if s.result == nil {
		return 0, NotSolvedError("storage size", s.attachedTo)
	}
	return s.result.size, nil
}

// Level returns the solved storage level per time step.
func (s *Storage) Level() (timegrid.Series, error) {
	if s.result == nil {
		return timegrid.Series{}, NotSolvedError("storage level", s.attachedTo)
	}
	return s.result.level, nil
}

// Charge returns the solved charged amount per time step.
func (s *Storage) Charge() (timegrid.Series, error) {
	if s.result == nil {
		return timegrid.Series{}, NotSolvedError("storage charge", s.attachedTo)
	}
	return s.result.charge, nil
}

// Discharge returns the solved discharged amount per time step.
func (s *Storage) Discharge() (timegrid.Series, error) {
	if s.result == nil {
		return timegrid.Series{}, NotSolvedError("storage discharge", s.attachedTo)
	}
	return s.result.discharge, nil
}
