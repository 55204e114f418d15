// Package model holds the normalized, read-only description of a reaction
// network: species, reactions, parameters, rate rules and events. It is
// built once per simulation run; everything mutable (populations, RNG
// state, accumulated stochastic clocks, event trigger booleans) belongs to
// the solver that owns a trajectory, never to the Model.
package model

import "github.com/pkg/errors"

// PropensityFunc computes a reaction's instantaneous rate given the current
// state and the simulation's parameter snapshot. Implementations must be
// pure functions of (state, vars, consts): they may not retain references
// to mutable solver state between calls.
type PropensityFunc func(state, vars, consts []float64) float64

// RateRuleFunc drives a species purely through a continuous-time formula,
// independent of any reaction's stoichiometry.
type RateRuleFunc func(t float64, state, vars, consts []float64) float64

// AssignmentFunc writes one scalar into either a species slot or a variable
// slot. Event assignments are opaque numbered handlers of this shape.
type AssignmentFunc func(t float64, state, vars []float64, consts []float64)

// EventTriggerFunc reports whether an event's trigger condition currently
// holds.
type EventTriggerFunc func(t float64, state, vars, consts []float64) bool

// EventDelayFunc and EventPriorityFunc compute the delay and priority of an
// event execution at the moment its trigger fires.
type EventDelayFunc func(t float64, state, vars, consts []float64) float64
type EventPriorityFunc func(t float64, state, vars, consts []float64) float64

// Event is the SBML-style event record: a boolean trigger, an optional
// delay and priority, and a list of assignments to run when it fires.
type Event struct {
	ID       int
	Name     string
	Trigger  EventTriggerFunc
	Delay    EventDelayFunc
	Priority EventPriorityFunc

	// UseTriggerState snapshots state at the trigger-time instant and runs
	// assignments against that snapshot rather than live state at fire time.
	UseTriggerState bool
	// IsPersistent events keep firing at their scheduled time even if the
	// trigger condition becomes false again before then. Non-persistent
	// ("volatile") events are retracted if the trigger drops before firing.
	IsPersistent bool
	// InitialValue is the trigger's assumed value at t=0, used to decide
	// whether the event should fire immediately at simulation start.
	InitialValue bool

	Assignments []AssignmentFunc
}

// Model is the normalized, read-only description of a reaction network.
type Model struct {
	Species   []Species
	Reactions []Reaction

	// Propensity and ODEPropensity are indexed by reaction id.
	Propensity    []PropensityFunc
	ODEPropensity []PropensityFunc

	// Variables are mutable parameters that may be overridden before a run
	// starts; Constants never change.
	Variables []float64
	Constants []float64

	// RateRules, indexed by species id, drives species with no reaction
	// stoichiometry of their own (nil entries mean "no rate rule").
	RateRules []RateRuleFunc

	Events []Event
}

// Build returns a model with zero-initialized stoichiometry vectors for the
// given species and reaction names, ready for SetSpeciesChange/reactant/
// product setters followed by UpdateAffectedReactions.
func Build(speciesNames []string, initialPopulations []float64, reactionNames []string) (*Model, error) {
	if len(speciesNames) != len(initialPopulations) {
		return nil, errors.Errorf("model: %d species names but %d initial populations", len(speciesNames), len(initialPopulations))
	}
	n := len(speciesNames)
	species := make([]Species, n)
	for i, name := range speciesNames {
		if initialPopulations[i] < 0 {
			return nil, errors.Errorf("model: species %q has negative initial population %g", name, initialPopulations[i])
		}
		species[i] = Species{ID: i, Name: name, InitialPopulation: initialPopulations[i]}
	}

	reactions := make([]Reaction, len(reactionNames))
	for i, name := range reactionNames {
		reactions[i] = Reaction{
			ID:              i,
			Name:            name,
			ReactantsChange: make([]int, n),
			ProductsChange:  make([]int, n),
			SpeciesChange:   make([]int, n),
		}
	}

	m := &Model{
		Species:       species,
		Reactions:     reactions,
		Propensity:    make([]PropensityFunc, len(reactionNames)),
		ODEPropensity: make([]PropensityFunc, len(reactionNames)),
		RateRules:     make([]RateRuleFunc, n),
	}
	return m, nil
}

// SetReactantChange sets the consumed count of species s in reaction rxn
// and recomputes that reaction's SpeciesChange[s].
func (m *Model) SetReactantChange(rxn, s, count int) error {
	r, err := m.reaction(rxn)
	if err != nil {
		return err
	}
	if err := m.checkSpecies(s); err != nil {
		return err
	}
	r.ReactantsChange[s] = count
	r.SpeciesChange[s] = r.ProductsChange[s] - r.ReactantsChange[s]
	return nil
}

// SetProductChange sets the produced count of species s in reaction rxn and
// recomputes that reaction's SpeciesChange[s].
func (m *Model) SetProductChange(rxn, s, count int) error {
	r, err := m.reaction(rxn)
	if err != nil {
		return err
	}
	if err := m.checkSpecies(s); err != nil {
		return err
	}
	r.ProductsChange[s] = count
	r.SpeciesChange[s] = r.ProductsChange[s] - r.ReactantsChange[s]
	return nil
}

// SetSpeciesChange sets SpeciesChange[s] directly, for reactions specified
// by net stoichiometry alone (no separate reactant/product split).
func (m *Model) SetSpeciesChange(rxn, s, delta int) error {
	r, err := m.reaction(rxn)
	if err != nil {
		return err
	}
	if err := m.checkSpecies(s); err != nil {
		return err
	}
	r.SpeciesChange[s] = delta
	return nil
}

// SetPropensity attaches the stochastic and deterministic propensity
// callables for reaction rxn. ode may be nil, in which case the stochastic
// propensity is reused for the ODE/continuous branch as well.
func (m *Model) SetPropensity(rxn int, stochastic, ode PropensityFunc) error {
	if _, err := m.reaction(rxn); err != nil {
		return err
	}
	if stochastic == nil {
		return errors.Errorf("model: reaction %d has a nil propensity", rxn)
	}
	m.Propensity[rxn] = stochastic
	if ode == nil {
		ode = stochastic
	}
	m.ODEPropensity[rxn] = ode
	return nil
}

// SetRateRule attaches a continuous rate-rule formula to species s.
func (m *Model) SetRateRule(s int, rule RateRuleFunc) error {
	if err := m.checkSpecies(s); err != nil {
		return err
	}
	m.RateRules[s] = rule
	return nil
}

// AddEvent appends an event to the model and returns its assigned id.
func (m *Model) AddEvent(e Event) int {
	e.ID = len(m.Events)
	m.Events = append(m.Events, e)
	return e.ID
}

// UpdateAffectedReactions computes, for every reaction r1, the set of
// reactions r2 such that some species s has r1.SpeciesChange[s] != 0 and
// r2.ReactantsChange[s] > 0 — i.e. r2's propensity reads a species r1
// changes. Ordering is ascending reaction id; the result may contain
// duplicates when more than one species links the same pair, matching the
// source implementation's behavior (see the Open Question in DESIGN.md).
// This must be called once after every reaction's stoichiometry is filled.
func (m *Model) UpdateAffectedReactions() {
	n := len(m.Species)
	for i := range m.Reactions {
		r1 := &m.Reactions[i]
		r1.AffectedReactions = r1.AffectedReactions[:0]
		for s := 0; s < n; s++ {
			if r1.SpeciesChange[s] == 0 {
				continue
			}
			for j := range m.Reactions {
				r2 := &m.Reactions[j]
				if r2.ReactantsChange[s] > 0 {
					r1.AffectedReactions = append(r1.AffectedReactions, r2.ID)
				}
			}
		}
	}
}

// LoadParameters returns a fresh snapshot of the variable and constant
// arrays, safe to bind to a simulation run and pass by reference into every
// propensity/rate-rule/event callable for that run.
func (m *Model) LoadParameters() (vars, consts []float64) {
	vars = append([]float64(nil), m.Variables...)
	consts = append([]float64(nil), m.Constants...)
	return vars, consts
}

// OverrideVariable sets the value of variable id before simulation start.
// It must not be called once a trajectory is in flight.
func (m *Model) OverrideVariable(id int, value float64) error {
	if id < 0 || id >= len(m.Variables) {
		return errors.Errorf("model: variable id %d out of range [0,%d)", id, len(m.Variables))
	}
	m.Variables[id] = value
	return nil
}

// InitialState returns a fresh copy of the species' initial populations,
// the starting point of every trajectory.
func (m *Model) InitialState() []float64 {
	state := make([]float64, len(m.Species))
	for i, sp := range m.Species {
		state[i] = sp.InitialPopulation
	}
	return state
}

func (m *Model) reaction(rxn int) (*Reaction, error) {
	if rxn < 0 || rxn >= len(m.Reactions) {
		return nil, errors.Errorf("model: reaction id %d out of range [0,%d)", rxn, len(m.Reactions))
	}
	return &m.Reactions[rxn], nil
}

func (m *Model) checkSpecies(s int) error {
	if s < 0 || s >= len(m.Species) {
		return errors.Errorf("model: species id %d out of range [0,%d)", s, len(m.Species))
	}
	return nil
}
