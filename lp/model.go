// Copyright 2023 Solverlab Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package lp

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blang/semver/v4"
	"github.com/solverlab/lpform"
	"github.com/solverlab/lpform/logger"
)

// Sense is the optimization direction of an objective.
type Sense uint8

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	switch s {
	case Minimize:
		return "Minimize"
	case Maximize:
		return "Maximize"
	default:
		return fmt.Sprintf("Sense(%d)", uint8(s))
	}
}

// Relation is the relational operator of a constraint.
type Relation uint8

const (
	Eq Relation = iota
	Le
	Ge
)

func (op Relation) String() string {
	switch op {
	case Eq:
		return "="
	case Le:
		return "<="
	case Ge:
		return ">="
	default:
		return fmt.Sprintf("Relation(%d)", uint8(op))
	}
}

func (op Relation) isValid() bool {
	return op <= Ge
}

// Objective is the linear function being minimized or maximized.
type Objective struct {
	Sense Sense
	L     LinearExpression
}

// Constraint restricts the feasible variable values to those satisfying
// L Op rhs, where the right-hand-side scalar is the interned coefficient RHS.
// A constraint carries exactly one relational operator and one right-hand
// side.
type Constraint struct {
	Name string
	L    LinearExpression
	Op   Relation
	RHS  uint32
}

// ErrFrozen is returned by mutating calls on a frozen model.
var ErrFrozen = errors.New("model is frozen")

// Model is a complete linear-programming instance: a variable table, an
// interned coefficient table, a directed objective and an ordered list of
// named constraints.
//
// A Model is built through AddVariable / SetObjective / AddConstraint, then
// frozen. Once frozen it is read-only; consumers (the LP writer, the binary
// codec) only ever observe an immutable instance.
type Model struct {
	// serialization header
	FormatVersion string

	Name string

	Variables   []string
	Objective   Objective
	Constraints []Constraint

	// interned coefficient table. Ids CoeffIdZero, CoeffIdOne and
	// CoeffIdMinusOne are reserved and always present.
	Coefficients []big.Rat

	coeffMap     map[string]uint32
	varMap       map[string]uint32
	conMap       map[string]struct{}
	hasObjective bool
	frozen       bool
}

// NewModel initializes an empty instance with the reserved coefficients set.
// capacity is a hint on the number of variables.
func NewModel(name string, capacity int) *Model {
	m := Model{
		FormatVersion: lpform.Version.String(),
		Name:          name,
		Variables:     make([]string, 0, capacity),
		Coefficients:  make([]big.Rat, 0, capacity+3),
		coeffMap:      make(map[string]uint32, capacity+3),
		varMap:        make(map[string]uint32, capacity),
		conMap:        make(map[string]struct{}),
	}
	for _, v := range []int64{0, 1, -1} {
		m.addCoeff(new(big.Rat).SetInt64(v))
	}
	return &m
}

func (m *Model) ensureMutable() error {
	if m.frozen {
		return ErrFrozen
	}
	return nil
}

// AddVariable appends a named decision variable and returns its id.
// Variables are implicitly non-negative.
func (m *Model) AddVariable(name string) (int, error) {
	if err := m.ensureMutable(); err != nil {
		return -1, err
	}
	if name == "" {
		return -1, errors.New("empty variable name")
	}
	if _, ok := m.varMap[name]; ok {
		return -1, fmt.Errorf("variable %q already declared", name)
	}
	vID := len(m.Variables)
	m.Variables = append(m.Variables, name)
	m.varMap[name] = uint32(vID)
	return vID, nil
}

// VariableID returns the id of a declared variable.
func (m *Model) VariableID(name string) (int, bool) {
	vID, ok := m.varMap[name]
	return int(vID), ok
}

// AddCoeff interns a coefficient and returns its id. The model will not store
// duplicates. Like every mutating call it errors on a frozen model: interning
// grows the coefficient table.
func (m *Model) AddCoeff(coeff *big.Rat) (uint32, error) {
	if err := m.ensureMutable(); err != nil {
		return 0, err
	}
	return m.addCoeff(coeff), nil
}

func (m *Model) addCoeff(coeff *big.Rat) uint32 {
	key := coeff.RatString()
	if cID, ok := m.coeffMap[key]; ok {
		return cID
	}
	cID := uint32(len(m.Coefficients))
	m.Coefficients = append(m.Coefficients, *new(big.Rat).Set(coeff))
	m.coeffMap[key] = cID
	return cID
}

// MakeTerm returns a new Term coeff * variable. The coefficient is interned,
// so calls to this function may grow the coefficient table.
func (m *Model) MakeTerm(coeff *big.Rat, vID int) (Term, error) {
	if err := m.ensureMutable(); err != nil {
		return Term{}, err
	}
	return Term{CID: m.addCoeff(coeff), VID: uint32(vID)}, nil
}

// SetObjective sets the single objective of the instance.
func (m *Model) SetObjective(sense Sense, l LinearExpression) error {
	if err := m.ensureMutable(); err != nil {
		return err
	}
	if m.hasObjective {
		return errors.New("objective already set")
	}
	if len(l) == 0 {
		return errors.New("empty objective")
	}
	m.Objective = Objective{Sense: sense, L: l}
	m.hasObjective = true
	return nil
}

// AddConstraint appends a named constraint l op rhs and returns its id.
func (m *Model) AddConstraint(name string, l LinearExpression, op Relation, rhs *big.Rat) (int, error) {
	if err := m.ensureMutable(); err != nil {
		return -1, err
	}
	if name == "" {
		return -1, errors.New("empty constraint name")
	}
	if _, ok := m.conMap[name]; ok {
		return -1, fmt.Errorf("constraint %q already declared", name)
	}
	if !op.isValid() {
		return -1, fmt.Errorf("constraint %q: invalid relational operator", name)
	}
	if len(l) == 0 {
		return -1, fmt.Errorf("constraint %q: empty expression", name)
	}
	cID := len(m.Constraints)
	m.Constraints = append(m.Constraints, Constraint{
		Name: name,
		L:    l,
		Op:   op,
		RHS:  m.addCoeff(rhs),
	})
	m.conMap[name] = struct{}{}
	return cID, nil
}

// Freeze marks the instance read-only. Mutating calls error afterwards.
func (m *Model) Freeze() {
	m.frozen = true
}

// IsFrozen returns true if the instance is read-only.
func (m *Model) IsFrozen() bool {
	return m.frozen
}

// GetNbVariables returns the number of declared decision variables.
func (m *Model) GetNbVariables() int {
	return len(m.Variables)
}

// GetNbConstraints returns the number of constraints.
func (m *Model) GetNbConstraints() int {
	return len(m.Constraints)
}

// GetNbCoefficients returns the number of interned coefficients, reserved
// ones included.
func (m *Model) GetNbCoefficients() int {
	return len(m.Coefficients)
}

// CoeffToString implements Resolver.
func (m *Model) CoeffToString(cID int) string {
	if cID < 0 || cID >= len(m.Coefficients) {
		return fmt.Sprintf("<coeff %d>", cID)
	}
	return m.Coefficients[cID].RatString()
}

// VariableToString implements Resolver.
func (m *Model) VariableToString(vID int) string {
	if vID < 0 || vID >= len(m.Variables) {
		return fmt.Sprintf("<var %d>", vID)
	}
	return m.Variables[vID]
}

func (m *Model) String() string {
	sbb := NewStringBuilder(m)
	sbb.WriteString(m.Objective.Sense.String())
	sbb.WriteString(" ")
	sbb.WriteLinearExpression(m.Objective.L)
	for i := range m.Constraints {
		sbb.WriteByte('\n')
		sbb.WriteConstraint(m.Constraints[i])
	}
	return sbb.String()
}

// CheckSerializationHeader parses the format version header.
//
// This is meant to be used at the deserialization step, and will error for
// illegal values.
func (m *Model) CheckSerializationHeader() error {
	binaryVersion := lpform.Version
	objectVersion, err := semver.Parse(m.FormatVersion)
	if err != nil {
		return fmt.Errorf("when parsing format version: %w", err)
	}

	if binaryVersion.Compare(objectVersion) != 0 {
		log := logger.Logger()
		log.Warn().Str("binary", binaryVersion.String()).Str("object", objectVersion.String()).Msg("lpform version (binary) mismatch with serialized model. there are no guarantees on compatibility")
	}

	return nil
}

// rebuildMaps reconstructs the lookup tables after deserialization.
func (m *Model) rebuildMaps() {
	m.coeffMap = make(map[string]uint32, len(m.Coefficients))
	for i := range m.Coefficients {
		m.coeffMap[m.Coefficients[i].RatString()] = uint32(i)
	}
	m.varMap = make(map[string]uint32, len(m.Variables))
	for i, name := range m.Variables {
		m.varMap[name] = uint32(i)
	}
	m.conMap = make(map[string]struct{}, len(m.Constraints))
	for i := range m.Constraints {
		m.conMap[m.Constraints[i].Name] = struct{}{}
	}
	m.hasObjective = len(m.Objective.L) > 0
}
