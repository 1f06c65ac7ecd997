// Copyright 2023 Solverlab Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package lp

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/solverlab/lpform/logger"
)

var (
	// ErrMissingObjective is returned when the instance has no objective.
	ErrMissingObjective = errors.New("missing objective")

	// ErrUnknownVariable is returned when an expression references a variable
	// id outside the variable table.
	ErrUnknownVariable = errors.New("expression references an undeclared variable")

	// ErrUnknownCoeff is returned when a term or right-hand side references a
	// coefficient id outside the coefficient table.
	ErrUnknownCoeff = errors.New("expression references an unknown coefficient")

	// ErrDuplicateTerm is returned when a variable is referenced twice in the
	// same expression; the coefficient count of an expression must match the
	// number of distinct referenced variables.
	ErrDuplicateTerm = errors.New("variable referenced twice in one expression")

	// ErrZeroCoeffTerm is returned when an expression carries a term with a
	// zero coefficient.
	ErrZeroCoeffTerm = errors.New("expression carries a zero coefficient term")

	// ErrVariableCoverage is returned when the objective and the constraints
	// do not reference the same variable set: every variable appearing in any
	// constraint must appear in the objective, and vice versa.
	ErrVariableCoverage = errors.New("objective and constraints reference different variables")
)

// Validate checks the internal consistency of the instance:
//   - reserved coefficient ids hold their values
//   - variable and constraint names are non-empty and unique
//   - each constraint has exactly one valid relational operator and one
//     right-hand side, and a non-empty expression
//   - expressions reference declared variables and interned coefficients,
//     each variable at most once, never with a zero coefficient
//   - the objective and the union of the constraints cover the same variables
//
// A declared variable referenced nowhere is reported as a warning through the
// package logger, not as an error.
func (m *Model) Validate() error {
	if err := m.validateTables(); err != nil {
		return err
	}

	nbVars := uint(len(m.Variables))
	inObjective := bitset.New(nbVars)
	inConstraints := bitset.New(nbVars)

	if !m.hasObjective && len(m.Objective.L) == 0 {
		return ErrMissingObjective
	}
	if err := m.validateExpression(m.Objective.L, inObjective); err != nil {
		return fmt.Errorf("objective: %w", err)
	}

	seenNames := make(map[string]struct{}, len(m.Constraints))
	for i := range m.Constraints {
		c := &m.Constraints[i]
		if c.Name == "" {
			return fmt.Errorf("constraint %d: empty name", i)
		}
		if _, ok := seenNames[c.Name]; ok {
			return fmt.Errorf("constraint %q declared twice", c.Name)
		}
		seenNames[c.Name] = struct{}{}
		if !c.Op.isValid() {
			return fmt.Errorf("constraint %q: invalid relational operator", c.Name)
		}
		if int(c.RHS) >= len(m.Coefficients) {
			return fmt.Errorf("constraint %q right-hand side: %w", c.Name, ErrUnknownCoeff)
		}
		if len(c.L) == 0 {
			return fmt.Errorf("constraint %q: empty expression", c.Name)
		}
		if err := m.validateExpression(c.L, inConstraints); err != nil {
			return fmt.Errorf("constraint %q: %w", c.Name, err)
		}
	}

	if diff := inObjective.SymmetricDifference(inConstraints); diff.Any() {
		vID, _ := diff.NextSet(0)
		return fmt.Errorf("%w: variable %q", ErrVariableCoverage, m.VariableToString(int(vID)))
	}

	if covered := inObjective.Count(); covered != nbVars {
		log := logger.Logger()
		log.Warn().Uint("declared", nbVars).Uint("referenced", covered).Str("model", m.Name).Msg("model declares variables it never references")
	}

	return nil
}

func (m *Model) validateTables() error {
	if len(m.Coefficients) < 3 {
		return errors.New("coefficient table is missing the reserved entries")
	}
	for cID, want := range map[int]int64{CoeffIdZero: 0, CoeffIdOne: 1, CoeffIdMinusOne: -1} {
		if !m.Coefficients[cID].IsInt() || m.Coefficients[cID].Num().Int64() != want {
			return fmt.Errorf("reserved coefficient %d holds %s", cID, m.Coefficients[cID].RatString())
		}
	}
	seen := make(map[string]struct{}, len(m.Variables))
	for i, name := range m.Variables {
		if name == "" {
			return fmt.Errorf("variable %d: empty name", i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("variable %q declared twice", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// validateExpression checks a single linear expression and records every
// referenced variable in covered.
func (m *Model) validateExpression(l LinearExpression, covered *bitset.BitSet) error {
	local := bitset.New(uint(len(m.Variables)))
	for _, t := range l {
		if t.VarID() >= len(m.Variables) {
			return fmt.Errorf("%w: id %d", ErrUnknownVariable, t.VarID())
		}
		if t.CoeffID() >= len(m.Coefficients) {
			return fmt.Errorf("%w: id %d", ErrUnknownCoeff, t.CoeffID())
		}
		if t.CID == CoeffIdZero {
			return fmt.Errorf("%w: variable %q", ErrZeroCoeffTerm, m.VariableToString(t.VarID()))
		}
		if local.Test(uint(t.VID)) {
			return fmt.Errorf("%w: variable %q", ErrDuplicateTerm, m.VariableToString(t.VarID()))
		}
		local.Set(uint(t.VID))
		covered.Set(uint(t.VID))
	}
	return nil
}
