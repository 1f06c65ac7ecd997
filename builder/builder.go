// Copyright 2023 Solverlab Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package builder is the authoring front end for lp instances.
//
// A Builder accumulates variable declarations, one objective and named
// constraints, then Compile validates everything and returns a frozen
// lp.Model. Errors are recorded as the instance is described and surfaced at
// Compile time, so call sites can chain declarations without per-call error
// plumbing.
package builder

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/solverlab/lpform/logger"
	"github.com/solverlab/lpform/lp"
)

// Variable is a handle on a declared decision variable.
type Variable struct {
	vID   int
	valid bool
}

// Expr is a linear combination of declared variables under construction.
type Expr struct {
	terms []exprTerm
}

type exprTerm struct {
	coeff *big.Rat
	v     Variable
}

// Builder accumulates the description of an LP instance.
type Builder struct {
	m   *lp.Model
	err error
}

// New returns a Builder for an instance with the given name.
func New(name string) *Builder {
	return &Builder{m: lp.NewModel(name, 8)}
}

func (b *Builder) recordError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Var declares a named decision variable. Variables are implicitly
// non-negative.
func (b *Builder) Var(name string) Variable {
	vID, err := b.m.AddVariable(name)
	if err != nil {
		b.recordError(err)
		return Variable{}
	}
	return Variable{vID: vID, valid: true}
}

// Term returns a single-term expression coeff * v. Zero coefficients yield an
// empty expression; the term count of a compiled expression always matches
// its distinct referenced variables.
func (b *Builder) Term(coeff interface{}, v Variable) Expr {
	var e Expr
	return b.addTerm(e, coeff, v)
}

// Sum returns an expression with unit coefficients over the given variables.
func (b *Builder) Sum(vs ...Variable) Expr {
	var e Expr
	one := new(big.Rat).SetInt64(1)
	for _, v := range vs {
		e = b.addTerm(e, one, v)
	}
	return e
}

// Add appends coeff * v to the expression and returns it.
func (b *Builder) Add(e Expr, coeff interface{}, v Variable) Expr {
	return b.addTerm(e, coeff, v)
}

func (b *Builder) addTerm(e Expr, coeff interface{}, v Variable) Expr {
	if !v.valid {
		b.recordError(errors.New("term references an undeclared variable"))
		return e
	}
	r, err := lp.RatFromInterface(coeff)
	if err != nil {
		b.recordError(err)
		return e
	}
	if r.Sign() == 0 {
		return e
	}
	e.terms = append(e.terms, exprTerm{coeff: r, v: v})
	return e
}

// Minimize sets the objective to minimize e.
func (b *Builder) Minimize(e Expr) {
	b.setObjective(lp.Minimize, e)
}

// Maximize sets the objective to maximize e.
func (b *Builder) Maximize(e Expr) {
	b.setObjective(lp.Maximize, e)
}

func (b *Builder) setObjective(sense lp.Sense, e Expr) {
	if err := b.m.SetObjective(sense, b.compileExpr(e)); err != nil {
		b.recordError(err)
	}
}

// Eq adds the named constraint e = rhs.
func (b *Builder) Eq(name string, e Expr, rhs interface{}) {
	b.addConstraint(name, e, lp.Eq, rhs)
}

// Le adds the named constraint e <= rhs.
func (b *Builder) Le(name string, e Expr, rhs interface{}) {
	b.addConstraint(name, e, lp.Le, rhs)
}

// Ge adds the named constraint e >= rhs.
func (b *Builder) Ge(name string, e Expr, rhs interface{}) {
	b.addConstraint(name, e, lp.Ge, rhs)
}

func (b *Builder) addConstraint(name string, e Expr, op lp.Relation, rhs interface{}) {
	r, err := lp.RatFromInterface(rhs)
	if err != nil {
		b.recordError(fmt.Errorf("constraint %q: %w", name, err))
		return
	}
	if _, err := b.m.AddConstraint(name, b.compileExpr(e), op, r); err != nil {
		b.recordError(err)
	}
}

func (b *Builder) compileExpr(e Expr) lp.LinearExpression {
	l := make(lp.LinearExpression, 0, len(e.terms))
	for _, t := range e.terms {
		term, err := b.m.MakeTerm(t.coeff, t.v.vID)
		if err != nil {
			b.recordError(err)
			return nil
		}
		l = append(l, term)
	}
	return l
}

// Compile validates the accumulated instance and returns it frozen. After
// Compile the builder must not be reused.
func (b *Builder) Compile() (*lp.Model, error) {
	log := logger.Logger().With().Str("model", b.m.Name).Logger()
	start := time.Now()

	if b.err != nil {
		return nil, b.err
	}
	b.m.Freeze()
	if err := b.m.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Int("nbVariables", b.m.GetNbVariables()).
		Int("nbConstraints", b.m.GetNbConstraints()).
		Int("nbCoefficients", b.m.GetNbCoefficients()).
		Dur("took", time.Since(start)).
		Msg("compiled LP instance")
	return b.m, nil
}
