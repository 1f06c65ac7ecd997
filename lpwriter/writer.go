// Copyright 2023 Solverlab Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package lpwriter renders a frozen lp.Model to the CPLEX-style LP plain-text
// format: comment lines, a Minimize/Maximize section, a Subject To section of
// named constraints and the End marker. Variables are emitted as x(Name)
// tokens with signed coefficient lists.
//
// Output is deterministic: variable and constraint order is the declaration
// order of the model, and coefficients are printed in exact decimal form
// whenever the denominator allows it.
package lpwriter

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/solverlab/lpform/lp"
)

// maxLineLen bounds emitted lines; long expressions continue on the next
// line. CPLEX readers cap input lines at 510 bytes.
const maxLineLen = 255

type config struct {
	comments []string
}

// Option configures the writer.
type Option func(*config)

// WithComment prepends comment lines to the output.
func WithComment(lines ...string) Option {
	return func(c *config) {
		c.comments = append(c.comments, lines...)
	}
}

// Write validates m and renders it to w.
func Write(w io.Writer, m *lp.Model, opts ...Option) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("can't write inconsistent model: %w", err)
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	bw := bufio.NewWriter(w)
	if m.Name != "" {
		fmt.Fprintf(bw, "\\ Problem: %s\n", m.Name)
	}
	for _, line := range cfg.comments {
		fmt.Fprintf(bw, "\\ %s\n", line)
	}

	bw.WriteString(m.Objective.Sense.String())
	bw.WriteByte('\n')
	writeExpression(bw, m, "obj", m.Objective.L, "", "")

	bw.WriteString("Subject To\n")
	for i := range m.Constraints {
		c := &m.Constraints[i]
		rhs := m.Coefficients[c.RHS]
		writeExpression(bw, m, c.Name, c.L, c.Op.String(), formatRat(&rhs))
	}

	bw.WriteString("End\n")
	return bw.Flush()
}

// writeExpression emits one labeled row, wrapping long coefficient lists.
// op and rhs are empty for the objective row.
func writeExpression(bw *bufio.Writer, m *lp.Model, label string, l lp.LinearExpression, op, rhs string) {
	lineLen := 0
	emit := func(tok string) {
		if lineLen > 0 && lineLen+1+len(tok) > maxLineLen {
			bw.WriteString("\n  ")
			lineLen = 2
		} else if lineLen > 0 {
			bw.WriteByte(' ')
			lineLen++
		}
		bw.WriteString(tok)
		lineLen += len(tok)
	}

	emit(" " + label + ":")
	for i, t := range l {
		coeff := m.Coefficients[t.CoeffID()]
		neg := coeff.Sign() < 0
		abs := new(big.Rat).Abs(&coeff)

		if neg {
			emit("-")
		} else if i > 0 {
			emit("+")
		}
		if abs.Cmp(ratOne) != 0 {
			emit(formatRat(abs))
		}
		emit("x(" + m.VariableToString(t.VarID()) + ")")
	}
	if op != "" {
		emit(op)
		emit(rhs)
	}
	bw.WriteByte('\n')
}

var ratOne = new(big.Rat).SetInt64(1)

var (
	intTwo  = big.NewInt(2)
	intFive = big.NewInt(5)
)

// formatRat prints a rational in LP-grammar decimal notation. The expansion
// is exact when the denominator is of the form 2^a * 5^b; otherwise the value
// is rounded to 12 decimal places.
func formatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}

	d := new(big.Int).Set(r.Denom())
	prec := 0
	for _, p := range []*big.Int{intTwo, intFive} {
		for new(big.Int).Mod(d, p).Sign() == 0 {
			d.Div(d, p)
			prec++
		}
	}
	if d.Cmp(big.NewInt(1)) != 0 {
		// non-terminating expansion
		prec = 12
	}

	s := r.FloatString(prec)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
