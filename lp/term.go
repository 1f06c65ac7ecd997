// Copyright 2023 Solverlab Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package lp

// Term represents a coeff * variable product in a linear expression.
// Both fields are indices: CID points into the model's interned coefficient
// table, VID into its variable table.
type Term struct {
	CID, VID uint32
}

// CoeffID returns the index of the term coefficient in the coefficient table.
func (t Term) CoeffID() int {
	return int(t.CID)
}

// VarID returns the index of the term variable in the variable table.
func (t Term) VarID() int {
	return int(t.VID)
}
