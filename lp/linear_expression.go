// Copyright 2023 Solverlab Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package lp

// A LinearExpression is a linear combination of Term
type LinearExpression []Term

// Clone returns a copy of the underlying slice
func (l LinearExpression) Clone() LinearExpression {
	res := make(LinearExpression, len(l))
	copy(res, l)
	return res
}

func (l LinearExpression) String(r Resolver) string {
	sbb := NewStringBuilder(r)
	sbb.WriteLinearExpression(l)
	return sbb.String()
}

// Compress appends the expression to the given []uint32 stream as
// len, (CID, VID)*.
func (l LinearExpression) Compress(to *[]uint32) {
	(*to) = append((*to), uint32(len(l)))
	for i := 0; i < len(l); i++ {
		(*to) = append((*to), l[i].CID, l[i].VID)
	}
}

// expandExpression reads one expression back from a []uint32 stream written
// with Compress and returns it with the new stream offset.
func expandExpression(in []uint32, pos int) (LinearExpression, int, bool) {
	if pos >= len(in) {
		return nil, pos, false
	}
	n := int(in[pos])
	pos++
	if pos+2*n > len(in) {
		return nil, pos, false
	}
	l := make(LinearExpression, n)
	for i := 0; i < n; i++ {
		l[i] = Term{CID: in[pos], VID: in[pos+1]}
		pos += 2
	}
	return l, pos, true
}
