// Copyright 2023 Solverlab Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package lp

import (
	"fmt"
	"math/big"
)

// ids of the coefficients with simple values in any model's coefficient table.
const (
	CoeffIdZero     = 0
	CoeffIdOne      = 1
	CoeffIdMinusOne = 2
)

// RatFromInterface converts a coefficient provided in a supported Go type to
// an exact rational. Floats are converted through their exact binary value.
func RatFromInterface(v interface{}) (*big.Rat, error) {
	r := new(big.Rat)
	switch c := v.(type) {
	case int:
		r.SetInt64(int64(c))
	case int64:
		r.SetInt64(c)
	case uint64:
		r.SetUint64(c)
	case float64:
		if r.SetFloat64(c) == nil {
			return nil, fmt.Errorf("coefficient is not finite: %v", c)
		}
	case string:
		if _, ok := r.SetString(c); !ok {
			return nil, fmt.Errorf("can't parse coefficient %q", c)
		}
	case big.Rat:
		r.Set(&c)
	case *big.Rat:
		if c == nil {
			return nil, fmt.Errorf("nil coefficient")
		}
		r.Set(c)
	case *big.Int:
		if c == nil {
			return nil, fmt.Errorf("nil coefficient")
		}
		r.SetInt(c)
	default:
		return nil, fmt.Errorf("unsupported coefficient type %T", v)
	}
	return r, nil
}
