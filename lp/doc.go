// Package lp defines the in-memory representation of a linear-programming
// instance: interned coefficients, terms, linear expressions, a directed
// objective and named relational constraints.
//
// A Model is authored once, frozen, and read-only thereafter. It is pure
// data; solving is the business of an external LP engine consuming the
// serialized instance.
package lp
