// Package lpform provides an in-memory representation of linear-programming
// problem instances and high level APIs to author, validate and serialize them.
//
// An instance built with lpform is declarative data: a linear objective, a set
// of named linear constraints and the variables they reference. It carries no
// solving logic; the rendered artifact is handed to an external LP solver
// (simplex or interior point) through its input-file interface.
//
// lpform ships with:
//   - lp: the core instance model (terms, linear expressions, constraints)
//   - builder: a small authoring front end that compiles to a frozen lp.Model
//   - lpwriter: a deterministic CPLEX-style LP text renderer
package lpform

import (
	"github.com/blang/semver/v4"
)

// Version of the lpform library and of its binary serialization format.
var Version = semver.MustParse("0.3.1")
