package lp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsConsistentModel(t *testing.T) {
	m := buildSmall(t)
	require.NoError(t, m.Validate())
}

func TestValidateRejectsInconsistencies(t *testing.T) {
	testCases := []struct {
		name    string
		corrupt func(m *Model)
		wantErr error
	}{
		{
			name: "missing objective",
			corrupt: func(m *Model) {
				m.Objective.L = nil
				m.hasObjective = false
			},
			wantErr: ErrMissingObjective,
		},
		{
			name: "dangling variable reference",
			corrupt: func(m *Model) {
				m.Constraints[0].L[0].VID = 99
			},
			wantErr: ErrUnknownVariable,
		},
		{
			name: "dangling coefficient reference",
			corrupt: func(m *Model) {
				m.Objective.L[0].CID = 99
			},
			wantErr: ErrUnknownCoeff,
		},
		{
			name: "variable in objective only",
			corrupt: func(m *Model) {
				// drop y from the single constraint
				m.Constraints[0].L = m.Constraints[0].L[:1]
			},
			wantErr: ErrVariableCoverage,
		},
		{
			name: "variable in constraints only",
			corrupt: func(m *Model) {
				m.Objective.L = m.Objective.L[:1]
			},
			wantErr: ErrVariableCoverage,
		},
		{
			name: "zero coefficient term",
			corrupt: func(m *Model) {
				m.Objective.L[0].CID = CoeffIdZero
			},
			wantErr: ErrZeroCoeffTerm,
		},
		{
			name: "variable referenced twice in one expression",
			corrupt: func(m *Model) {
				m.Constraints[0].L[1].VID = m.Constraints[0].L[0].VID
			},
			wantErr: ErrDuplicateTerm,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := buildSmall(t)
			tc.corrupt(m)
			err := m.Validate()
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	assert := require.New(t)

	m := buildSmall(t)
	m.Constraints = append(m.Constraints, Constraint{
		Name: "bound",
		L:    m.Constraints[0].L.Clone(),
		Op:   Le,
		RHS:  m.Constraints[0].RHS,
	})
	assert.ErrorContains(m.Validate(), "declared twice")

	m = buildSmall(t)
	m.Variables[1] = "x"
	assert.ErrorContains(m.Validate(), "declared twice")
}

func TestValidateRejectsCorruptReservedCoefficients(t *testing.T) {
	m := buildSmall(t)
	m.Coefficients[CoeffIdOne].SetInt64(7)
	require.Error(t, m.Validate())
}

func TestValidateRejectsBadConstraintShape(t *testing.T) {
	assert := require.New(t)

	m := buildSmall(t)
	m.Constraints[0].Op = Relation(9)
	assert.ErrorContains(m.Validate(), "relational operator")

	m = buildSmall(t)
	m.Constraints[0].RHS = 99
	assert.ErrorIs(m.Validate(), ErrUnknownCoeff)

	m = buildSmall(t)
	m.Constraints[0].L = nil
	assert.ErrorContains(m.Validate(), "empty expression")
}
