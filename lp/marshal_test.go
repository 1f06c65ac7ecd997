package lp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/solverlab/lpform/logger"
)

var cmpOpts = []cmp.Option{
	cmpopts.IgnoreUnexported(Model{}),
	cmp.Comparer(func(a, b big.Rat) bool { return a.Cmp(&b) == 0 }),
}

func TestRoundTrip(t *testing.T) {
	assert := require.New(t)
	m := buildSmall(t)

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	assert.NoError(err)

	var decoded Model
	_, err = decoded.ReadFrom(&buf)
	assert.NoError(err)

	assert.True(decoded.IsFrozen(), "a deserialized model is read-only")
	assert.NoError(decoded.Validate())
	if diff := cmp.Diff(m, &decoded, cmpOpts...); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	// the decoded model must resolve names the same way
	vID, ok := decoded.VariableID("y")
	assert.True(ok)
	assert.Equal(1, vID)
	assert.Equal(m.String(), decoded.String())
}

func TestSerializationIsDeterministic(t *testing.T) {
	assert := require.New(t)
	m := buildSmall(t)

	a, err := m.ToBytes()
	assert.NoError(err)
	b, err := m.ToBytes()
	assert.NoError(err)
	assert.True(bytes.Equal(a, b))
}

func TestFromBytesRejectsTruncatedData(t *testing.T) {
	assert := require.New(t)
	m := buildSmall(t)

	data, err := m.ToBytes()
	assert.NoError(err)

	var decoded Model
	_, err = decoded.FromBytes(data[:headerLen-1])
	assert.Error(err)
	_, err = decoded.FromBytes(data[:len(data)-1])
	assert.Error(err)
}

func TestFromBytesRejectsCraftedSectionLengths(t *testing.T) {
	assert := require.New(t)

	// a header whose section lengths overflow when summed must be rejected,
	// not sliced
	testCases := []struct {
		name     string
		termsLen uint64
		bodyLen  uint64
	}{
		{"max terms", math.MaxUint64, 0},
		{"max body", 0, math.MaxUint64},
		{"wrapping sum", math.MaxUint64 - 8, 32},
		{"terms beyond data", 64, 0},
		{"body beyond data", 0, 64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := make([]byte, 32)
			binary.LittleEndian.PutUint64(data[0:8], tc.termsLen)
			binary.LittleEndian.PutUint64(data[8:16], tc.bodyLen)

			var decoded Model
			_, err := decoded.FromBytes(data)
			assert.ErrorContains(err, "invalid section lengths")
		})
	}
}

func TestReadFromRejectsCraftedSectionLengths(t *testing.T) {
	assert := require.New(t)

	// ReadFrom must not size an allocation from the header, and must reject
	// lengths whose sum overflows int64
	hdr := make([]byte, 32)
	binary.LittleEndian.PutUint64(hdr[0:8], math.MaxUint64-8)
	binary.LittleEndian.PutUint64(hdr[8:16], 32)

	var decoded Model
	_, err := decoded.ReadFrom(bytes.NewReader(hdr))
	assert.ErrorContains(err, "invalid section lengths")

	// plausible lengths with no bytes behind them surface the short read
	binary.LittleEndian.PutUint64(hdr[0:8], 1<<20)
	binary.LittleEndian.PutUint64(hdr[8:16], 1<<20)
	_, err = decoded.ReadFrom(bytes.NewReader(hdr))
	assert.ErrorIs(err, io.EOF)
}

func TestFromBytesRejectsBadFormatVersion(t *testing.T) {
	assert := require.New(t)
	m := buildSmall(t)
	m.FormatVersion = "not-a-version"

	data, err := m.ToBytes()
	assert.NoError(err)

	var decoded Model
	_, err = decoded.FromBytes(data)
	assert.ErrorContains(err, "format version")
}

func TestFromBytesWarnsOnVersionMismatch(t *testing.T) {
	assert := require.New(t)
	m := buildSmall(t)
	m.FormatVersion = "0.0.1"

	data, err := m.ToBytes()
	assert.NoError(err)

	var logBuf bytes.Buffer
	logger.Set(zerolog.New(&logBuf))
	defer logger.Disable()

	// an older but well-formed format version decodes fine and is surfaced
	// as a warning
	var decoded Model
	_, err = decoded.FromBytes(data)
	assert.NoError(err)
	assert.NoError(decoded.Validate())
	assert.Equal("0.0.1", decoded.FormatVersion)

	assert.Contains(logBuf.String(), "mismatch")
	assert.Contains(logBuf.String(), "0.0.1")
}

// randomModel builds a pseudo-random consistent instance; every variable
// appears in the objective and in at least one constraint.
func randomModel(seed int64, nbVars, nbCons int) *Model {
	rng := rand.New(rand.NewSource(seed))
	m := NewModel(fmt.Sprintf("random-%d", seed), nbVars)

	randCoeff := func() *big.Rat {
		num := int64(rng.Intn(2000) - 1000)
		if num == 0 {
			num = 1
		}
		den := int64(rng.Intn(99) + 1)
		return big.NewRat(num, den)
	}

	mustTerm := func(c *big.Rat, vID int) Term {
		term, err := m.MakeTerm(c, vID)
		if err != nil {
			panic(err)
		}
		return term
	}

	obj := make(LinearExpression, 0, nbVars)
	for i := 0; i < nbVars; i++ {
		vID, err := m.AddVariable(fmt.Sprintf("v%d", i))
		if err != nil {
			panic(err)
		}
		obj = append(obj, mustTerm(randCoeff(), vID))
	}
	if err := m.SetObjective(Sense(rng.Intn(2)), obj); err != nil {
		panic(err)
	}

	for i := 0; i < nbCons; i++ {
		l := make(LinearExpression, 0, nbVars)
		for vID := 0; vID < nbVars; vID++ {
			// always reference every variable in the first constraint so
			// coverage holds whatever the draw
			if i > 0 && rng.Intn(2) == 0 {
				continue
			}
			l = append(l, mustTerm(randCoeff(), vID))
		}
		if len(l) == 0 {
			l = append(l, mustTerm(randCoeff(), rng.Intn(nbVars)))
		}
		if _, err := m.AddConstraint(fmt.Sprintf("c%d", i), l, Relation(rng.Intn(3)), randCoeff()); err != nil {
			panic(err)
		}
	}

	m.Freeze()
	return m
}

func TestRoundTripProp(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	properties.Property("deserialization(serialization(model)) == model", prop.ForAll(
		func(seed int64, nbVars, nbCons int) bool {
			m := randomModel(seed, nbVars, nbCons)
			if err := m.Validate(); err != nil {
				return false
			}

			data, err := m.ToBytes()
			if err != nil {
				return false
			}
			var decoded Model
			n, err := decoded.FromBytes(data)
			if err != nil || n != len(data) {
				return false
			}
			return cmp.Equal(m, &decoded, cmpOpts...)
		},
		gen.Int64(),
		gen.IntRange(1, 12),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
