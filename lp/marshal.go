// Copyright 2023 Solverlab Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package lp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"github.com/solverlab/lpform/internal/ioutils"
)

const headerLen = 2 * 8

type header struct {
	// length in bytes of each section
	termsLen uint64
	bodyLen  uint64
}

func (h *header) toBytes() []byte {
	buf := make([]byte, 0, headerLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.termsLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.bodyLen)
	return buf
}

func (h *header) fromBytes(buf []byte) {
	h.termsLen = binary.LittleEndian.Uint64(buf[:8])
	h.bodyLen = binary.LittleEndian.Uint64(buf[8:16])
}

// serializedModel is the CBOR body of a serialized instance; the term streams
// of the objective and constraint expressions travel in a separate
// integer-compressed section.
type serializedModel struct {
	FormatVersion string
	Name          string
	Variables     []string
	Sense         Sense
	Constraints   []serializedConstraint
	Coefficients  []string
}

type serializedConstraint struct {
	Name string
	Op   Relation
	RHS  uint32
}

// ToBytes serializes the instance to a byte slice.
//
// We prepare and write 2 distinct blocks of data: the expression term streams
// (sequential small integers, which compress very well) and a deterministic
// CBOR body for everything else.
func (m *Model) ToBytes() ([]byte, error) {
	var terms []byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		terms, err = m.termsToBytes()
		return err
	})
	body, err := m.bodyToBytes()
	if err != nil {
		return nil, err
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	h := header{
		termsLen: uint64(len(terms)),
		bodyLen:  uint64(len(body)),
	}
	buf := h.toBytes()
	buf = append(buf, terms...)
	buf = append(buf, body...)
	return buf, nil
}

// FromBytes deserializes the instance from a byte slice and returns the
// number of bytes read.
func (m *Model) FromBytes(data []byte) (int, error) {
	if len(data) < headerLen {
		return 0, errors.New("invalid data length")
	}
	h := new(header)
	h.fromBytes(data)

	// bound each section against the remaining bytes separately; summing the
	// header lengths could wrap around
	rest := uint64(len(data)) - headerLen
	if h.termsLen > rest || h.bodyLen > rest-h.termsLen {
		return 0, errors.New("invalid section lengths")
	}

	dm, err := cbor.DecOptions{
		MaxArrayElements: 2147483647,
		MaxMapPairs:      2147483647,
	}.DecMode()
	if err != nil {
		return 0, err
	}

	var stream []uint32
	var g errgroup.Group
	g.Go(func() error {
		_, s, err := ioutils.ReadAndDecompressUints32(bytes.NewReader(data[headerLen : headerLen+h.termsLen]))
		stream = s
		return err
	})

	var body serializedModel
	decodeErr := dm.Unmarshal(data[headerLen+h.termsLen:headerLen+h.termsLen+h.bodyLen], &body)

	// the section goroutine slices into data; never return before it is done
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if decodeErr != nil {
		return 0, decodeErr
	}

	if err := m.fromSerialized(&body, stream); err != nil {
		return 0, err
	}
	if err := m.CheckSerializationHeader(); err != nil {
		return 0, err
	}

	return headerLen + int(h.termsLen) + int(h.bodyLen), nil
}

// WriteTo implements io.WriterTo on a frozen instance.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	buf, err := m.ToBytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom implements io.ReaderFrom; the decoded instance is frozen.
func (m *Model) ReadFrom(r io.Reader) (int64, error) {
	hdr := make([]byte, headerLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return 0, err
	}
	h := new(header)
	h.fromBytes(hdr)

	if h.termsLen > math.MaxInt64-h.bodyLen {
		return int64(headerLen), errors.New("invalid section lengths")
	}

	// grow with the bytes actually read; the header lengths are untrusted and
	// must not size an upfront allocation
	var buf bytes.Buffer
	buf.Write(hdr)
	if _, err := io.CopyN(&buf, r, int64(h.termsLen+h.bodyLen)); err != nil {
		return int64(buf.Len()), err
	}
	n, err := m.FromBytes(buf.Bytes())
	return int64(n), err
}

func (m *Model) termsToBytes() ([]byte, error) {
	stream := make([]uint32, 0, 2*len(m.Objective.L)+1)
	m.Objective.L.Compress(&stream)
	for i := range m.Constraints {
		m.Constraints[i].L.Compress(&stream)
	}

	var buf bytes.Buffer
	buf.Grow(4 * len(stream))
	if _, err := ioutils.CompressAndWriteUints32(&buf, stream, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Model) bodyToBytes() ([]byte, error) {
	body := serializedModel{
		FormatVersion: m.FormatVersion,
		Name:          m.Name,
		Variables:     m.Variables,
		Sense:         m.Objective.Sense,
		Constraints:   make([]serializedConstraint, len(m.Constraints)),
		Coefficients:  make([]string, len(m.Coefficients)),
	}
	for i := range m.Constraints {
		body.Constraints[i] = serializedConstraint{
			Name: m.Constraints[i].Name,
			Op:   m.Constraints[i].Op,
			RHS:  m.Constraints[i].RHS,
		}
	}
	for i := range m.Coefficients {
		body.Coefficients[i] = m.Coefficients[i].RatString()
	}

	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return enc.Marshal(&body)
}

func (m *Model) fromSerialized(body *serializedModel, stream []uint32) error {
	m.FormatVersion = body.FormatVersion
	m.Name = body.Name
	m.Variables = body.Variables

	m.Coefficients = make([]big.Rat, len(body.Coefficients))
	for i, s := range body.Coefficients {
		if _, ok := m.Coefficients[i].SetString(s); !ok {
			return fmt.Errorf("can't parse serialized coefficient %q", s)
		}
	}

	objL, pos, ok := expandExpression(stream, 0)
	if !ok {
		return errors.New("truncated term stream")
	}
	m.Objective = Objective{Sense: body.Sense, L: objL}

	m.Constraints = make([]Constraint, len(body.Constraints))
	for i := range body.Constraints {
		var l LinearExpression
		l, pos, ok = expandExpression(stream, pos)
		if !ok {
			return errors.New("truncated term stream")
		}
		m.Constraints[i] = Constraint{
			Name: body.Constraints[i].Name,
			L:    l,
			Op:   body.Constraints[i].Op,
			RHS:  body.Constraints[i].RHS,
		}
	}
	if pos != len(stream) {
		return errors.New("trailing data in term stream")
	}

	m.rebuildMaps()
	m.frozen = true
	return nil
}
