package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Clevis/internal/material"
	"Clevis/internal/thread"
	"Clevis/internal/units"
)

func testSpec(t *testing.T, reg *units.Registry, designation string) *thread.Spec {
	t.Helper()
	spec, err := thread.NewResolver(reg).Parse(designation)
	require.NoError(t, err)
	return spec
}

func TestNewFastener(t *testing.T) {
	reg := units.NewRegistry()
	spec := testSpec(t, reg, "1/2-13 UNC")
	steel := material.GenericSteel(reg)

	f, err := NewFastener(spec,
		reg.MustNew(1.5, "in"), reg.MustNew(1.0, "in"),
		reg.MustNew(0.75, "in"), reg.MustNew(0.3125, "in"),
		false, "3/8 hex", steel)
	require.NoError(t, err)
	assert.False(t, f.FlatHead())
	assert.Equal(t, "3/8 hex", f.ToolSize())
	assert.Same(t, spec, f.Thread())

	// The fastener satisfies the Threaded capability.
	var _ Threaded = f
}

func TestNewFastenerRejectsBadGeometry(t *testing.T) {
	reg := units.NewRegistry()
	spec := testSpec(t, reg, "1/2-13 UNC")
	steel := material.GenericSteel(reg)

	cases := []struct {
		name                           string
		length, tlen, headDia, headHgt units.Quantity
	}{
		{"threaded longer than body", reg.MustNew(1.0, "in"), reg.MustNew(1.5, "in"), reg.MustNew(0.75, "in"), reg.MustNew(0.3, "in")},
		{"zero length", reg.MustNew(0, "in"), reg.MustNew(1.0, "in"), reg.MustNew(0.75, "in"), reg.MustNew(0.3, "in")},
		{"head under pitch diameter", reg.MustNew(1.5, "in"), reg.MustNew(1.0, "in"), reg.MustNew(0.4, "in"), reg.MustNew(0.3, "in")},
		{"length wrong dimension", reg.MustNew(1.5, "N"), reg.MustNew(1.0, "in"), reg.MustNew(0.75, "in"), reg.MustNew(0.3, "in")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewFastener(spec, c.length, c.tlen, c.headDia, c.headHgt, false, "", steel)
			assert.Error(t, err)
		})
	}

	_, err := NewFastener(nil, reg.MustNew(1.5, "in"), reg.MustNew(1.0, "in"),
		reg.MustNew(0.75, "in"), reg.MustNew(0.3, "in"), false, "", steel)
	assert.Error(t, err, "missing thread spec")

	_, err = NewFastener(spec, reg.MustNew(1.5, "in"), reg.MustNew(1.0, "in"),
		reg.MustNew(0.75, "in"), reg.MustNew(0.3, "in"), false, "", nil)
	assert.Error(t, err, "missing material")
}

func TestNewNut(t *testing.T) {
	reg := units.NewRegistry()
	spec := testSpec(t, reg, "1/2-13 UNC")
	steel := material.GenericSteel(reg)

	n, err := NewNut(spec, reg.MustNew(0.75, "in"), reg.MustNew(0.4375, "in"), steel)
	require.NoError(t, err)
	// A nut is threaded over its full height.
	assert.InDelta(t, n.Height().SI(), n.ThreadedLength().SI(), 1e-15)

	_, err = NewNut(spec, reg.MustNew(0.4, "in"), reg.MustNew(0.4375, "in"), steel)
	assert.Error(t, err, "width across flats under pitch diameter")
}

func TestNewWasher(t *testing.T) {
	reg := units.NewRegistry()
	steel := material.GenericSteel(reg)

	w, err := NewWasher(reg.MustNew(0.53, "in"), reg.MustNew(1.06, "in"), reg.MustNew(0.095, "in"), steel)
	require.NoError(t, err)
	var _ Clamped = w

	_, err = NewWasher(reg.MustNew(1.06, "in"), reg.MustNew(0.53, "in"), reg.MustNew(0.095, "in"), steel)
	assert.Error(t, err, "inner diameter above outer")

	_, err = NewWasher(reg.MustNew(0.53, "in"), reg.MustNew(0.53, "in"), reg.MustNew(0.095, "in"), steel)
	assert.Error(t, err, "inner diameter equals outer")
}

func TestNewThreadedPlate(t *testing.T) {
	reg := units.NewRegistry()
	spec := testSpec(t, reg, "1/2-13 UNC")
	alu := material.GenericAluminum(reg)

	p, err := NewThreadedPlate(reg.MustNew(1.0, "in"), spec,
		reg.MustNew(0.75, "in"), reg.MustNew(0.53, "in"), alu)
	require.NoError(t, err)

	// A tapped plate is both threaded and clamped.
	var _ Threaded = p
	var _ Clamped = p

	_, err = NewThreadedPlate(reg.MustNew(0.5, "in"), spec,
		reg.MustNew(0.75, "in"), reg.MustNew(0.53, "in"), alu)
	assert.Error(t, err, "engagement longer than plate")

	_, err = NewThreadedPlate(reg.MustNew(1.0, "in"), spec,
		reg.MustNew(0.75, "in"), reg.MustNew(0.4, "in"), alu)
	assert.Error(t, err, "clearance hole under pitch diameter")
}
