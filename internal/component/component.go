// Package component models the parts of a bolted-joint assembly: fasteners,
// nuts, washers, plates and threaded plates.
//
// Parts are polymorphic over the capability set {Threaded, Clamped} rather
// than a type hierarchy: a ThreadedPlate satisfies both interfaces, and
// assembly code queries capability presence with type assertions.
package component

import (
	"fmt"

	"Clevis/internal/material"
	"Clevis/internal/thread"
	"Clevis/internal/units"
)

// ValidationError reports a violated geometric invariant.
type ValidationError struct {
	Component string
	Msg       string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Component, e.Msg)
}

// Threaded is a component carrying threads that can engage a fastener.
type Threaded interface {
	Thread() *thread.Spec
	ThreadedLength() units.Quantity
	Material() *material.Material
}

// Clamped is a component squeezed inside the joint grip.
type Clamped interface {
	Thickness() units.Quantity
	Material() *material.Material
}

func checkLength(component string, name string, q units.Quantity) error {
	if err := units.CheckDim(q, units.Length, name); err != nil {
		return err
	}
	if q.SI() <= 0 {
		return &ValidationError{component, name + " must be positive"}
	}
	return nil
}

// Fastener is a threaded bolt or screw.
type Fastener struct {
	spec           *thread.Spec
	length         units.Quantity
	threadedLength units.Quantity
	headDiameter   units.Quantity
	headHeight     units.Quantity
	flatHead       bool
	toolSize       string
	mat            *material.Material
}

// NewFastener validates geometry and builds a Fastener. Flat (countersunk)
// heads change the joint configuration classification.
func NewFastener(spec *thread.Spec, length, threadedLength, headDiameter, headHeight units.Quantity,
	flatHead bool, toolSize string, mat *material.Material) (*Fastener, error) {
	if spec == nil {
		return nil, &ValidationError{"fastener", "thread specification is required"}
	}
	if mat == nil {
		return nil, &ValidationError{"fastener", "material is required"}
	}
	for name, q := range map[string]units.Quantity{
		"length":          length,
		"threaded length": threadedLength,
		"head diameter":   headDiameter,
		"head height":     headHeight,
	} {
		if err := checkLength("fastener", name, q); err != nil {
			return nil, err
		}
	}
	if length.SI() < threadedLength.SI() {
		return nil, &ValidationError{"fastener", "length must be at least the threaded length"}
	}
	if headDiameter.SI() <= spec.PitchDiameter.SI() {
		return nil, &ValidationError{"fastener", "head diameter must exceed pitch diameter"}
	}
	return &Fastener{
		spec:           spec,
		length:         length,
		threadedLength: threadedLength,
		headDiameter:   headDiameter,
		headHeight:     headHeight,
		flatHead:       flatHead,
		toolSize:       toolSize,
		mat:            mat,
	}, nil
}

func (f *Fastener) Thread() *thread.Spec { return f.spec }
func (f *Fastener) Length() units.Quantity { return f.length }
func (f *Fastener) ThreadedLength() units.Quantity { return f.threadedLength }
func (f *Fastener) HeadDiameter() units.Quantity { return f.headDiameter }
func (f *Fastener) HeadHeight() units.Quantity { return f.headHeight }
func (f *Fastener) FlatHead() bool { return f.flatHead }
func (f *Fastener) ToolSize() string { return f.toolSize }
func (f *Fastener) Material() *material.Material { return f.mat }

// Nut is the threaded member of a through-bolt joint.
type Nut struct {
	spec            *thread.Spec
	widthAcrossFlat units.Quantity
	height          units.Quantity
	mat             *material.Material
}

// NewNut validates geometry and builds a Nut. The threaded length of a nut
// is its full height.
func NewNut(spec *thread.Spec, widthAcrossFlats, height units.Quantity, mat *material.Material) (*Nut, error) {
	if spec == nil {
		return nil, &ValidationError{"nut", "thread specification is required"}
	}
	if mat == nil {
		return nil, &ValidationError{"nut", "material is required"}
	}
	if err := checkLength("nut", "width across flats", widthAcrossFlats); err != nil {
		return nil, err
	}
	if err := checkLength("nut", "height", height); err != nil {
		return nil, err
	}
	if widthAcrossFlats.SI() <= spec.PitchDiameter.SI() {
		return nil, &ValidationError{"nut", "width across flats must exceed pitch diameter"}
	}
	return &Nut{spec: spec, widthAcrossFlat: widthAcrossFlats, height: height, mat: mat}, nil
}

func (n *Nut) Thread() *thread.Spec { return n.spec }
func (n *Nut) ThreadedLength() units.Quantity { return n.height }
func (n *Nut) WidthAcrossFlats() units.Quantity { return n.widthAcrossFlat }
func (n *Nut) Height() units.Quantity { return n.height }
func (n *Nut) Material() *material.Material { return n.mat }

// Washer is a clamped annular spacer.
type Washer struct {
	innerDiameter units.Quantity
	outerDiameter units.Quantity
	thickness     units.Quantity
	mat           *material.Material
}

// NewWasher validates geometry and builds a Washer.
func NewWasher(innerDiameter, outerDiameter, thickness units.Quantity, mat *material.Material) (*Washer, error) {
	if mat == nil {
		return nil, &ValidationError{"washer", "material is required"}
	}
	for name, q := range map[string]units.Quantity{
		"inner diameter": innerDiameter,
		"outer diameter": outerDiameter,
		"thickness":      thickness,
	} {
		if err := checkLength("washer", name, q); err != nil {
			return nil, err
		}
	}
	if outerDiameter.SI() <= innerDiameter.SI() {
		return nil, &ValidationError{"washer", "outer diameter must exceed inner diameter"}
	}
	return &Washer{innerDiameter: innerDiameter, outerDiameter: outerDiameter, thickness: thickness, mat: mat}, nil
}

func (w *Washer) InnerDiameter() units.Quantity { return w.innerDiameter }
func (w *Washer) OuterDiameter() units.Quantity { return w.outerDiameter }
func (w *Washer) Thickness() units.Quantity { return w.thickness }
func (w *Washer) Material() *material.Material { return w.mat }

// Plate is a clamped plate of uniform thickness.
type Plate struct {
	thickness units.Quantity
	mat       *material.Material
}

// NewPlate validates geometry and builds a Plate.
func NewPlate(thickness units.Quantity, mat *material.Material) (*Plate, error) {
	if mat == nil {
		return nil, &ValidationError{"plate", "material is required"}
	}
	if err := checkLength("plate", "thickness", thickness); err != nil {
		return nil, err
	}
	return &Plate{thickness: thickness, mat: mat}, nil
}

func (p *Plate) Thickness() units.Quantity { return p.thickness }
func (p *Plate) Material() *material.Material { return p.mat }

// ThreadedPlate is a tapped plate: it is both the threaded member of the
// joint and a clamped part, so it satisfies Threaded and Clamped.
type ThreadedPlate struct {
	thickness      units.Quantity
	spec           *thread.Spec
	threadedLength units.Quantity
	clearanceHole  units.Quantity
	mat            *material.Material
}

// NewThreadedPlate validates geometry and builds a ThreadedPlate.
func NewThreadedPlate(thickness units.Quantity, spec *thread.Spec, threadedLength, clearanceHoleDiameter units.Quantity,
	mat *material.Material) (*ThreadedPlate, error) {
	if spec == nil {
		return nil, &ValidationError{"threaded plate", "thread specification is required"}
	}
	if mat == nil {
		return nil, &ValidationError{"threaded plate", "material is required"}
	}
	for name, q := range map[string]units.Quantity{
		"thickness":               thickness,
		"threaded length":         threadedLength,
		"clearance hole diameter": clearanceHoleDiameter,
	} {
		if err := checkLength("threaded plate", name, q); err != nil {
			return nil, err
		}
	}
	if threadedLength.SI() > thickness.SI() {
		return nil, &ValidationError{"threaded plate", "threaded length cannot exceed plate thickness"}
	}
	if clearanceHoleDiameter.SI() <= spec.PitchDiameter.SI() {
		return nil, &ValidationError{"threaded plate", "clearance hole diameter must exceed pitch diameter"}
	}
	return &ThreadedPlate{
		thickness:      thickness,
		spec:           spec,
		threadedLength: threadedLength,
		clearanceHole:  clearanceHoleDiameter,
		mat:            mat,
	}, nil
}

func (p *ThreadedPlate) Thickness() units.Quantity { return p.thickness }
func (p *ThreadedPlate) Thread() *thread.Spec { return p.spec }
func (p *ThreadedPlate) ThreadedLength() units.Quantity { return p.threadedLength }
func (p *ThreadedPlate) ClearanceHoleDiameter() units.Quantity { return p.clearanceHole }
func (p *ThreadedPlate) Material() *material.Material { return p.mat }
