package param

import (
	"fmt"
	"math"
)

// Parameter is a control-side value exposed to editors as a unipolar [0,1] value.
// It is not safe for concurrent use; owners serialize access.
type Parameter struct {
	Name    string
	Unit    string
	Anchor  float64
	Mapping Mapping
	Print   PrintMapping

	value        float64
	defaultValue float64
	version      uint32
	callbacks    []func(p *Parameter)
}

// Value ...
func (p *Parameter) Value() float64 {
	return p.value
}

// Bool ...
func (p *Parameter) Bool() bool {
	return p.value >= 0.5
}

// Int ...
func (p *Parameter) Int() int {
	return int(math.Round(p.value))
}

// Version is incremented on every change.
func (p *Parameter) Version() uint32 {
	return p.version
}

// Set changes the value and notifies callbacks. Setting the same value is a no-op.
func (p *Parameter) Set(value float64) {
	if p.value == value {
		return
	}
	p.value = value
	p.version++
	p.notify()
}

// SetUnipolar ...
func (p *Parameter) SetUnipolar(x float64) {
	p.Set(p.Mapping.Y(Clamp(0, 1, x)))
}

// Unipolar ...
func (p *Parameter) Unipolar() float64 {
	return p.Mapping.X(p.value)
}

// Reset ...
func (p *Parameter) Reset() {
	p.Set(p.defaultValue)
}

// Default ...
func (p *Parameter) Default() float64 {
	return p.defaultValue
}

// String ...
func (p *Parameter) String() string {
	if p.Unit == "" {
		return p.Print.Output(p.Mapping, p.Unipolar())
	}
	return p.Print.Output(p.Mapping, p.Unipolar()) + " " + p.Unit
}

// Parse sets the value from printed text.
func (p *Parameter) Parse(text string) error {
	value, ok := p.Print.Input(p.Mapping, text)
	if !ok || math.IsNaN(value) {
		return fmt.Errorf("cannot parse %q for %s", text, p.Name)
	}
	p.Set(value)
	return nil
}

// AddCallback ...
func (p *Parameter) AddCallback(f func(p *Parameter)) {
	p.callbacks = append(p.callbacks, f)
}

func (p *Parameter) notify() {
	for _, f := range p.callbacks {
		f(p)
	}
}

// ----- Builder ----- //

// Builder ...
type Builder struct {
	p Parameter
}

// Begin starts a parameter with the defaults: Identity mapping, Percent print, 0.5.
func Begin(name string) *Builder {
	return &Builder{p: Parameter{
		Name:    name,
		Unit:    "%",
		Mapping: Identity,
		Print:   Percent,
		value:   0.5,
	}}
}

// Unit ...
func (b *Builder) Unit(unit string) *Builder {
	b.p.Unit = unit
	return b
}

// Mapping ...
func (b *Builder) Mapping(m Mapping) *Builder {
	b.p.Mapping = m
	return b
}

// Print ...
func (b *Builder) Print(m PrintMapping) *Builder {
	b.p.Print = m
	return b
}

// Value ...
func (b *Builder) Value(value float64) *Builder {
	b.p.value = value
	return b
}

// Anchor ...
func (b *Builder) Anchor(anchor float64) *Builder {
	b.p.Anchor = anchor
	return b
}

// Callback ...
func (b *Builder) Callback(f func(p *Parameter)) *Builder {
	b.p.callbacks = append(b.p.callbacks, f)
	return b
}

// Create ...
func (b *Builder) Create() *Parameter {
	p := b.p
	p.defaultValue = p.value
	return &p
}
