// Package params maps named fit parameters onto model structures. A Spec
// declares each parameter as fixed, free or a boolean flag, Resolve fills
// in the free values from a sample vector, and Dict verifies the result
// into a typed Model.
package params

import (
	"fmt"
	"sort"
)

// ConfigError reports an invalid or inconsistent parameter specification.
type ConfigError struct {
	Param string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Param == "" {
		return e.Msg
	}
	return fmt.Sprintf("parameter %q: %s", e.Param, e.Msg)
}

// Value is a parameter entry in a Spec. It is one of Fixed, Free or Flag.
type Value interface {
	isValue()
}

// Fixed pins a parameter to a constant value.
type Fixed float64

func (Fixed) isValue() {}

// Free marks a parameter as fitted, holding its index into the sample
// vector.
type Free int

func (Free) isValue() {}

// Flag is a boolean switch such as exclude_r or beam.
type Flag bool

func (Flag) isValue() {}

// Spec maps parameter names to their declarations.
type Spec map[string]Value

// NumFree returns the number of free parameters.
func (s Spec) NumFree() int {
	n := 0
	for _, v := range s {
		if _, ok := v.(Free); ok {
			n++
		}
	}
	return n
}

// FreeNames returns the names of the free parameters ordered by their index
// into the sample vector. Indices must form a contiguous run starting at
// zero with no duplicates.
func (s Spec) FreeNames() ([]string, error) {
	type entry struct {
		name string
		idx  int
	}
	var entries []entry
	for name, v := range s {
		if f, ok := v.(Free); ok {
			entries = append(entries, entry{name, int(f)})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].idx < entries[j].idx
	})
	names := make([]string, 0, len(entries))
	for i, e := range entries {
		if e.idx != i {
			return nil, &ConfigError{Param: e.name,
				Msg: fmt.Sprintf("free index %d does not match position %d", e.idx, i)}
		}
		names = append(names, e.name)
	}
	return names, nil
}

// Resolve substitutes the free parameters with values from theta, returning
// a fully numeric dictionary. theta must have exactly one entry per free
// parameter.
func (s Spec) Resolve(theta []float64) (Dict, error) {
	if len(theta) != s.NumFree() {
		return Dict{}, &ConfigError{
			Msg: fmt.Sprintf("got %d values for %d free parameters", len(theta), s.NumFree()),
		}
	}
	d := Dict{
		Values: make(map[string]float64, len(s)),
		Flags:  make(map[string]bool),
	}
	for name, v := range s {
		switch v := v.(type) {
		case Fixed:
			d.Values[name] = float64(v)
		case Free:
			if int(v) < 0 || int(v) >= len(theta) {
				return Dict{}, &ConfigError{Param: name,
					Msg: fmt.Sprintf("free index %d out of range", int(v))}
			}
			d.Values[name] = theta[int(v)]
		case Flag:
			d.Flags[name] = bool(v)
		}
	}
	return d, nil
}

// Dict is a resolved parameter dictionary, split into numeric values and
// boolean flags.
type Dict struct {
	Values map[string]float64
	Flags  map[string]bool
}

// Get returns the named value, or def when absent.
func (d Dict) Get(name string, def float64) float64 {
	if v, ok := d.Values[name]; ok {
		return v
	}
	return def
}

// GetFlag returns the named flag, or def when absent.
func (d Dict) GetFlag(name string, def bool) bool {
	if v, ok := d.Flags[name]; ok {
		return v
	}
	return def
}

func (d Dict) has(name string) bool {
	_, ok := d.Values[name]
	return ok
}
