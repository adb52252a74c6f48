package units

import "fmt"

// ValueTuple is a value together with its unit and unit group. A nil Value
// means the observation is present but has no value.
type ValueTuple struct {
	Value *float64
	Unit  Unit
	Group Group
}

// New returns a ValueTuple holding v.
func New(v float64, u Unit, g Group) ValueTuple {
	return ValueTuple{Value: &v, Unit: u, Group: g}
}

// None returns a ValueTuple without a value.
func None(u Unit, g Group) ValueTuple {
	return ValueTuple{Unit: u, Group: g}
}

// IsNone reports whether the tuple carries no value.
func (vt ValueTuple) IsNone() bool {
	return vt.Value == nil
}

// Float returns the value, or 0 for None.
func (vt ValueTuple) Float() float64 {
	if vt.Value == nil {
		return 0
	}
	return *vt.Value
}

func (vt ValueTuple) String() string {
	if vt.Value == nil {
		return fmt.Sprintf("None %s", vt.Unit)
	}
	return fmt.Sprintf("%g %s", *vt.Value, vt.Unit)
}
