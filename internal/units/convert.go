package units

import "fmt"

// Convert converts value from one unit to another. Both units must belong
// to the same group; direction and time only ever convert to themselves.
func Convert(value float64, from, to Unit) (float64, error) {
	if from == to {
		return value, nil
	}

	fi, ok := unitTable[from]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, from)
	}
	ti, ok := unitTable[to]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, to)
	}
	if fi.group != ti.group {
		return 0, fmt.Errorf("%w: %s (%s) -> %s (%s)", ErrIncompatibleUnits, from, fi.group, to, ti.group)
	}

	base := value*fi.scale + fi.offset
	return (base - ti.offset) / ti.scale, nil
}

// ConvertTuple converts a ValueTuple to the target unit. None values stay
// None but take on the target unit.
func ConvertTuple(vt ValueTuple, to Unit) (ValueTuple, error) {
	if vt.Unit == to {
		return vt, nil
	}
	g, ok := GroupOf(to)
	if !ok {
		return ValueTuple{}, fmt.Errorf("%w: %q", ErrUnknownUnit, to)
	}
	if vt.IsNone() {
		if !Belongs(vt.Unit, g) {
			return ValueTuple{}, fmt.Errorf("%w: %s -> %s", ErrIncompatibleUnits, vt.Unit, to)
		}
		return None(to, g), nil
	}
	v, err := Convert(*vt.Value, vt.Unit, to)
	if err != nil {
		return ValueTuple{}, err
	}
	return New(v, to, g), nil
}
