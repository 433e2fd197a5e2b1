package core

import (
	"encoding/json"
	"math"
	"strconv"
)

// ExtendedFloat is a float64 that survives JSON round trips when it holds
// ±Inf, which encoding/json refuses to write. Infinite values are encoded as
// the strings "+Infinity" and "-Infinity"; NaN is never produced by this
// package and is rejected on decode.
type ExtendedFloat float64

// Inf returns positive infinity as an ExtendedFloat.
func Inf() ExtendedFloat { return ExtendedFloat(math.Inf(1)) }

func (f ExtendedFloat) Float64() float64 { return float64(f) }

func (f ExtendedFloat) IsInf() bool { return math.IsInf(float64(f), 0) }

func (f ExtendedFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"+Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(v)
}

func (f *ExtendedFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseExtendedFloat(s)
		if err != nil {
			return err
		}
		*f = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = ExtendedFloat(v)
	return nil
}

// ParseExtendedFloat accepts plain decimal numbers plus the spellings
// "inf", "+inf", "infinity" and "+Infinity" (case-insensitive via strconv).
func ParseExtendedFloat(s string) (ExtendedFloat, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, &strconv.NumError{Func: "ParseExtendedFloat", Num: s, Err: strconv.ErrSyntax}
	}
	return ExtendedFloat(v), nil
}
