package metrics

import "encoding/json"

// ValueKind discriminates the variants a metadata Value can hold.
type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueString
	ValueMapping
	ValueSeries
)

// Value is a tagged variant for metric metadata: a number, a string, a
// nested mapping, or an ordered period series. Consumers switch on Kind
// instead of type-asserting an untyped map.
type Value struct {
	kind    ValueKind
	num     float64
	str     string
	mapping map[string]Value
	series  Series
}

// Num wraps a number.
func Num(v float64) Value { return Value{kind: ValueNumber, num: v} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: ValueString, str: s} }

// Mapping wraps a nested mapping.
func Mapping(m map[string]Value) Value { return Value{kind: ValueMapping, mapping: m} }

// SeriesValue wraps a chronologically ordered period series.
func SeriesValue(s Series) Value { return Value{kind: ValueSeries, series: s} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// Number returns the numeric payload (0 for other kinds).
func (v Value) Number() float64 { return v.num }

// Text returns the string payload ("" for other kinds).
func (v Value) Text() string { return v.str }

// Mapping returns the nested mapping payload (nil for other kinds).
func (v Value) Mapping() map[string]Value { return v.mapping }

// Series returns the series payload (nil for other kinds).
func (v Value) Series() Series { return v.series }

// MarshalJSON renders the active variant: numbers and strings as JSON
// scalars, mappings as objects, series as ordered period/value pairs.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueString:
		return json.Marshal(v.str)
	case ValueMapping:
		return json.Marshal(v.mapping)
	case ValueSeries:
		return json.Marshal(v.series)
	default:
		return json.Marshal(v.num)
	}
}
