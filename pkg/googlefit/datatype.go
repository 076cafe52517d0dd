package googlefit

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/api/fitness/v1"
)

var ErrUnknownDataType = errors.New("unknown data type")

// DataType selects one of the Google Fit data types this package knows how to aggregate.
type DataType int

const (
	Weight DataType = iota
	Steps
)

type NumericKind int

const (
	KindFloat NumericKind = iota
	KindInt
)

type dataTypeInfo struct {
	name  string
	kind  NumericKind
	field string
	// label is used in logs, metrics and for parsing
	label string
}

var dataTypes = map[DataType]dataTypeInfo{
	Weight: {
		name:  "com.google.weight",
		kind:  KindFloat,
		field: "fpVal",
		label: "weight",
	},
	Steps: {
		name:  "com.google.step_count.delta",
		kind:  KindInt,
		field: "intVal",
		label: "steps",
	},
}

// AllDataTypes lists every known data type, in declaration order.
func AllDataTypes() []DataType {
	return []DataType{Weight, Steps}
}

func (dt DataType) info() (dataTypeInfo, error) {
	info, ok := dataTypes[dt]
	if !ok {
		return dataTypeInfo{}, fmt.Errorf("%w: %d", ErrUnknownDataType, int(dt))
	}
	return info, nil
}

// Name returns the remote service's data type name, e.g. com.google.weight.
func (dt DataType) Name() string {
	return dataTypes[dt].name
}

func (dt DataType) Kind() NumericKind {
	return dataTypes[dt].kind
}

// Field returns the key under which a point value carries its number.
func (dt DataType) Field() string {
	return dataTypes[dt].field
}

func (dt DataType) String() string {
	if info, ok := dataTypes[dt]; ok {
		return info.label
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

// ParseDataType accepts either the short label (weight, steps) or the remote name.
func ParseDataType(s string) (DataType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, dt := range AllDataTypes() {
		info := dataTypes[dt]
		if s == info.label || s == info.name {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDataType, s)
}

// numericValue reads the configured field from a point value and coerces
// it to the data type's numeric kind.
func (info dataTypeInfo) numericValue(v *fitness.Value) (float64, error) {
	var raw float64
	switch info.field {
	case "fpVal":
		raw = v.FpVal
	case "intVal":
		raw = float64(v.IntVal)
	default:
		return 0, fmt.Errorf("unsupported value field: %s", info.field)
	}

	if info.kind == KindInt {
		return math.Trunc(raw), nil
	}
	return raw, nil
}
