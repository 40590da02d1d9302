package chunkflow

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/fasthash/fnv1a"
)

var ZeroValue = Value{}

type Value struct {
	TypeID   TypeID
	Int      int
	Float    float64
	Boolean  bool
	Str      string
	Time     time.Time
	Duration time.Duration
}

func NewNull() Value {
	return Value{TypeID: TypeIDNull}
}

func NewInt(value int) Value {
	return Value{
		TypeID: TypeIDInt,
		Int:    value,
	}
}

func NewFloat(value float64) Value {
	return Value{
		TypeID: TypeIDFloat,
		Float:  value,
	}
}

func NewBoolean(value bool) Value {
	return Value{
		TypeID:  TypeIDBoolean,
		Boolean: value,
	}
}

func NewString(value string) Value {
	return Value{
		TypeID: TypeIDString,
		Str:    value,
	}
}

func NewTime(value time.Time) Value {
	return Value{
		TypeID: TypeIDTime,
		Time:   value,
	}
}

func NewDuration(value time.Duration) Value {
	return Value{
		TypeID:   TypeIDDuration,
		Duration: value,
	}
}

func (value Value) Type() Type {
	return Type{TypeID: value.TypeID}
}

func (value Value) IsNull() bool {
	return value.TypeID == TypeIDNull
}

func (value Value) Compare(other Value) int {
	if value.TypeID != other.TypeID {
		if value.TypeID < other.TypeID {
			return -1
		} else {
			return 1
		}
	}

	switch value.TypeID {
	case TypeIDNull:
		return 0

	case TypeIDInt:
		if value.Int < other.Int {
			return -1
		} else if value.Int > other.Int {
			return 1
		} else {
			return 0
		}

	case TypeIDFloat:
		if value.Float < other.Float {
			return -1
		} else if value.Float > other.Float {
			return 1
		} else {
			return 0
		}

	case TypeIDBoolean:
		if value.Boolean == other.Boolean {
			return 0
		} else if !value.Boolean {
			return -1
		} else {
			return 1
		}

	case TypeIDString:
		if value.Str < other.Str {
			return -1
		} else if value.Str > other.Str {
			return 1
		} else {
			return 0
		}

	case TypeIDTime:
		if value.Time.Before(other.Time) {
			return -1
		} else if value.Time.After(other.Time) {
			return 1
		} else {
			return 0
		}

	case TypeIDDuration:
		if value.Duration < other.Duration {
			return -1
		} else if value.Duration > other.Duration {
			return 1
		} else {
			return 0
		}

	default:
		panic("impossible, type switch bug")
	}
}

func (value Value) Equal(other Value) bool {
	return value.Compare(other) == 0
}

// Hash is consistent with Compare: values comparing as equal hash equally.
func (value Value) Hash() uint64 {
	return value.AddToHash(fnv1a.Init64)
}

func (value Value) AddToHash(hash uint64) uint64 {
	hash = fnv1a.AddUint64(hash, uint64(value.TypeID))
	switch value.TypeID {
	case TypeIDNull:
		return hash
	case TypeIDInt:
		return fnv1a.AddUint64(hash, uint64(value.Int))
	case TypeIDFloat:
		if value.Float == 0 {
			// -0 and +0 compare equal.
			return fnv1a.AddUint64(hash, 0)
		}
		return fnv1a.AddUint64(hash, math.Float64bits(value.Float))
	case TypeIDBoolean:
		if value.Boolean {
			return fnv1a.AddUint64(hash, 1)
		}
		return fnv1a.AddUint64(hash, 0)
	case TypeIDString:
		return fnv1a.AddString64(hash, value.Str)
	case TypeIDTime:
		return fnv1a.AddUint64(hash, uint64(value.Time.UnixNano()))
	case TypeIDDuration:
		return fnv1a.AddUint64(hash, uint64(value.Duration))
	default:
		panic("impossible, type switch bug")
	}
}

// HashValues hashes a tuple of values.
func HashValues(values []Value) uint64 {
	hash := fnv1a.Init64
	for i := range values {
		hash = values[i].AddToHash(hash)
	}
	return hash
}

func (value Value) String() string {
	builder := &strings.Builder{}
	value.append(builder)
	return builder.String()
}

func (value Value) append(builder *strings.Builder) {
	switch value.TypeID {
	case TypeIDNull:
		builder.WriteString("null")

	case TypeIDInt:
		builder.WriteString(fmt.Sprint(value.Int))

	case TypeIDFloat:
		builder.WriteString(fmt.Sprint(value.Float))

	case TypeIDBoolean:
		builder.WriteString(fmt.Sprint(value.Boolean))

	case TypeIDString:
		builder.WriteString(fmt.Sprintf("'%s'", value.Str))

	case TypeIDTime:
		builder.WriteString(value.Time.Format(time.RFC3339))

	case TypeIDDuration:
		builder.WriteString(fmt.Sprint(value.Duration))

	default:
		panic("impossible, type switch bug")
	}
}

func (value Value) ToRawGoValue() interface{} {
	switch value.TypeID {
	case TypeIDNull:
		return nil
	case TypeIDInt:
		return value.Int
	case TypeIDFloat:
		return value.Float
	case TypeIDBoolean:
		return value.Boolean
	case TypeIDString:
		return value.Str
	case TypeIDTime:
		return value.Time
	case TypeIDDuration:
		return value.Duration
	default:
		panic("invalid chunkflow.Value to get Raw Go value for")
	}
}

func FromRawGoValue(raw interface{}) (Value, error) {
	switch raw := raw.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return raw, nil
	case int:
		return NewInt(raw), nil
	case int8:
		return NewInt(int(raw)), nil
	case int16:
		return NewInt(int(raw)), nil
	case int32:
		return NewInt(int(raw)), nil
	case int64:
		return NewInt(int(raw)), nil
	case uint:
		return NewInt(int(raw)), nil
	case uint8:
		return NewInt(int(raw)), nil
	case uint16:
		return NewInt(int(raw)), nil
	case uint32:
		return NewInt(int(raw)), nil
	case uint64:
		return NewInt(int(raw)), nil
	case float32:
		return NewFloat(float64(raw)), nil
	case float64:
		return NewFloat(raw), nil
	case bool:
		return NewBoolean(raw), nil
	case string:
		return NewString(raw), nil
	case []byte:
		return NewString(string(raw)), nil
	case time.Time:
		return NewTime(raw), nil
	case time.Duration:
		return NewDuration(raw), nil
	default:
		return ZeroValue, errors.Errorf("unsupported raw value type %T", raw)
	}
}
