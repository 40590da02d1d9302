package chunkflow

type TypeID int

const (
	TypeIDNull TypeID = iota
	TypeIDInt
	TypeIDFloat
	TypeIDBoolean
	TypeIDString
	TypeIDTime
	TypeIDDuration
	TypeIDAny
)

type Type struct {
	TypeID TypeID
}

var (
	Null     Type = Type{TypeID: TypeIDNull}
	Int      Type = Type{TypeID: TypeIDInt}
	Float    Type = Type{TypeID: TypeIDFloat}
	Boolean  Type = Type{TypeID: TypeIDBoolean}
	String   Type = Type{TypeID: TypeIDString}
	Time     Type = Type{TypeID: TypeIDTime}
	Duration Type = Type{TypeID: TypeIDDuration}
	Any      Type = Type{TypeID: TypeIDAny}
)

func (t Type) String() string {
	switch t.TypeID {
	case TypeIDNull:
		return "NULL"
	case TypeIDInt:
		return "Int"
	case TypeIDFloat:
		return "Float"
	case TypeIDBoolean:
		return "Boolean"
	case TypeIDString:
		return "String"
	case TypeIDTime:
		return "Time"
	case TypeIDDuration:
		return "Duration"
	case TypeIDAny:
		return "Any"
	}
	panic("impossible, type switch bug")
}

// Numeric reports whether values of this type can be summed and averaged.
func (t Type) Numeric() bool {
	return t.TypeID == TypeIDInt || t.TypeID == TypeIDFloat || t.TypeID == TypeIDDuration
}

// Accepts reports whether a value of type other may be stored in a column of type t.
// Null fits every column and Any columns accept everything.
func (t Type) Accepts(other Type) bool {
	if t.TypeID == TypeIDAny || other.TypeID == TypeIDNull {
		return true
	}
	return t.TypeID == other.TypeID
}

// TypeSum returns the narrowest type able to hold values of both types.
// Ints widen to floats, Null is absorbed and any other mix falls back to String.
func TypeSum(t1, t2 Type) Type {
	switch {
	case t1.TypeID == t2.TypeID:
		return t1
	case t1.TypeID == TypeIDNull:
		return t2
	case t2.TypeID == TypeIDNull:
		return t1
	case t1.TypeID == TypeIDAny || t2.TypeID == TypeIDAny:
		return Any
	case t1.TypeID == TypeIDInt && t2.TypeID == TypeIDFloat,
		t1.TypeID == TypeIDFloat && t2.TypeID == TypeIDInt:
		return Float
	}
	return String
}
