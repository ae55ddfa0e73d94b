package field

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeDate
	TypeClock
	TypeEnum
	TypeString
	TypeText
	TypeBytes
	TypeInt
	TypeInt64
	TypeFloat64
	TypeDecimal
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeTime:    "time.Time",
	TypeDate:    "date",
	TypeClock:   "clock",
	TypeEnum:    "enum",
	TypeString:  "string",
	TypeText:    "text",
	TypeBytes:   "[]byte",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
	TypeDecimal: "decimal",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt && t < endTypes
}

// Integer reports if the given type is an integer type.
func (t Type) Integer() bool {
	return t == TypeInt || t == TypeInt64
}

// Temporal reports if the given type holds a date, a time of day or both.
func (t Type) Temporal() bool {
	return t == TypeTime || t == TypeDate || t == TypeClock
}

// Textual reports if the given type is stored as a string.
func (t Type) Textual() bool {
	return t == TypeString || t == TypeText || t == TypeEnum
}

// TypeInfo holds the information regarding field type.
type TypeInfo struct {
	Type     Type
	Nillable bool // Nullable column.
}

// String returns the string representation of a type.
func (t TypeInfo) String() string {
	if t.Nillable {
		return "*" + t.Type.String()
	}
	return t.Type.String()
}

// Valid reports if the given type if known type.
func (t TypeInfo) Valid() bool {
	return t.Type.Valid()
}

// Numeric reports if the given type is a numeric type.
func (t TypeInfo) Numeric() bool {
	return t.Type.Numeric()
}
