package sqltypes

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Value is one cell of a row: a type code and the raw text-protocol bytes.
// NULL is represented by NullType with an empty payload.
type Value struct {
	Typ Type
	Val []byte
}

// IsNull holds iff the value carries the NULL type.
func (v Value) IsNull() bool {
	return v.Typ == NullType
}

func (v Value) String() string {
	return string(v.Val)
}

// NullValue returns the NULL cell.
func NullValue() Value {
	return Value{Typ: NullType}
}

// MakeValue builds a value from raw bytes without copying.
func MakeValue(typ Type, val []byte) Value {
	return Value{Typ: typ, Val: val}
}

func IntValue(i int64) Value {
	return Value{Typ: Int64, Val: strconv.AppendInt(nil, i, 10)}
}

func UintValue(u uint64) Value {
	return Value{Typ: Uint64, Val: strconv.AppendUint(nil, u, 10)}
}

func FloatValue(f float64) Value {
	return Value{Typ: Float64, Val: strconv.AppendFloat(nil, f, 'g', -1, 64)}
}

func StringValue(s string) Value {
	return Value{Typ: Varchar, Val: []byte(s)}
}

// DecimalValue builds a DECIMAL cell from an exact decimal.
func DecimalValue(d decimal.Decimal) Value {
	return Value{Typ: Decimal, Val: []byte(d.String())}
}

// Field is a column descriptor, the source of a ColumnDefinition41 packet.
type Field struct {
	Name      string
	Typ       Type
	Table     string
	OrgTable  string
	Database  string
	OrgName   string
	ColumnLen uint32
	Charset   uint32
	Decimals  uint32
	// Flags overrides the type table's implied flags when nonzero.
	Flags uint32
}

// Result is one segment of a streamed query result. A segment with no
// fields is an affected-rows response; otherwise Fields describes the
// columns and Rows carries zero or more rows, each with len(Fields) cells.
type Result struct {
	Fields       []*Field
	AffectedRows uint64
	InsertID     uint64
	Rows         [][]Value
}
