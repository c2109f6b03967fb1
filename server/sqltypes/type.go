package sqltypes

import (
	"github.com/pingcap/errors"
)

// Type is the internal column type code. The values interleave a base type
// id with property bits (number/unsigned/quoted/binary), which is why they
// are not the MySQL wire bytes.
type Type int32

const (
	// NullType specifies a NULL type.
	NullType Type = 0
	// Int8 specifies a TINYINT type.
	Int8 Type = 257
	// Uint8 specifies a TINYINT UNSIGNED type.
	Uint8 Type = 770
	// Int16 specifies a SMALLINT type.
	Int16 Type = 259
	// Uint16 specifies a SMALLINT UNSIGNED type.
	Uint16 Type = 772
	// Int24 specifies a MEDIUMINT type.
	Int24 Type = 261
	// Uint24 specifies a MEDIUMINT UNSIGNED type.
	Uint24 Type = 774
	// Int32 specifies an INTEGER type.
	Int32 Type = 263
	// Uint32 specifies an INTEGER UNSIGNED type.
	Uint32 Type = 776
	// Int64 specifies a BIGINT type.
	Int64 Type = 265
	// Uint64 specifies a BIGINT UNSIGNED type.
	Uint64 Type = 778
	// Float32 specifies a FLOAT type.
	Float32 Type = 1035
	// Float64 specifies a DOUBLE or REAL type.
	Float64 Type = 1036
	// Timestamp specifies a TIMESTAMP type.
	Timestamp Type = 2061
	// Date specifies a DATE type.
	Date Type = 2062
	// Time specifies a TIME type.
	Time Type = 2063
	// Datetime specifies a DATETIME type.
	Datetime Type = 2064
	// Year specifies a YEAR type.
	Year Type = 785
	// Decimal specifies a DECIMAL or NUMERIC type.
	Decimal Type = 18
	// Text specifies a TEXT type.
	Text Type = 6163
	// Blob specifies a BLOB type.
	Blob Type = 10260
	// Varchar specifies a VARCHAR type.
	Varchar Type = 6165
	// VarBinary specifies a VARBINARY type.
	VarBinary Type = 10262
	// Char specifies a CHAR type.
	Char Type = 6167
	// Binary specifies a BINARY type.
	Binary Type = 10264
	// Bit specifies a BIT type.
	Bit Type = 2073
	// Enum specifies an ENUM type.
	Enum Type = 2074
	// Set specifies a SET type.
	Set Type = 2075
	// Geometry specifies a GEOMETRY type.
	Geometry Type = 2077
	// Json specifies a JSON type.
	Json Type = 2078
)

// Field flags on the wire, from include/mysql/mysql_com.h.
const (
	MysqlUnsigned uint16 = 32
	MysqlBinary   uint16 = 128
	MysqlEnum     uint16 = 256
	MysqlSet      uint16 = 2048
)

type mysqlType struct {
	typ   byte
	flags uint16
}

// typeToMySQL is process-wide immutable lookup data, built once at startup.
var typeToMySQL = map[Type]mysqlType{
	Int8:      {1, 0},
	Uint8:     {1, MysqlUnsigned},
	Int16:     {2, 0},
	Uint16:    {2, MysqlUnsigned},
	Int24:     {9, 0},
	Uint24:    {9, MysqlUnsigned},
	Int32:     {3, 0},
	Uint32:    {3, MysqlUnsigned},
	Int64:     {8, 0},
	Uint64:    {8, MysqlUnsigned},
	Float32:   {4, 0},
	Float64:   {5, 0},
	Timestamp: {7, 0},
	Date:      {10, MysqlBinary},
	Time:      {11, MysqlBinary},
	Datetime:  {12, MysqlBinary},
	Year:      {13, MysqlUnsigned},
	Decimal:   {246, 0},
	Text:      {252, 0},
	Blob:      {252, MysqlBinary},
	Varchar:   {253, 0},
	VarBinary: {253, MysqlBinary},
	Char:      {254, 0},
	Binary:    {254, MysqlBinary},
	Bit:       {16, MysqlUnsigned},
	Enum:      {254, MysqlEnum},
	Set:       {254, MysqlSet},
	Geometry:  {255, 0},
	Json:      {245, 0},
	NullType:  {6, MysqlBinary},
}

// TypeToMySQL returns the MySQL wire type byte and implied field flags for
// an internal type.
func TypeToMySQL(typ Type) (byte, uint16, error) {
	m, ok := typeToMySQL[typ]
	if !ok {
		return 0, 0, errors.Errorf("sqltypes: no MySQL mapping for type %d", typ)
	}
	return m.typ, m.flags, nil
}
