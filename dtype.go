package zarr

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/qri-io/zarrdist/errors"
)

// Dtype is a NumPy typestr such as "<f8": byte order, kind and item size,
// plus units for datetime kinds ("<M8[ns]"). Stored arrays always name a
// byte order.
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = (*Dtype)(nil)
)

// Numeric types chunks can be encoded as.
var (
	Bool    = Dtype{ByteOrder: BONotRelevant, BasicType: BTBoolean, ByteSize: 1}
	Int8    = Dtype{ByteOrder: BONotRelevant, BasicType: BTInteger, ByteSize: 1}
	Int32   = Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 4}
	Int64   = Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 8}
	Uint8   = Dtype{ByteOrder: BONotRelevant, BasicType: BTUnsigned, ByteSize: 1}
	Float32 = Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 4}
	Float64 = Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 8}
)

// ParseDtype reads a typestr such as "<f8", "|b1" or "<M8[ns]".
func ParseDtype(s string) (dt Dtype, err error) {
	// zarr-python once wrote HTML-escaped byte order markers
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)
	if len(s) < 3 {
		return dt, errors.Errorf("dtype %q is too short", s)
	}

	if dt.ByteOrder, err = ParseByteOrder(rune(s[0])); err != nil {
		return dt, err
	}
	if dt.BasicType, err = ParseBasicType(rune(s[1])); err != nil {
		return dt, err
	}
	size := s[2:]
	if i := strings.IndexByte(size, '['); i >= 0 {
		size, dt.Units = size[:i], size[i:]
	}
	n, err := strconv.Atoi(size)
	if err != nil {
		return dt, errors.Wrapf(err, "dtype %q size", s)
	}
	dt.ByteSize = n
	return dt, nil
}

// MustParseDtype is ParseDtype that panics.
func MustParseDtype(s string) Dtype {
	dt, err := ParseDtype(s)
	if err != nil {
		panic(err)
	}
	return dt
}

func (dt Dtype) String() string {
	s := fmt.Sprintf("%s%s%d", string(dt.ByteOrder), string(dt.BasicType), dt.ByteSize)
	if dt.Units != "" {
		s += dt.Units
	}
	return s
}

func (dt Dtype) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}

	*dt = t
	return nil
}

// ItemSize returns the encoded width of one value, failing for types chunks
// cannot be decoded into numbers.
func (dt Dtype) ItemSize() (int, error) {
	ok := false
	switch dt.BasicType {
	case BTBoolean:
		ok = dt.ByteSize == 1
	case BTInteger, BTUnsigned:
		ok = dt.ByteSize == 1 || dt.ByteSize == 2 || dt.ByteSize == 4 || dt.ByteSize == 8
	case BTFloatingPoint:
		ok = dt.ByteSize == 4 || dt.ByteSize == 8
	}
	if !ok {
		return 0, errors.Newf(errors.ErrUnsupportedOperation, "dtype %s (%d byte %s) cannot hold array values", dt, dt.ByteSize, dt.BasicType.Human())
	}
	return dt.ByteSize, nil
}

// binaryOrder maps the typestr byte order onto encoding/binary.
func (dt Dtype) binaryOrder() binary.ByteOrder {
	if dt.ByteOrder == BOBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

type ByteOrder rune

// ParseByteOrder accepts the three typestr byte order markers.
func ParseByteOrder(r rune) (ByteOrder, error) {
	switch o := ByteOrder(r); o {
	case BONotRelevant, BOLittleEndian, BOBigEndian:
		return o, nil
	}
	return 0, errors.Errorf("unsupported byte order %q", r)
}

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

type BasicType rune

// ParseBasicType accepts every typestr kind code, numeric or not.
func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := basicTypeNames[t]; !ok {
		return 0, errors.Errorf("unsupported basic type %q", r)
	}
	return t, nil
}

// Human names the kind, "float" for 'f'.
func (bt BasicType) Human() string {
	if name, ok := basicTypeNames[bt]; ok {
		return name
	}
	return "unknown"
}

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
	BTComplex       BasicType = 'c'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
	BTString        BasicType = 'S'
	BTUnicode       BasicType = 'U'
	BTOther         BasicType = 'V'
)

var basicTypeNames = map[BasicType]string{
	BTBoolean:       "bool",
	BTInteger:       "int",
	BTUnsigned:      "uint",
	BTFloatingPoint: "float",
	BTComplex:       "complex",
	BTTimedelta:     "timeDelta",
	BTDatetime:      "dateTime",
	BTString:        "string",
	BTUnicode:       "unicode",
	BTOther:         "other",
}
