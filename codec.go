package zarr

import (
	"encoding/binary"
	"io"

	"github.com/qri-io/zarrdist/errors"
)

// newValueFunc returns a factory for a typed slice of n values matching dt,
// the shape encoding/binary reads and writes chunk bytes through.
func newValueFunc(dt Dtype) (binary.ByteOrder, func(n int) interface{}, error) {
	if _, err := dt.ItemSize(); err != nil {
		return nil, nil, err
	}
	var factory func(n int) interface{}
	switch dt.BasicType {
	case BTBoolean:
		factory = func(n int) interface{} { return make([]bool, n) }
	case BTInteger:
		switch dt.ByteSize {
		case 1:
			factory = func(n int) interface{} { return make([]int8, n) }
		case 2:
			factory = func(n int) interface{} { return make([]int16, n) }
		case 4:
			factory = func(n int) interface{} { return make([]int32, n) }
		default:
			factory = func(n int) interface{} { return make([]int64, n) }
		}
	case BTUnsigned:
		switch dt.ByteSize {
		case 1:
			factory = func(n int) interface{} { return make([]uint8, n) }
		case 2:
			factory = func(n int) interface{} { return make([]uint16, n) }
		case 4:
			factory = func(n int) interface{} { return make([]uint32, n) }
		default:
			factory = func(n int) interface{} { return make([]uint64, n) }
		}
	case BTFloatingPoint:
		if dt.ByteSize == 4 {
			factory = func(n int) interface{} { return make([]float32, n) }
		} else {
			factory = func(n int) interface{} { return make([]float64, n) }
		}
	}
	return dt.binaryOrder(), factory, nil
}

// decodeValues reads n values of type dt from r.
func decodeValues(dt Dtype, r io.Reader, n int) ([]float64, error) {
	bo, fac, err := newValueFunc(dt)
	if err != nil {
		return nil, err
	}
	v := fac(n)
	if err := binary.Read(r, bo, v); err != nil {
		return nil, errors.Wrapf(err, "decoding %d values of %s", n, dt)
	}

	out := make([]float64, n)
	switch x := v.(type) {
	case []bool:
		for i, b := range x {
			if b {
				out[i] = 1
			}
		}
	case []int8:
		for i, e := range x {
			out[i] = float64(e)
		}
	case []int16:
		for i, e := range x {
			out[i] = float64(e)
		}
	case []int32:
		for i, e := range x {
			out[i] = float64(e)
		}
	case []int64:
		for i, e := range x {
			out[i] = float64(e)
		}
	case []uint8:
		for i, e := range x {
			out[i] = float64(e)
		}
	case []uint16:
		for i, e := range x {
			out[i] = float64(e)
		}
	case []uint32:
		for i, e := range x {
			out[i] = float64(e)
		}
	case []uint64:
		for i, e := range x {
			out[i] = float64(e)
		}
	case []float32:
		for i, e := range x {
			out[i] = float64(e)
		}
	case []float64:
		copy(out, x)
	}
	return out, nil
}

// encodeValues writes values to w as dt, truncating toward zero for
// integer types.
func encodeValues(dt Dtype, w io.Writer, values []float64) error {
	bo, fac, err := newValueFunc(dt)
	if err != nil {
		return err
	}
	v := fac(len(values))
	switch x := v.(type) {
	case []bool:
		for i, e := range values {
			x[i] = e != 0
		}
	case []int8:
		for i, e := range values {
			x[i] = int8(e)
		}
	case []int16:
		for i, e := range values {
			x[i] = int16(e)
		}
	case []int32:
		for i, e := range values {
			x[i] = int32(e)
		}
	case []int64:
		for i, e := range values {
			x[i] = int64(e)
		}
	case []uint8:
		for i, e := range values {
			x[i] = uint8(e)
		}
	case []uint16:
		for i, e := range values {
			x[i] = uint16(e)
		}
	case []uint32:
		for i, e := range values {
			x[i] = uint32(e)
		}
	case []uint64:
		for i, e := range values {
			x[i] = uint64(e)
		}
	case []float32:
		for i, e := range values {
			x[i] = float32(e)
		}
	case []float64:
		copy(x, values)
	}
	return binary.Write(w, bo, v)
}
