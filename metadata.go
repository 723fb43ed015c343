package zarr

import (
	"math"

	"github.com/qri-io/zarrdist/errors"
)

// MetaType is the reserved key a metadata document is stored under.
type MetaType string

// MTArray holds the array geometry next to its chunks.
const MTArray MetaType = ".zarray"

// ArrayMeta is the JSON document stored at ".zarray". Geometry is fixed
// once it is written. Chunks is the shape shared by every chunk, edge chunks
// included. FillValue pads edge chunks; null, numbers, booleans and the
// strings "NaN", "Infinity" and "-Infinity" are understood. Order must be
// "C".
type ArrayMeta struct {
	ZarrFormat         int              `json:"zarr_format"`
	Shape              []int            `json:"shape"`
	Chunks             []int            `json:"chunks"`
	Dtype              Dtype            `json:"dtype"`
	Compressor         *CompressionMeta `json:"compressor"`
	FillValue          interface{}      `json:"fill_value"`
	Order              string           `json:"order"`
	Filters            []Filter         `json:"filters"`
	DimensionSeparator string           `json:"dimension_separator,omitempty"`
}

// Filter is a codec applied before compression. Arrays that declare any
// are refused.
type Filter struct {
	ID     string `json:"id"`
	Delta  string `json:"delta,omitempty"`
	Dtype  string `json:"dtype,omitempty"`
	AsType string `json:"astype,omitempty"`
}

const (
	FillValueNaN              = "NaN"
	FillValueInfinity         = "Infinity"
	FillValueNegativeInfinity = "-Infinity"
)

// NewArrayMeta returns row-major metadata for an uncompressed array.
func NewArrayMeta(shape, chunks []int, dtype Dtype) *ArrayMeta {
	return &ArrayMeta{
		ZarrFormat: FormatVersion,
		Shape:      append([]int(nil), shape...),
		Chunks:     append([]int(nil), chunks...),
		Dtype:      dtype,
		FillValue:  0,
		Order:      "C",
	}
}

// Validate checks the parts of the metadata this package relies on.
func (a *ArrayMeta) Validate() error {
	if a.ZarrFormat != FormatVersion {
		return errors.Newf(errors.ErrInvalidShape, "unsupported zarr_format %d", a.ZarrFormat)
	}
	if _, err := ChunkGrid(a.Shape, a.Chunks); err != nil {
		return err
	}
	if a.Order != "" && a.Order != "C" {
		return errors.Newf(errors.ErrUnsupportedOperation, "chunk order %q", a.Order)
	}
	if len(a.Filters) > 0 {
		return errors.Newf(errors.ErrUnsupportedOperation, "filter %q", a.Filters[0].ID)
	}
	if _, err := a.Dtype.ItemSize(); err != nil {
		return err
	}
	return nil
}

// ChunkLen is the number of values stored in every chunk.
func (a *ArrayMeta) ChunkLen() int {
	n := 1
	for _, c := range a.Chunks {
		n *= c
	}
	return n
}

// Separator returns the dimension separator, defaulting to ".".
func (a *ArrayMeta) Separator() string {
	if a.DimensionSeparator == "" {
		return "."
	}
	return a.DimensionSeparator
}

// Fill decodes FillValue; a null fill value reads as zero.
func (a *ArrayMeta) Fill() float64 {
	switch v := a.FillValue.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case bool:
		if v {
			return 1
		}
	case string:
		switch v {
		case FillValueNaN:
			return math.NaN()
		case FillValueInfinity:
			return math.Inf(1)
		case FillValueNegativeInfinity:
			return math.Inf(-1)
		}
	}
	return 0
}
