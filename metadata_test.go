package zarr

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/qri-io/zarrdist/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// https://zarr.readthedocs.io/en/stable/spec/v2.html#metadata
const docExample = `{
  "chunks": [
    1000,
    1000
  ],
	"compressor": {
			"id": "blosc",
			"cname": "lz4",
			"clevel": 5,
			"shuffle": 1
	},
	"dtype": "<f8",
	"fill_value": "NaN",
	"filters": [
			{"id": "delta", "dtype": "<f8", "astype": "<f4"}
	],
	"order": "C",
	"shape": [
			10000,
			10000
	],
	"zarr_format": 2
}`

func TestMetadataSerialization(t *testing.T) {
	m := &ArrayMeta{}
	require.NoError(t, json.Unmarshal([]byte(docExample), m))

	assert.Equal(t, []int{10000, 10000}, m.Shape)
	assert.Equal(t, []int{1000, 1000}, m.Chunks)
	assert.Equal(t, Float64, m.Dtype)
	assert.Equal(t, "lz4", m.Compressor.Cname)
	assert.True(t, math.IsNaN(m.Fill()))
	assert.Equal(t, "delta", m.Filters[0].ID)
	assert.Equal(t, ".", m.Separator())
	assert.Equal(t, 1000*1000, m.ChunkLen())

	// filters are not applied by this package
	assert.True(t, errors.Is(m.Validate(), errors.ErrUnsupportedOperation))
}

func TestMetadataRoundTrip(t *testing.T) {
	m := NewArrayMeta([]int{7, 2}, []int{3, 2}, Int32)
	require.NoError(t, m.Validate())

	d, err := json.Marshal(m)
	require.NoError(t, err)

	got := &ArrayMeta{}
	require.NoError(t, json.Unmarshal(d, got))
	assert.Equal(t, m.Shape, got.Shape)
	assert.Equal(t, m.Chunks, got.Chunks)
	assert.Equal(t, Int32, got.Dtype)
	assert.Nil(t, got.Compressor)
	assert.Equal(t, float64(0), got.Fill())
}

func TestValidateGeometry(t *testing.T) {
	m := NewArrayMeta([]int{7, 2}, []int{0, 2}, Float64)
	assert.True(t, errors.Is(m.Validate(), errors.ErrInvalidShape))

	m = NewArrayMeta([]int{7}, []int{3}, MustParseDtype("<U8"))
	assert.True(t, errors.Is(m.Validate(), errors.ErrUnsupportedOperation))
}

func TestParseDtype(t *testing.T) {
	cases := []struct {
		in   string
		want Dtype
	}{
		{"<f8", Float64},
		{"&lt;f4", Float32},
		{"|b1", Bool},
		{"<i4", Int32},
		{"|u1", Uint8},
		{"<M8[ns]", Dtype{ByteOrder: BOLittleEndian, BasicType: BTDatetime, ByteSize: 8, Units: "[ns]"}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseDtype(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}

	for _, bad := range []string{"f8", "?f8", "<x8", "<fz"} {
		_, err := ParseDtype(bad)
		assert.Error(t, err, bad)
	}
}
