package zarr

import (
	"bytes"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"strings"

	"github.com/qri-io/zarrdist/errors"
)

const (
	// FormatVersion is the zarr_format written and accepted.
	FormatVersion = 2
)

// Array is a handle on a zarr array inside a Store. Its geometry is read from
// the store once, when the handle is opened or created, and never changes.
type Array struct {
	path  Path
	store Store
	mode  PersistenceMode
	meta  *ArrayMeta
}

// Create writes m as the metadata of a new array at path. mode must be one of
// ModeWrite (overwrite), ModeWriteFail (fail if an array exists) or
// ModeReadWriteCreate (open the existing array if there is one).
func Create(store Store, path string, m *ArrayMeta, mode PersistenceMode) (*Array, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeWrite, ModeWriteFail, ModeReadWriteCreate:
	default:
		return nil, errors.Errorf("cannot create an array in mode %q", mode)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	existing, err := readMeta(store, p)
	if err == nil {
		switch mode {
		case ModeWriteFail:
			return nil, errors.Newf(errors.ErrStoreUnavailable, "array already exists at %q", p)
		case ModeReadWriteCreate:
			return &Array{path: p, store: store, mode: mode, meta: existing}, nil
		}
	} else if mode != ModeWrite && !isNotFound(err) {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	if err := store.Put(p.Join(string(MTArray)).String(), buf); err != nil {
		return nil, errors.WithCode(err, errors.ErrStoreUnavailable, fmt.Sprintf("writing metadata for %q", p))
	}
	return &Array{path: p, store: store, mode: mode, meta: m}, nil
}

// Open reads the metadata of the array at path. The array must exist.
func Open(store Store, path string, mode PersistenceMode) (*Array, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}
	if mode != ModeRead && mode != ModeReadWrite {
		return nil, errors.Errorf("cannot open an existing array in mode %q; use Create", mode)
	}

	meta, err := readMeta(store, p)
	if err != nil {
		return nil, err
	}
	return &Array{
		path:  p,
		store: store,
		mode:  mode,
		meta:  meta,
	}, nil
}

func readMeta(store Store, p Path) (*ArrayMeta, error) {
	f, err := store.Get(p.Join(string(MTArray)).String())
	if err != nil {
		return nil, errors.WithCode(err, errors.ErrStoreUnavailable, fmt.Sprintf("opening %q", p))
	}
	defer f.Close()

	meta := &ArrayMeta{}
	if err := json.NewDecoder(f).Decode(meta); err != nil {
		return nil, errors.WithCode(err, errors.ErrStoreUnavailable, fmt.Sprintf("decoding metadata of %q", p))
	}
	if err := meta.Validate(); err != nil {
		return nil, errors.Wrapf(err, "array %q", p)
	}
	return meta, nil
}

func isNotFound(err error) bool {
	return goerrors.Is(err, ErrNotfound)
}

func (a *Array) Info() string {
	return fmt.Sprintf("<zarr.Array %q shape=%v chunks=%v dtype=%s>", a.path, a.meta.Shape, a.meta.Chunks, a.meta.Dtype)
}

func (a *Array) Path() string {
	return a.path.String()
}

// Meta returns a copy of the array's metadata.
func (a *Array) Meta() ArrayMeta {
	m := *a.meta
	m.Shape = append([]int(nil), a.meta.Shape...)
	m.Chunks = append([]int(nil), a.meta.Chunks...)
	return m
}

func (a *Array) Shape() []int  { return append([]int(nil), a.meta.Shape...) }
func (a *Array) Chunks() []int { return append([]int(nil), a.meta.Chunks...) }
func (a *Array) Dtype() Dtype  { return a.meta.Dtype }

// ReadChunk decodes the stored chunk at coord: ChunkLen values in C order,
// including any padding past the array's trailing edge. A chunk that was
// never written reads as the fill value.
func (a *Array) ReadChunk(coord []int) ([]float64, error) {
	if err := a.checkCoord(coord); err != nil {
		return nil, err
	}
	n := a.meta.ChunkLen()
	f, err := a.store.Get(a.chunkPath(coord).String())
	if err != nil {
		if isNotFound(err) {
			fill := a.meta.Fill()
			out := make([]float64, n)
			for i := range out {
				out[i] = fill
			}
			return out, nil
		}
		return nil, errors.WithCode(err, errors.ErrStoreUnavailable, fmt.Sprintf("reading chunk %v of %q", coord, a.path))
	}
	defer f.Close()

	r, err := a.meta.Compressor.Decompressor(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return decodeValues(a.meta.Dtype, r, n)
}

// WriteChunk stores values, which must hold exactly ChunkLen items, as the
// chunk at coord.
func (a *Array) WriteChunk(coord []int, values []float64) error {
	if a.mode == ModeRead {
		return errors.Errorf("array %q is open read-only", a.path)
	}
	if err := a.checkCoord(coord); err != nil {
		return err
	}
	if len(values) != a.meta.ChunkLen() {
		return errors.Newf(errors.ErrChunkShapeMismatch, "chunk %v needs %d values, got %d", coord, a.meta.ChunkLen(), len(values))
	}

	buf := &bytes.Buffer{}
	w, err := a.meta.Compressor.Compressor(buf)
	if err != nil {
		return err
	}
	if err := encodeValues(a.meta.Dtype, w, values); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := a.store.Put(a.chunkPath(coord).String(), buf); err != nil {
		return errors.WithCode(err, errors.ErrStoreUnavailable, fmt.Sprintf("writing chunk %v of %q", coord, a.path))
	}
	return nil
}

func (a *Array) checkCoord(coord []int) error {
	grid, err := ChunkGrid(a.meta.Shape, a.meta.Chunks)
	if err != nil {
		return err
	}
	if len(coord) != len(grid) {
		return errors.Newf(errors.ErrInvalidShape, "chunk coordinate %v for a %d-D array", coord, len(grid))
	}
	for i, c := range coord {
		if c < 0 || c >= grid[i] {
			return errors.Newf(errors.ErrInvalidShape, "chunk coordinate %v outside grid %v", coord, grid)
		}
	}
	return nil
}

func (a *Array) chunkPath(ch []int) Path {
	return a.path.Join(ChunkKey(ch, a.meta.Separator()))
}

type PersistenceMode string

const (
	// Persistence mode:
	// ‘r’ means read only (must exist);
	ModeRead PersistenceMode = "r"
	//‘r+’ means read/write (must exist)
	ModeReadWrite PersistenceMode = "r+"
	// ‘a’ means read/write (create if doesn’t exist)
	ModeReadWriteCreate PersistenceMode = "a"
	// ‘w’ means create (overwrite if exists)
	ModeWrite PersistenceMode = "w"
	// ‘w-’ means create (fail if exists).
	ModeWriteFail PersistenceMode = "w-"
)

type Path []string

// NewPath normalizes a logical path so keys are identical across stores:
// backslashes become slashes, and empty segments are dropped. "." and ".."
// segments are rejected.
func NewPath(posix string) (Path, error) {
	posix = strings.ReplaceAll(posix, `\`, "/")
	var p Path
	for _, seg := range strings.Split(posix, "/") {
		switch seg {
		case "":
			continue
		case ".", "..":
			return nil, errors.Errorf("invalid path segment %q in %q", seg, posix)
		}
		p = append(p, seg)
	}
	return p, nil
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) Join(elems ...string) Path {
	out := make(Path, 0, len(p)+len(elems))
	out = append(out, p...)
	return append(out, elems...)
}
