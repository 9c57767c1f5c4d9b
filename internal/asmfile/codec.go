package asmfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"

	"mdref/internal/metadata"
)

// Image file extensions.
const (
	TOMLExt = ".asm.toml"
	PackExt = ".asm.mp"
)

// ErrUnknownFormat is returned for paths without a recognized extension.
var ErrUnknownFormat = errors.New("unknown image format")

// IsImage reports whether path has an image extension.
func IsImage(path string) bool {
	return strings.HasSuffix(path, TOMLExt) || strings.HasSuffix(path, PackExt)
}

// NameFromPath returns the assembly name encoded in an image file name
// ("dir/System.Runtime.asm.mp" -> "System.Runtime").
func NameFromPath(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{TOMLExt, PackExt} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// Load reads the image at path and builds its assembly.
func Load(path string) (*metadata.Assembly, error) {
	img, err := Read(path)
	if err != nil {
		return nil, err
	}
	asm, err := img.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return asm, nil
}

// Read decodes the image at path, choosing the codec by extension.
func Read(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var img *Image
	switch {
	case strings.HasSuffix(path, TOMLExt):
		img, err = DecodeTOML(f)
	case strings.HasSuffix(path, PackExt):
		img, err = DecodePack(f)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeTOML decodes a TOML image. Unknown keys are rejected so typos in
// hand-written images surface early.
func DecodeTOML(r io.Reader) (*Image, error) {
	var img Image
	meta, err := toml.NewDecoder(r).Decode(&img)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidImage, strings.Join(keys, ", "))
	}
	return &img, nil
}

// DecodePack decodes a msgpack image.
func DecodePack(r io.Reader) (*Image, error) {
	var img Image
	if err := msgpack.NewDecoder(r).Decode(&img); err != nil {
		return nil, fmt.Errorf("failed to decode packed image: %w", err)
	}
	return &img, nil
}

// WriteTOML encodes img as TOML.
func WriteTOML(w io.Writer, img *Image) error {
	return toml.NewEncoder(w).Encode(img)
}

// WritePack atomically writes img to path in msgpack form.
func WritePack(path string, img *Image) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
