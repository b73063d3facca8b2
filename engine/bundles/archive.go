package bundles

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zip"

	"github.com/spaghettifunk/anima-resources/engine/core"
)

// archive is one opened bundle file. pins counts the loads and bundles that
// currently need it open; retired is set while it waits in the keep-open ring.
type archive struct {
	name    string
	path    string
	file    *os.File
	entries map[string]*zip.File

	pins    int
	retired bool
	closed  bool
}

func openArchive(name, path, expectedHash string) (*archive, error) {
	if expectedHash != "" {
		got, err := HashFile(path)
		if err != nil {
			return nil, err
		}
		if got != expectedHash {
			return nil, fmt.Errorf("%w: %s has %s, manifest says %s", core.ErrBundleHashMismatch, name, got, expectedHash)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	zr, err := zip.NewReader(f, st.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bundle %s: %w", name, err)
	}

	a := &archive{
		name:    name,
		path:    path,
		file:    f,
		entries: make(map[string]*zip.File, len(zr.File)),
	}
	for _, zf := range zr.File {
		a.entries[zf.Name] = zf
	}
	core.LogDebug("Bundle '%s' opened with %d entries.", name, len(a.entries))
	return a, nil
}

func (a *archive) has(entry string) bool {
	_, ok := a.entries[entry]
	return ok
}

func (a *archive) read(entry string) ([]byte, error) {
	zf, ok := a.entries[entry]
	if !ok {
		return nil, fmt.Errorf("%w: %s not in bundle %s", core.ErrAssetNotFound, entry, a.name)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (a *archive) close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	core.LogDebug("Bundle '%s' closed.", a.name)
	return a.file.Close()
}

// HashFile returns the xxhash64 of a file as 16 hex digits.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", d.Sum64()), nil
}
