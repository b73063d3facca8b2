package systems

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spaghettifunk/anima-resources/engine/core"
)

// LoadByteFile reads an absolute file system path outside the asset stores.
// Missing files, directories and the empty path are not found.
func LoadByteFile(absPath string) ([]byte, bool) {
	if absPath == "" {
		return nil, false
	}
	st, err := os.Stat(absPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			core.LogWith("failed to stat file", "path", absPath, "err", err)
		}
		return nil, false
	}
	if !st.Mode().IsRegular() {
		return nil, false
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		core.LogWith("failed to read file", "path", absPath, "err", err)
		return nil, false
	}
	return data, true
}

// LoadTextFile is LoadByteFile returning the content as a string.
func LoadTextFile(absPath string) (string, bool) {
	data, ok := LoadByteFile(absPath)
	if !ok {
		return "", false
	}
	return string(data), true
}
