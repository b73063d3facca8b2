package resources

import (
	"fmt"
	"strings"
)

// LoadMode selects which backing stores a load consults.
type LoadMode int

const (
	// Only the editor asset database.
	LoadModeEditorAsset LoadMode = iota
	// Only packaged bundles.
	LoadModeAssetBundle
	// Only the runtime resource folder.
	LoadModeOriginal
	// Editor, then bundles, then the resource folder.
	LoadModeAll
)

const DefaultLoadMode = LoadModeAll

var loadModeNames = [...]string{
	LoadModeEditorAsset: "editor",
	LoadModeAssetBundle: "bundle",
	LoadModeOriginal:    "original",
	LoadModeAll:         "all",
}

func (m LoadMode) String() string {
	if m >= 0 && int(m) < len(loadModeNames) {
		return loadModeNames[m]
	}
	return fmt.Sprintf("LoadMode(%d)", int(m))
}

func (m LoadMode) Valid() bool {
	return m >= LoadModeEditorAsset && m <= LoadModeAll
}

// UsesEditor reports whether the editor asset database is consulted.
func (m LoadMode) UsesEditor() bool {
	return m == LoadModeEditorAsset || m == LoadModeAll
}

// UsesBundles reports whether packaged bundles are consulted.
func (m LoadMode) UsesBundles() bool {
	return m == LoadModeAssetBundle || m == LoadModeAll
}

// UsesResources reports whether the runtime resource folder is consulted.
func (m LoadMode) UsesResources() bool {
	return m == LoadModeOriginal || m == LoadModeAll
}

func ParseLoadMode(s string) (LoadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "editor", "editorasset", "editor_asset":
		return LoadModeEditorAsset, nil
	case "bundle", "assetbundle", "asset_bundle":
		return LoadModeAssetBundle, nil
	case "original", "resources":
		return LoadModeOriginal, nil
	case "all", "":
		return LoadModeAll, nil
	}
	return LoadModeAll, fmt.Errorf("unknown load mode %q", s)
}

func (m LoadMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid load mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *LoadMode) UnmarshalText(text []byte) error {
	v, err := ParseLoadMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
