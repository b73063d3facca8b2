package resources

import (
	"path"
	"strings"
)

// ResourcesLocalDirectory is the project-relative resource root.
const ResourcesLocalDirectory = "Assets/Resources/"

// AssetsDirectory is the project-relative prefix every asset path starts with.
const AssetsDirectory = "Assets/"

// ResourcesDirectory is the absolute resource root for a project data path
// (the directory holding the project's Assets content).
func ResourcesDirectory(dataPath string) string {
	return strings.TrimRight(ToSlash(dataPath), "/") + "/Resources/"
}

// ToSlash converts both Windows and Unix separators to '/'.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// PathWithoutExtension strips the extension of the last path element only.
func PathWithoutExtension(p string) string {
	p = ToSlash(p)
	ext := path.Ext(p)
	if ext == "" || strings.HasSuffix(p, "/"+ext) {
		return p
	}
	return strings.TrimSuffix(p, ext)
}

// RelativeTo removes root from the front of p. Paths outside root are
// returned unchanged.
func RelativeTo(root, p string) string {
	root, p = ToSlash(root), ToSlash(p)
	if root == "" {
		return p
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	if strings.HasPrefix(p, root) {
		return p[len(root):]
	}
	return p
}

// ResourceKey converts a project-relative asset path into the key used by the
// runtime resource folder: "Assets/Resources/Foo/Bar.png" becomes "Foo/Bar".
func ResourceKey(assetPath string) string {
	return RelativeTo(ResourcesLocalDirectory, PathWithoutExtension(assetPath))
}

// BaseName returns the last element of p without its extension.
func BaseName(p string) string {
	p = ToSlash(p)
	b := path.Base(p)
	return strings.TrimSuffix(b, path.Ext(b))
}
