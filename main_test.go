package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newCLIProject(t *testing.T) (string, string) {
	t.Helper()
	project := t.TempDir()
	writeFile(t, project, "Assets/Art/Hero.txt", "the hero")
	writeFile(t, project, "Assets/Resources/Greeting.txt", "hello")
	writeFile(t, project, "pack.toml", "[[bundles]]\nname = \"art\"\nassets = [\"Assets/Art\"]\n")
	config := writeFile(t, project, "resources.toml", `
load_mode = "all"

[log]
level = "error"

[editor]
enabled = false

[jobs]
workers = 0
`)
	return project, config
}

func TestPackManifestLoad(t *testing.T) {
	project, config := newCLIProject(t)

	out, err := run(t, "--config", config, "pack", filepath.Join(project, "pack.toml"))
	require.NoError(t, err)
	assert.Contains(t, out, "art.bundle\t1 assets")

	out, err = run(t, "--config", config, "manifest", "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "art\tart.bundle\tdeps=-\t1 assets\tok")

	out, err = run(t, "--config", config, "manifest", "--output", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: art")
	assert.Contains(t, out, "- Assets/Art/Hero.txt")

	out, err = run(t, "--config", config, "--mode", "bundle", "load", "--print", "Assets/Art/Hero.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Assets/Art/Hero.txt\tbundle\ttext\t8 bytes")
	assert.Contains(t, out, "the hero")

	out, err = run(t, "--config", config, "load", "--editor", "Assets/Art/Hero.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Assets/Art/Hero.txt\teditor\ttext")

	out, err = run(t, "--config", config, "load", "--stats", "Assets/Resources/Greeting.txt", "Assets/Nope.txt")
	assert.Error(t, err)
	assert.Contains(t, out, "Assets/Resources/Greeting.txt\tresources\ttext")
	assert.Contains(t, out, "Assets/Nope.txt\tnot found")
	assert.Contains(t, out, "loads=2 misses=1")
}

func TestLoadFlagErrors(t *testing.T) {
	_, config := newCLIProject(t)

	_, err := run(t, "--config", config, "--mode", "sometimes", "load", "Assets/Art/Hero.txt")
	assert.Error(t, err)

	_, err = run(t, "--config", config, "load", "--type", "sound", "Assets/Art/Hero.txt")
	assert.Error(t, err)

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "load", "Assets/Art/Hero.txt")
	assert.Error(t, err)
}

func TestCat(t *testing.T) {
	p := writeFile(t, t.TempDir(), "notes.txt", "raw text")

	out, err := run(t, "cat", p)
	require.NoError(t, err)
	assert.Equal(t, "raw text", out)

	out, err = run(t, "cat", "--hex", p)
	require.NoError(t, err)
	assert.Contains(t, out, "72 61 77")

	_, err = run(t, "cat", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
