//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Tidies the module and builds the resources binary into bin/.
func (Build) Binary() error {
	if err := goTidy(); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/anima-resources", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Packs the bundles described in pack.toml with the project configuration.
func (Build) Pack() error {
	if _, err := executeCmd("go", withArgs("run", ".", "pack", "pack.toml"), withStream()); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("run", ".", "manifest", "--verify"), withStream())
	return err
}
