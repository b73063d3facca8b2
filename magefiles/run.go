//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs every package test with the race detector.
func (Run) Test() error {
	fmt.Println("Run tests...")
	if _, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs go vet over the module.
func (Run) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Watches the project assets until interrupted.
func (Run) Watch() error {
	mg.Deps(Run.Vet)
	_, err := executeCmd("go", withArgs("run", ".", "watch"), withStream())
	return err
}
