//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}

// Runs the tests of one package, e.g. PKG=./engine/sprite.
func (Test) Pkg(pkg string) error {
	_, err := executeCmd("go", withArgs("test", "-count=1", "-v", pkg), withStream())
	return err
}
