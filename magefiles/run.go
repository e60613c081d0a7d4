//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Imports everything under $ASSETS (default ./assets) once.
func (Run) Import() error {
	fmt.Println("Run import...")
	_, err := executeCmd("go", withArgs("run", ".", "-assets", assetsDir()), withStream())
	return err
}

// Imports everything under $ASSETS and keeps watching for changes.
func (Run) Watch() error {
	_, err := executeCmd("go", withArgs("run", ".", "-assets", assetsDir(), "-watch", "-log-level", "debug"), withStream())
	return err
}

func assetsDir() string {
	if dir := os.Getenv("ASSETS"); dir != "" {
		return dir
	}
	return "assets"
}
