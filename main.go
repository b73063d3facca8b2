/*
Command line front end of the resource system: load assets through the
configured stores, read raw files, pack bundles and inspect manifests.
*/
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
