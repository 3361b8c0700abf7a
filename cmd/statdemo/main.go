// Command statdemo is a developer tool for exercising the rpgstat engine
// from a YAML bonus table: load sources and bonuses, resolve one or more
// stats against a context, optionally fork and layer an overlay on top. It
// is not the engine's wire format or API — YAML/cobra here are purely for
// poking at a resolver from a terminal, the way the teacher's own cmd/
// binaries sat on top of its simulation package.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "statdemo:", err)
		os.Exit(1)
	}
}
