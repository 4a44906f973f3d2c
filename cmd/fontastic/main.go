package main

import (
	"log"
	"os"

	"github.com/tdewolff/argp"
)

var (
	Error   *log.Logger
	Warning *log.Logger
	Verbose *log.Logger
)

func main() {
	Error = log.New(os.Stderr, "ERROR: ", 0)
	Warning = log.New(os.Stderr, "WARNING: ", 0)
	Verbose = log.New(os.Stderr, "", 0)

	cmd := argp.New("Build TrueType and WOFF fonts from glyph outlines")
	cmd.AddCmd(&Build{}, "build", "Build a font from a YAML project file")
	cmd.AddCmd(&Info{}, "info", "Get font info")
	cmd.Parse()
}
