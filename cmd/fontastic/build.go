package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/tdewolff/fontastic"
	"github.com/tdewolff/prompt"
)

type Build struct {
	Output  string `short:"o" desc:"Output directory, the font is written to <output>/<name>"`
	WOFF2   bool   `desc:"Also package as WOFF2"`
	NoWOFF  bool   `name:"no-woff" desc:"Do not package as WOFF nor write the HTML preview"`
	Cleanup bool   `desc:"Remove glyph records after building"`
	Force   bool   `short:"f" desc:"Overwrite an existing font directory without asking"`
	Debug   bool   `short:"v" desc:"Print debug messages"`
	Input   string `index:"0" desc:"Input YAML project file"`
}

func (cmd *Build) Run() error {
	project, err := readProject(cmd.Input)
	if err != nil {
		return err
	}

	opts := fontastic.DefaultOptions()
	opts.Dir = cmd.Output
	if opts.Dir == "" {
		opts.Dir = "."
	}
	opts.WOFF = !cmd.NoWOFF
	opts.WOFF2 = cmd.WOFF2
	opts.Debug = cmd.Debug
	opts.Logger = newLogger(cmd.Debug)

	if !cmd.Force && !isEmptyDir(opts.Dir, project.Name) {
		if !prompt.YesNo(fmt.Sprintf("%s already exists, overwrite?", filepath.Join(opts.Dir, project.Name)), false) {
			return nil
		}
	}

	f, err := fontastic.New(project.Name, opts)
	if err != nil {
		return err
	} else if err := project.Apply(f); err != nil {
		return err
	}

	report, err := f.Build()
	if err != nil {
		return err
	}
	if cmd.Cleanup {
		if err := f.Cleanup(); err != nil {
			Warning.Println(err)
		}
	}
	for _, filename := range report.Files {
		info, err := os.Stat(filename)
		if err != nil {
			Warning.Println(err)
			continue
		}
		fmt.Printf("%s  %s\n", filename, formatBytes(uint64(info.Size())))
	}
	if 0 < len(report.Warnings) {
		Warning.Printf("%d packaging step(s) failed\n", len(report.Warnings))
	}
	return nil
}

func isEmptyDir(dir, name string) bool {
	entries, err := os.ReadDir(filepath.Join(dir, name))
	return err != nil || len(entries) == 0
}

func formatBytes(size uint64) string {
	if size < 10 {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"B", "kB", "MB", "GB", "TB", "PB", "EB"}
	scale := int(math.Floor((math.Log10(float64(size)) + math.Log10(2.0)) / 3.0))
	value := float64(size) / math.Pow10(scale*3.0)
	format := "%.0f %s"
	if value < 10.0 {
		format = "%.1f %s"
	}
	return fmt.Sprintf(format, value, units[scale])
}
