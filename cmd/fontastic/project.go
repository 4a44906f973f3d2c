package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/tdewolff/fontastic"
	"github.com/tdewolff/fontastic/sfnt"
	"gopkg.in/yaml.v3"
)

// Project is a font described in a YAML file.
type Project struct {
	Name          string             `yaml:"name"`
	FamilyName    string             `yaml:"familyName"`
	SubFamily     string             `yaml:"subFamily"`
	Version       string             `yaml:"version"`
	Author        string             `yaml:"author"`
	CopyrightYear string             `yaml:"copyrightYear"`
	License       string             `yaml:"license"`
	AdvanceWidth  int                `yaml:"advanceWidth"`
	Metrics       map[string]float64 `yaml:"metrics"`
	Glyphs        []ProjectGlyph     `yaml:"glyphs"`
}

// ProjectGlyph is a glyph of a project. Its advance width defaults to the project's.
type ProjectGlyph struct {
	Char         string           `yaml:"char"`
	AdvanceWidth int              `yaml:"advanceWidth"`
	Contours     []ProjectContour `yaml:"contours"`
}

// ProjectContour is either a rectangle [x, y, w, h] or a list of points.
type ProjectContour struct {
	Rect   []float64      `yaml:"rect"`
	Points []ProjectPoint `yaml:"points"`
}

// ProjectPoint is an anchor with optional incoming and outgoing control points as [x, y].
type ProjectPoint struct {
	X   float64   `yaml:"x"`
	Y   float64   `yaml:"y"`
	In  []float64 `yaml:"in"`
	Out []float64 `yaml:"out"`
}

var metricSetters = map[string]func(*fontastic.Font, float64) error{
	"baseline":          (*fontastic.Font).SetBaseline,
	"meanline":          (*fontastic.Font).SetMeanline,
	"ascender":          (*fontastic.Font).SetAscender,
	"descender":         (*fontastic.Font).SetDescender,
	"xHeight":           (*fontastic.Font).SetXHeight,
	"topSideBearing":    (*fontastic.Font).SetTopSideBearing,
	"bottomSideBearing": (*fontastic.Font).SetBottomSideBearing,
}

// metricOrder is the order in which metrics are set. The x-height may not exceed the ascender, so a lowered ascender is set after the x-height.
var (
	metricOrder            = []string{"baseline", "meanline", "ascender", "descender", "xHeight", "topSideBearing", "bottomSideBearing"}
	metricOrderLowAscender = []string{"baseline", "meanline", "xHeight", "ascender", "descender", "topSideBearing", "bottomSideBearing"}
)

func readProject(filename string) (*Project, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	project := &Project{}
	if err := yaml.Unmarshal(b, project); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	} else if project.Name == "" {
		return nil, fmt.Errorf("%s: name not set", filename)
	}
	for key := range project.Metrics {
		if _, ok := metricSetters[key]; !ok {
			return nil, fmt.Errorf("%s: unknown metric %q", filename, key)
		}
	}
	return project, nil
}

// Apply adds the metadata, metrics, and glyphs of the project to f. Metrics out of range are logged by f and skipped.
func (project *Project) Apply(f *fontastic.Font) error {
	if project.FamilyName != "" {
		f.SetFamilyName(project.FamilyName)
	}
	if project.SubFamily != "" {
		f.SetSubFamily(project.SubFamily)
	}
	if project.Version != "" {
		f.SetVersion(project.Version)
	}
	if project.License != "" {
		f.SetLicense(project.License)
	}
	f.SetAuthor(project.Author)
	f.SetCopyrightYear(project.CopyrightYear)
	if project.AdvanceWidth != 0 {
		f.SetAdvanceWidth(project.AdvanceWidth)
	}
	order := metricOrder
	if asc, ok := project.Metrics["ascender"]; ok && asc < f.Metric(sfnt.XHeight) {
		order = metricOrderLowAscender
	}
	for _, key := range order {
		if v, ok := project.Metrics[key]; ok {
			_ = metricSetters[key](f, v)
		}
	}

	for i, glyph := range project.Glyphs {
		r, n := utf8.DecodeRuneInString(glyph.Char)
		if r == utf8.RuneError || n != len(glyph.Char) {
			return fmt.Errorf("glyph %d: char must be a single character: %q", i, glyph.Char)
		}
		g := f.AddGlyph(r)
		if glyph.AdvanceWidth != 0 {
			g.SetAdvanceWidth(glyph.AdvanceWidth)
		}
		for j, contour := range glyph.Contours {
			c, err := contour.Contour()
			if err != nil {
				return fmt.Errorf("glyph %q: contour %d: %w", glyph.Char, j, err)
			}
			g.AddContour(c)
		}
	}
	return nil
}

// Contour returns the contour described by either Rect or Points.
func (contour ProjectContour) Contour() (*fontastic.Contour, error) {
	if contour.Rect != nil {
		if len(contour.Rect) != 4 {
			return nil, fmt.Errorf("rect must be [x, y, w, h]")
		} else if contour.Points != nil {
			return nil, fmt.Errorf("rect and points are exclusive")
		}
		return fontastic.Rect(contour.Rect[0], contour.Rect[1], contour.Rect[2], contour.Rect[3]), nil
	}

	c := fontastic.NewContour()
	for _, pp := range contour.Points {
		p := fontastic.NewPoint(pp.X, pp.Y)
		if pp.In != nil {
			if len(pp.In) != 2 {
				return nil, fmt.Errorf("in must be [x, y]")
			}
			p.SetControlPoint1(pp.In[0], pp.In[1])
		}
		if pp.Out != nil {
			if len(pp.Out) != 2 {
				return nil, fmt.Errorf("out must be [x, y]")
			}
			p.SetControlPoint2(pp.Out[0], pp.Out[1])
		}
		c.AddPoint(p)
	}
	return c, nil
}
