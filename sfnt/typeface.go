package sfnt

import (
	"fmt"
	"time"
)

// DefaultEm is the number of font units per em used for new typefaces.
const DefaultEm = 1024

// DefaultLicense is the license put in the name table unless another is set.
const DefaultLicense = "CC BY-SA 3.0 http://creativecommons.org/licenses/by-sa/3.0/"

// Metric identifies a range-checked typeface metric.
type Metric int

// see Metric
const (
	Baseline Metric = iota
	Meanline
	Ascender
	Descender
	XHeight
	TopSideBearing
	BottomSideBearing
)

func (m Metric) String() string {
	switch m {
	case Baseline:
		return "baseline"
	case Meanline:
		return "meanline"
	case Ascender:
		return "ascender"
	case Descender:
		return "descender"
	case XHeight:
		return "xHeight"
	case TopSideBearing:
		return "topSideBearing"
	case BottomSideBearing:
		return "bottomSideBearing"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// RangeError is returned when a metric is set outside of its accepted range. The previous value remains in effect.
type RangeError struct {
	Metric   Metric
	Value    float64
	Min, Max float64
}

func (err *RangeError) Error() string {
	return fmt.Sprintf("%v: %v out of range [%v,%v]", err.Metric, err.Value, err.Min, err.Max)
}

// Typeface holds the font-wide naming information and vertical metrics. All metrics are in font units.
type Typeface struct {
	Name          string // used for the output filename
	FamilyName    string
	SubFamily     string
	Version       string
	Author        string
	CopyrightYear string
	License       string

	// Modified is written as the created and modified date of the head table. The zero time is written as zero so that output is reproducible.
	Modified time.Time

	// AdvanceWidth is used for the space glyph that is added by default.
	AdvanceWidth int

	em      float64
	metrics [7]float64
}

// NewTypeface returns a typeface with default metrics for an em of DefaultEm units.
func NewTypeface(name string) *Typeface {
	t := &Typeface{
		Name:         name,
		FamilyName:   name,
		SubFamily:    "Regular",
		Version:      "0.1",
		License:      DefaultLicense,
		AdvanceWidth: 512,
		em:           DefaultEm,
	}
	t.SetDefaultMetrics()
	return t
}

// Em returns the number of font units per em.
func (t *Typeface) Em() float64 {
	return t.em
}

// SetDefaultMetrics sets the top side bearing to 170, ascender to 683, x-height to 424, descender to 171, and bottom side bearing to 0 (for an em of 1024). Baseline and meanline are reset.
func (t *Typeface) SetDefaultMetrics() {
	f := t.em / DefaultEm
	t.metrics[TopSideBearing] = 170 * f
	t.metrics[Ascender] = 683 * f
	t.metrics[XHeight] = 424 * f
	t.metrics[Descender] = 171 * f
	t.metrics[BottomSideBearing] = 0
	t.metrics[Baseline] = 0
	t.metrics[Meanline] = 0
}

// Get returns the current value of a metric.
func (t *Typeface) Get(m Metric) float64 {
	return t.metrics[m]
}

// Range returns the accepted range of a metric given the current state of the typeface.
func (t *Typeface) Range(m Metric) (float64, float64) {
	switch m {
	case Baseline:
		return -t.em, t.em
	case Ascender:
		return min(t.em, t.metrics[XHeight]), t.em
	case XHeight:
		return 0, min(t.em, t.metrics[Ascender])
	}
	return 0, t.em
}

// Set sets a metric. It returns a *RangeError and leaves the previous value in effect when v is out of range.
func (t *Typeface) Set(m Metric, v float64) error {
	lo, hi := t.Range(m)
	if v < lo || hi < v || v != v {
		return &RangeError{Metric: m, Value: v, Min: lo, Max: hi}
	}
	t.metrics[m] = v
	return nil
}

// Ascender returns the ascender above the baseline.
func (t *Typeface) Ascender() float64 {
	return t.metrics[Ascender]
}

// Descender returns the descender below the baseline as a positive number.
func (t *Typeface) Descender() float64 {
	return t.metrics[Descender]
}

// XHeight returns the x-height, or the meanline when no x-height is set.
func (t *Typeface) XHeight() float64 {
	if t.metrics[XHeight] == 0 {
		return t.metrics[Meanline]
	}
	return t.metrics[XHeight]
}

func (t *Typeface) lineAscent() int16 {
	return toFUnit(t.metrics[Ascender] + t.metrics[TopSideBearing])
}

func (t *Typeface) lineDescent() int16 {
	return -toFUnit(t.metrics[Descender] + t.metrics[BottomSideBearing])
}

func (t *Typeface) copyright() string {
	if t.CopyrightYear == "" && t.Author == "" {
		return ""
	} else if t.Author == "" {
		return fmt.Sprintf("Copyright (c) %s", t.CopyrightYear)
	} else if t.CopyrightYear == "" {
		return fmt.Sprintf("Copyright (c) %s", t.Author)
	}
	return fmt.Sprintf("Copyright (c) %s %s", t.CopyrightYear, t.Author)
}
