package fontastic

import "github.com/tdewolff/fontastic/sfnt"

// setMetric forwards a metric to the typeface. When it is out of range a warning is logged and the previous value is kept.
func (f *Font) setMetric(m sfnt.Metric, v float64) error {
	if err := f.typeface.Set(m, v); err != nil {
		if rangeErr, ok := err.(*sfnt.RangeError); ok {
			f.logger.Warn("metric out of range", "metric", m.String(), "value", v, "min", rangeErr.Min, "max", rangeErr.Max)
		} else {
			f.logger.Warn(err.Error(), "metric", m.String(), "value", v)
		}
		return err
	}
	f.debug("metric set", "metric", m.String(), "value", v)
	return nil
}

// Metric returns the current value of a metric in font units.
func (f *Font) Metric(m sfnt.Metric) float64 {
	return f.typeface.Get(m)
}

// SetBaseline shifts all glyphs down by baseline font units.
func (f *Font) SetBaseline(baseline float64) error {
	return f.setMetric(sfnt.Baseline, baseline)
}

// SetMeanline sets the meanline, which is used as the x-height when no x-height is set.
func (f *Font) SetMeanline(meanline float64) error {
	return f.setMetric(sfnt.Meanline, meanline)
}

// SetAscender sets the ascender above the baseline. It may not be below the x-height.
func (f *Font) SetAscender(ascender float64) error {
	return f.setMetric(sfnt.Ascender, ascender)
}

// SetDescender sets the descender below the baseline as a positive number.
func (f *Font) SetDescender(descender float64) error {
	return f.setMetric(sfnt.Descender, descender)
}

// SetXHeight sets the x-height. It may not exceed the ascender.
func (f *Font) SetXHeight(xHeight float64) error {
	return f.setMetric(sfnt.XHeight, xHeight)
}

// SetTopSideBearing sets the line gap above the ascender.
func (f *Font) SetTopSideBearing(topSideBearing float64) error {
	return f.setMetric(sfnt.TopSideBearing, topSideBearing)
}

// SetBottomSideBearing sets the line gap below the descender.
func (f *Font) SetBottomSideBearing(bottomSideBearing float64) error {
	return f.setMetric(sfnt.BottomSideBearing, bottomSideBearing)
}

// SetDefaultMetrics restores the default metrics.
func (f *Font) SetDefaultMetrics() {
	f.typeface.SetDefaultMetrics()
	f.debug("default metrics set")
}
