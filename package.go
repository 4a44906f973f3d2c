package fontastic

import (
	"fmt"
	"os"

	"github.com/tdewolff/fontastic/woff"
	xsfnt "golang.org/x/image/font/sfnt"
)

// see PackageError
var (
	ErrUnreadableInput  = fmt.Errorf("unreadable input")
	ErrUnparseableFont  = fmt.Errorf("unparseable font")
	ErrUnwritableOutput = fmt.Errorf("unwritable output")
)

// PackageError is a failure of the packaging stage. Kind is one of ErrUnreadableInput, ErrUnparseableFont, or ErrUnwritableOutput and can be matched with errors.Is.
type PackageError struct {
	Kind error
	Path string
	Err  error
}

func (err *PackageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", err.Path, err.Kind, err.Err)
}

func (err *PackageError) Unwrap() []error {
	return []error{err.Kind, err.Err}
}

// PackageWOFF converts the TrueType font at ttfPath to WOFF and writes it to woffPath.
func PackageWOFF(ttfPath, woffPath string) error {
	return packageFont(ttfPath, woffPath, woff.FromSFNT)
}

// PackageWOFF2 converts the TrueType font at ttfPath to WOFF2 and writes it to woff2Path.
func PackageWOFF2(ttfPath, woff2Path string) error {
	return packageFont(ttfPath, woff2Path, woff.FromSFNT2)
}

func packageFont(src, dst string, convert func([]byte) ([]byte, error)) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return &PackageError{Kind: ErrUnreadableInput, Path: src, Err: err}
	} else if _, err := xsfnt.Parse(b); err != nil {
		return &PackageError{Kind: ErrUnparseableFont, Path: src, Err: err}
	}

	out, err := convert(b)
	if err != nil {
		return &PackageError{Kind: ErrUnparseableFont, Path: src, Err: err}
	} else if err := os.WriteFile(dst, out, 0644); err != nil {
		return &PackageError{Kind: ErrUnwritableOutput, Path: dst, Err: err}
	}
	return nil
}
