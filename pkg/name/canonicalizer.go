package name

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalization is a transformation applied to a name string.
type Normalization string

const (
	// NormalizationNone leaves the string unchanged.
	NormalizationNone Normalization = "none"

	// NormalizationNFC applies Unicode composition.
	NormalizationNFC Normalization = "nfc"

	// NormalizationNFD applies Unicode decomposition.
	NormalizationNFD Normalization = "nfd"

	// NormalizationCaseFoldUnicode applies full Unicode case folding.
	NormalizationCaseFoldUnicode Normalization = "case_fold_unicode"

	// NormalizationCaseFoldASCII folds only ASCII letters to lower case.
	NormalizationCaseFoldASCII Normalization = "case_fold_ascii"
)

// ErrInvalidName is returned for strings that cannot name a directory entry.
var ErrInvalidName = errors.New("invalid name")

// Canonicalizer turns raw strings into Names.
//
// Display normalizations produce the display form; canonical normalizations
// are applied on top of the display form to produce the canonical form. A
// case-insensitive filesystem typically uses no display normalization and a
// case fold for the canonical form.
type Canonicalizer struct {
	display   []Normalization
	canonical []Normalization
}

// NewCanonicalizer validates the normalization lists and returns a
// Canonicalizer. Each list may contain at most one of nfc/nfd and at most one
// case fold.
func NewCanonicalizer(display, canonical []Normalization) (*Canonicalizer, error) {
	if err := checkNormalizations(display); err != nil {
		return nil, fmt.Errorf("display normalization: %w", err)
	}
	if err := checkNormalizations(canonical); err != nil {
		return nil, fmt.Errorf("canonical normalization: %w", err)
	}
	return &Canonicalizer{
		display:   slicesWithout(display, NormalizationNone),
		canonical: slicesWithout(canonical, NormalizationNone),
	}, nil
}

// ParseNormalizations converts configuration strings to Normalizations.
func ParseNormalizations(values []string) ([]Normalization, error) {
	out := make([]Normalization, 0, len(values))
	for _, v := range values {
		n := Normalization(strings.ToLower(strings.TrimSpace(v)))
		switch n {
		case NormalizationNone, NormalizationNFC, NormalizationNFD,
			NormalizationCaseFoldUnicode, NormalizationCaseFoldASCII:
			out = append(out, n)
		default:
			return nil, fmt.Errorf("unknown normalization %q", v)
		}
	}
	return out, nil
}

func checkNormalizations(ns []Normalization) error {
	var unicodeForms, folds int
	for _, n := range ns {
		switch n {
		case NormalizationNone:
		case NormalizationNFC, NormalizationNFD:
			unicodeForms++
		case NormalizationCaseFoldUnicode, NormalizationCaseFoldASCII:
			folds++
		default:
			return fmt.Errorf("unknown normalization %q", n)
		}
	}
	if unicodeForms > 1 {
		return errors.New("nfc and nfd are mutually exclusive")
	}
	if folds > 1 {
		return errors.New("only one case fold may be applied")
	}
	return nil
}

func slicesWithout(ns []Normalization, drop Normalization) []Normalization {
	out := make([]Normalization, 0, len(ns))
	for _, n := range ns {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

// Name canonicalizes s. The strings "." and ".." always yield Self and Parent.
func (c *Canonicalizer) Name(s string) (Name, error) {
	switch s {
	case ".":
		return Self, nil
	case "..":
		return Parent, nil
	case "":
		return Name{}, fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(s, "/\x00") {
		return Name{}, fmt.Errorf("%w: %q contains a separator or NUL", ErrInvalidName, s)
	}

	display := apply(s, c.display)
	return newUser(display, apply(display, c.canonical)), nil
}

// RootName canonicalizes the name of a root directory, such as "/" or "C:\\".
// Unlike Name it accepts separators, but "." and ".." are rejected.
func (c *Canonicalizer) RootName(s string) (Name, error) {
	switch {
	case s == "", s == ".", s == "..":
		return Name{}, fmt.Errorf("%w: %q is not a root name", ErrInvalidName, s)
	case strings.ContainsRune(s, 0):
		return Name{}, fmt.Errorf("%w: %q contains NUL", ErrInvalidName, s)
	}

	display := apply(s, c.display)
	return newUser(display, apply(display, c.canonical)), nil
}

// MustName is like Name but panics on error. Intended for constants and tests.
func (c *Canonicalizer) MustName(s string) Name {
	n, err := c.Name(s)
	if err != nil {
		panic(err)
	}
	return n
}

func apply(s string, ns []Normalization) string {
	for _, n := range ns {
		switch n {
		case NormalizationNFC:
			s = norm.NFC.String(s)
		case NormalizationNFD:
			s = norm.NFD.String(s)
		case NormalizationCaseFoldUnicode:
			s = cases.Fold().String(s)
		case NormalizationCaseFoldASCII:
			s = foldASCII(s)
		}
	}
	return s
}

// foldASCII lowercases A-Z only, leaving every other byte untouched.
func foldASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
