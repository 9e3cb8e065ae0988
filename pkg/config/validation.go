package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/treefs/pkg/name"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if len(cfg.Roots) == 0 {
		return fmt.Errorf("roots: at least one root must be configured")
	}

	canon, err := buildCanonicalizer(&cfg.Names)
	if err != nil {
		return fmt.Errorf("names: %w", err)
	}

	// Root names must be distinct after canonicalization: with case folding
	// "C:" and "c:" are the same root.
	seen := make(map[string]int, len(cfg.Roots))
	for i, root := range cfg.Roots {
		n, err := canon.RootName(root)
		if err != nil {
			return fmt.Errorf("roots[%d]: %w", i, err)
		}
		if j, dup := seen[n.Canonical()]; dup {
			return fmt.Errorf("roots[%d]: duplicate root name %q (same as roots[%d])", i, root, j)
		}
		seen[n.Canonical()] = i
	}

	return nil
}

// buildCanonicalizer turns the configured normalization lists into a
// Canonicalizer, rejecting conflicting combinations such as nfc+nfd.
func buildCanonicalizer(cfg *NamesConfig) (*name.Canonicalizer, error) {
	display, err := name.ParseNormalizations(cfg.Display)
	if err != nil {
		return nil, err
	}
	canonical, err := name.ParseNormalizations(cfg.Canonical)
	if err != nil {
		return nil, err
	}
	return name.NewCanonicalizer(display, canonical)
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
