package loader

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/nathoo/questrules/engine/instruction"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var (
	errEmptyName = errors.New("name is empty")
	errDotInName = errors.New("name must not contain " + instruction.Separator)
	errSpaceName = errors.New("name must not contain whitespace")
)

// validateName checks a package or local definition name.
func validateName(name string) error {
	switch {
	case name == "":
		return errEmptyName
	case strings.Contains(name, instruction.Separator):
		return errDotInName
	case strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return errSpaceName
	}
	return nil
}

// validate drops invalid and duplicate definitions, recording a warning
// for each. The first definition of a name in a category wins.
func validate(defs []rawDef, ve *ValidationError) []rawDef {
	type key struct {
		category string
		name     string
	}
	seen := map[key]string{}
	var kept []rawDef
	for _, d := range defs {
		if err := validateName(d.name); err != nil {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"%s: %s %q skipped: %v", d.source, d.category, d.name, err))
			continue
		}
		if strings.TrimSpace(d.body) == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"%s: %s %q skipped: empty instruction", d.source, d.category, d.name))
			continue
		}
		k := key{string(d.category), d.name}
		if first, ok := seen[k]; ok {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"%s: duplicate %s %q skipped, first defined in %s", d.source, d.category, d.name, first))
			continue
		}
		seen[k] = d.source
		kept = append(kept, d)
	}
	return kept
}
