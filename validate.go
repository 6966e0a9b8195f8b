package xlcalc

import (
	"fmt"
	"strings"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Pair cannot be loaded
	SeverityWarning                 // Pair loads but probably not as intended
)

// ValidationIssue represents a single problem found in load input.
type ValidationIssue struct {
	Severity Severity
	Cell     string
	Message  string
}

// String formats the issue as "[ERROR] A2: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, v.Cell, v.Message)
}

// Validate checks pairs for malformed cell ids, unparsable formulas and
// repeated cells without evaluating anything. Only WithParser is honored
// among opts.
func Validate(pairs []Pair, opts ...Option) []ValidationIssue {
	o := buildOptions(opts)
	var issues []ValidationIssue
	seen := make(map[CellID]int)
	for i, p := range pairs {
		id, err := ParseCellID(p.Cell)
		if err != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Cell:     p.Cell,
				Message:  err.Error(),
			})
			continue
		}
		if _, err := o.parse(p.Expr, id); err != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Cell:     id.String(),
				Message:  err.Error(),
			})
		}
		if prev, dup := seen[id]; dup {
			issues = append(issues, ValidationIssue{
				Severity: SeverityWarning,
				Cell:     id.String(),
				Message:  fmt.Sprintf("pair %d overrides pair %d", i+1, prev+1),
			})
		}
		seen[id] = i
	}
	return issues
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

func issuesError(issues []ValidationIssue) error {
	var msgs []string
	for _, is := range issues {
		if is.Severity == SeverityError {
			msgs = append(msgs, is.String())
		}
	}
	return &Error{Kind: KindBadRequest, Msg: strings.Join(msgs, "; ")}
}
