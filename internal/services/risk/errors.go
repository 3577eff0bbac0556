package risk

import (
	"errors"
	"fmt"
)

// Service errors
var (
	ErrInvalidRuleTable = errors.New("invalid rule table")
	ErrInvalidBandTable = errors.New("invalid band table")
	ErrUnknownCategory  = errors.New("unknown event category")
)

func errInvalidRuleWeight(name string, weight float64) error {
	return fmt.Errorf("%w: rule %s has weight %v outside (0, 1]", ErrInvalidRuleTable, name, weight)
}

func errIncompleteRule(name string) error {
	return fmt.Errorf("%w: rule %s is missing a predicate or reason", ErrInvalidRuleTable, name)
}
