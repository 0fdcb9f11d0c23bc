package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors (no external dependencies).
var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("duplicate resource")
	ErrValidation        = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrLockTimeout       = errors.New("lock acquisition timed out")
	ErrStocktakingLocked = errors.New("stocktaking is locked")
)

// CyclicBOMError reports a cycle found while walking a BOM graph.
// Path holds product codes from the root down to the repeated node.
type CyclicBOMError struct {
	Path []string
}

func (e *CyclicBOMError) Error() string {
	return "cyclic BOM: " + strings.Join(e.Path, " -> ")
}

// UnitConversionError reports a missing conversion factor between two units
// of measure for a product.
type UnitConversionError struct {
	ProductCode string
	From        string
	To          string
}

func (e *UnitConversionError) Error() string {
	return fmt.Sprintf("no conversion factor for %s: %s -> %s", e.ProductCode, e.From, e.To)
}

// InvalidStateTransitionError reports an attempt to move an entity backwards
// (or sideways) in its lifecycle state machine.
type InvalidStateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}
