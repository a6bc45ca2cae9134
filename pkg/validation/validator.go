// Package validation checks user-supplied node and storage parameters
// before a network is built. Structural checks (membership, cycles,
// commodity consistency) live in the network package; this package covers
// names and numeric ranges.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNameLength = 100

	// Node and commodity names end up as variable names in the emitted
	// problem, so they are restricted to identifier characters.
	namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

func init() {
	validate = validator.New()
}

// NodeParams holds the scalar parameters of a node
type NodeParams struct {
	Name           string  `validate:"required"`
	Costs          float64 `validate:"gte=0"`
	InputFlowCosts float64 `validate:"gte=0"`
}

// StorageParams holds the scalar parameters of a storage attachment
type StorageParams struct {
	Costs            float64 `validate:"gte=0"`
	MaxChargingSpeed float64 `validate:"gt=0,lte=1"`
	StorageLoss      float64 `validate:"gte=0,lt=1"`
	ChargingLoss     float64 `validate:"gte=0,lt=1"`
	InitialLevel     float64 `validate:"gte=0"`
}

// ValidateName validates a node or commodity name
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name '%s' exceeds maximum length of %d characters", name, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name '%s' is invalid (must start with a letter, followed by alphanumeric or underscore)", name)
	}
	return nil
}

// ValidateNodeParams validates a node's scalar parameters
func ValidateNodeParams(params *NodeParams) error {
	if params == nil {
		return errors.New("node params cannot be nil")
	}

	if err := ValidateName(params.Name); err != nil {
		return fmt.Errorf("Name: %w", err)
	}

	// Validate using struct tags
	if err := validate.Struct(params); err != nil {
		return formatValidationError(err)
	}

	return nil
}

// ValidateStorageParams validates a storage attachment's parameters
func ValidateStorageParams(params *StorageParams) error {
	if params == nil {
		return errors.New("storage params cannot be nil")
	}

	// Validate using struct tags
	if err := validate.Struct(params); err != nil {
		return formatValidationError(err)
	}

	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "lt":
			return fmt.Errorf("%s: must be less than %s", field, param)
		case "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
