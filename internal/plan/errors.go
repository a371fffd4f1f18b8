package plan

import "errors"

// Sentinel errors for the plan package
var (
	// ErrNoTargets indicates the plan has no targets defined
	ErrNoTargets = errors.New("plan must contain at least one target")

	// ErrEmptyLogin indicates a target is missing the required login field
	ErrEmptyLogin = errors.New("target login cannot be empty")

	// ErrBadType indicates a target type other than groups or users
	ErrBadType = errors.New("target type must be groups or users")

	// ErrInvalidFormat indicates the plan file is not valid YAML or JSON
	ErrInvalidFormat = errors.New("plan must be valid YAML or JSON")

	// ErrFileNotFound indicates the plan file does not exist
	ErrFileNotFound = errors.New("plan file not found")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml, .yml, or .json)")
)
