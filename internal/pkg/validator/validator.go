package validator

// Validator validates a struct based on its validation tags.
type Validator interface {
	// Validate returns an error describing the first set of violations found,
	// or nil when the struct is valid.
	Validate(data any) error
}
