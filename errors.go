package fieldmap

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fieldmap/mapping"
)

var (
	// ErrInvalidMapping is returned when a mapping definition cannot be
	// built (unknown property, unresolvable analyzer, malformed value).
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrMappingConflict is returned when a mapping update collides with the
	// live mapping. The wrapped *mapping.ConflictError carries the complete
	// conflict list.
	ErrMappingConflict = errors.New("mapping conflict")

	// ErrParseFailure is returned when a document value cannot be coerced to
	// its declared field type.
	ErrParseFailure = errors.New("document parse failure")

	// ErrEmptySource is returned when an empty mapping or document source is
	// given.
	ErrEmptySource = errors.New("empty source")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ce *mapping.ConflictError
	if errors.As(err, &ce) {
		return fmt.Errorf("%w: %w", ErrMappingConflict, err)
	}
	var se *mapping.SchemaError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}
	var pe *mapping.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %w", ErrParseFailure, err)
	}

	return err
}
