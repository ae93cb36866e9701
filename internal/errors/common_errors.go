package errors

import "fmt"

// Predefined error values for common scenarios. Use the helper
// constructors below when the message needs the offending name.
var (
	// Configuration
	ErrMissingFile         = New(KindConfig, "MISSING_FILE", "required file is missing")
	ErrUnknownColumn       = New(KindConfig, "UNKNOWN_COLUMN", "unknown column")
	ErrUnknownType         = New(KindConfig, "UNKNOWN_TYPE", "unknown type")
	ErrConflictingApps     = New(KindConfig, "CONFLICTING_APPLICATIONS", "applications cannot be combined")
	ErrDuplicateIndex      = New(KindConfig, "DUPLICATE_INDEX", "combination of sector and region already given")
	ErrAlreadySplit        = New(KindConfig, "ALREADY_SPLIT", "axis member already has sub-parts")
	ErrUnknownSuper        = New(KindConfig, "UNKNOWN_SUPER", "no such super sector or region")
	ErrTooManyApplications = New(KindConfig, "TOO_MANY_APPLICATIONS", "more than two applications apply")
	ErrValidationFailed    = New(KindConfig, "VALIDATION_FAILED", "settings validation failed")

	// Data
	ErrNegativeProxyValue = New(KindData, "NEGATIVE_PROXY_VALUE", "proxy values must not be negative")
	ErrValueRequired      = New(KindData, "VALUE_REQUIRED", "a numeric value is required here")
	ErrRowWidthMismatch   = New(KindData, "ROW_WIDTH_MISMATCH", "row has wrong number of columns")
	ErrTooManyRows        = New(KindData, "TOO_MANY_ROWS", "too many rows")
	ErrNotEnoughRows      = New(KindData, "NOT_ENOUGH_ROWS", "not enough rows")

	// Parse
	ErrMalformedCSV  = New(KindParse, "MALFORMED_CSV", "malformed CSV input")
	ErrMalformedYAML = New(KindParse, "MALFORMED_YAML", "malformed YAML input")
	ErrBadNumber     = New(KindParse, "BAD_NUMBER", "could not parse number")
)

// UnknownSector creates a configuration error naming the missing sector.
func UnknownSector(name string) *Error {
	return Newf(KindConfig, "UNKNOWN_SECTOR", "sector %q not found", name)
}

// UnknownRegion creates a configuration error naming the missing region.
func UnknownRegion(name string) *Error {
	return Newf(KindConfig, "UNKNOWN_REGION", "region %q not found", name)
}

// AlreadySplit creates a configuration error naming the split member.
func AlreadySplit(name string) *Error {
	return NewWithDetails(KindConfig, "ALREADY_SPLIT", fmt.Sprintf("%q already has sub-parts", name), name)
}

// NotASuper creates a configuration error for split targets that are
// themselves sub-parts.
func NotASuper(name string) *Error {
	return NewWithDetails(KindConfig, "NOT_A_SUPER", fmt.Sprintf("%q is not a super sector or region", name), name)
}

// DuplicateIndex creates a configuration error for a re-admitted pair.
func DuplicateIndex(sector, region string) *Error {
	return NewWithDetails(KindConfig, "DUPLICATE_INDEX",
		fmt.Sprintf("combination of sector %q and region %q already given", sector, region),
		[2]string{sector, region})
}

// NegativeProxyValue creates a data error naming the offending value.
func NegativeProxyValue(value float64) *Error {
	return NewWithDetails(KindData, "NEGATIVE_PROXY_VALUE",
		fmt.Sprintf("invalid proxy value %g", value), value)
}
