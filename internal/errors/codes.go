// Package errors provides structured error handling for Passage.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk, index)
//   - 3XX: Network errors (embedding or search backend)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and index I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates network-related errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeChunkParams    = "ERR_103_CHUNK_PARAMS"

	// IO errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeCorruptIndex = "ERR_202_CORRUPT_INDEX"
	ErrCodeIndexLocked  = "ERR_203_INDEX_LOCKED"

	// Network errors (300-399)
	ErrCodeBackendUnavailable  = "ERR_301_BACKEND_UNAVAILABLE"
	ErrCodeEmbedderUnavailable = "ERR_302_EMBEDDER_UNAVAILABLE"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidMode       = "ERR_402_INVALID_MODE"
	ErrCodeDimensionMismatch = "ERR_403_DIMENSION_MISMATCH"
	ErrCodeQueryEmpty        = "ERR_404_QUERY_EMPTY"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed     = "ERR_504_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from error code.
// Config and validation errors are fatal to the calling operation;
// network errors are recoverable at the orchestration boundary.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig, CategoryValidation:
		return SeverityFatal
	case CategoryNetwork:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with this code
// may be retried. Only network errors are retryable.
func isRetryableCode(code string) bool {
	return categoryFromCode(code) == CategoryNetwork
}
