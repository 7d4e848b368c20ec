package loadorder

import (
	"errors"
	"fmt"

	"github.com/roach88/unlevel/internal/record"
)

// LayerErrorCode categorizes structural problems with layers and stores.
type LayerErrorCode string

const (
	// ErrCodeDuplicateKey indicates a key appears twice in one layer.
	ErrCodeDuplicateKey LayerErrorCode = "DUPLICATE_KEY"

	// ErrCodeUnknownCategory indicates a category no decoder knows.
	ErrCodeUnknownCategory LayerErrorCode = "UNKNOWN_CATEGORY"

	// ErrCodeCategoryMismatch indicates a record filed under the wrong category.
	ErrCodeCategoryMismatch LayerErrorCode = "CATEGORY_MISMATCH"

	// ErrCodeDuplicateLayer indicates two layers share a plugin name.
	ErrCodeDuplicateLayer LayerErrorCode = "DUPLICATE_LAYER"

	// ErrCodeInvalidKey indicates a zero or malformed FormKey.
	ErrCodeInvalidKey LayerErrorCode = "INVALID_KEY"
)

// LayerError is a structural error in the input load order.
// Structural errors are fatal: the load order cannot be trusted.
type LayerError struct {
	Code     LayerErrorCode
	Layer    record.ModKey
	Category record.Category
	Key      record.FormKey
	Message  string
}

// Error implements the error interface.
func (e *LayerError) Error() string {
	if !e.Key.IsZero() {
		return fmt.Sprintf("%s: %s (layer=%s, category=%s, key=%s)", e.Code, e.Message, e.Layer, e.Category, e.Key)
	}
	if e.Category != "" {
		return fmt.Sprintf("%s: %s (layer=%s, category=%s)", e.Code, e.Message, e.Layer, e.Category)
	}
	return fmt.Sprintf("%s: %s (layer=%s)", e.Code, e.Message, e.Layer)
}

// IsLayerError reports whether err wraps a LayerError with the given code.
func IsLayerError(err error, code LayerErrorCode) bool {
	var le *LayerError
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}
