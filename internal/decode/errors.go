package decode

import (
	"fmt"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
)

// UnsupportedTypeError reports a variable whose storage type has no registered
// decoder. It is not fatal: the variable decodes to domain.Null.
type UnsupportedTypeError struct {
	Variable string
	Type     domain.StorageType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("variable %s: unsupported storage type %s", e.Variable, e.Type)
}

// DimensionMismatchError reports a buffer whose length does not match its
// declared shape, or a text width outside the supported set. It is fatal for
// the variable.
type DimensionMismatchError struct {
	Variable string
	Reason   string
}

func (e *DimensionMismatchError) Error() string {
	if e.Variable == "" {
		return "dimension mismatch: " + e.Reason
	}
	return fmt.Sprintf("variable %s: dimension mismatch: %s", e.Variable, e.Reason)
}
