package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsafeFileName marks a vendor value that cannot be used as a single file
// name component, for example a product code or drawing number containing a
// path separator.
var ErrUnsafeFileName = errors.New("unsafe file name component")

// CheckFileName returns ErrUnsafeFileName when name is empty, is "." or "..",
// or contains a path separator or a NUL byte.
func CheckFileName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrUnsafeFileName, name)
	}
	return nil
}
