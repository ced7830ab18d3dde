package catalogue

import "errors"

// ErrValidation is returned by Catalogue.Validate when one or more file
// types are misconfigured; the specific problems are logged as they're
// found rather than accumulated into the error itself.
var ErrValidation = errors.New("catalogue: validation failed, see logged errors")
