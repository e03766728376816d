package bmff

import "github.com/pkg/errors"

// Error kinds, matched with errors.Is. Context is attached at each call
// site with errors.Wrapf; there is no recovery or partial-result fallback
// anywhere in this package, the first error aborts the whole operation.
var (
	// ErrTruncatedInput means a required read could not be satisfied:
	// the source is corrupt or cut short.
	ErrTruncatedInput = errors.New("bmff: truncated input")

	// ErrBoxFormat is a structural violation: a declared size too short,
	// children that do not exactly tile their parent, or trailing bytes
	// after a table.
	ErrBoxFormat = errors.New("bmff: malformed box")

	// ErrUnsupported is a recognized but unhandled case, such as a uuid
	// extended-type box or an iloc version other than 0.
	ErrUnsupported = errors.New("bmff: unsupported feature")
)
