// closer.go defines the Closer interface shared by the resource-owning wrappers.

package types

import (
	"context"
)

// Closer is implemented by every wrapper that owns engine-side resources.
// Close must be safe to call more than once.
type Closer interface {
	Close(context.Context) error
}
