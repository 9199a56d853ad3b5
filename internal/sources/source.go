package sources

import (
	"context"

	"github.com/wielebenwir/commonsmap/internal/sources/adminajax"
)

// Source produces the raw location payload a reload normalizes. The
// admin-ajax client is the production implementation; the fixture source
// serves demo data without a WordPress backend.
type Source interface {
	Type() string
	Fetch(ctx context.Context) (adminajax.Payload, error)
}
