package bluesky

import (
	"context"
	"sync"
	"time"

	"github.com/bluesky-social/indigo/atproto/identity"
	"github.com/bluesky-social/indigo/atproto/syntax"

	"skyrank/pkg/logger"
)

// Resolver turns DIDs into human-readable handles, with a small cache
// so the firehose does not hammer the PLC directory. When resolution
// fails the DID itself is returned so output never blocks on identity.
type Resolver struct {
	dir    identity.Directory
	logger logger.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a resolver backed by the default identity directory
func NewResolver(log logger.Logger) *Resolver {
	return &Resolver{
		dir:    identity.DefaultDirectory(),
		logger: log,
		cache:  make(map[string]string),
	}
}

// HandleForDID resolves a DID to its handle, falling back to the DID string
func (r *Resolver) HandleForDID(ctx context.Context, did string) string {
	r.mu.Lock()
	if handle, ok := r.cache[did]; ok {
		r.mu.Unlock()
		return handle
	}
	r.mu.Unlock()

	parsed, err := syntax.ParseDID(did)
	if err != nil {
		return did
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ident, err := r.dir.LookupDID(lookupCtx, parsed)
	if err != nil || ident.Handle.IsInvalidHandle() {
		r.logger.DebugWithFields("handle resolution failed, using DID", map[string]interface{}{
			"did": did,
		})
		return did
	}

	handle := ident.Handle.String()
	r.mu.Lock()
	r.cache[did] = handle
	r.mu.Unlock()

	return handle
}
