package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ironhall/labmgr/lib/logger"
)

// RunResolver is implemented by the Lab Manager to validate a run id before
// a handler runs. Mirrors the teacher's ResourceResolver shape, trimmed to
// the one resource type this system exposes.
type RunResolver interface {
	Resolve(ctx context.Context, runID string) (id string, resource any, err error)
}

type resolvedRunKey struct{}

// ErrorResponder writes the HTTP response for a failed resolution.
type ErrorResponder func(w http.ResponseWriter, err error, lookup string)

// ResolveRunID resolves the "run_id" path parameter against resolver before
// the wrapped handler runs, and enriches the request logger with it. Adapted
// from lib/middleware/resolve.go's ResolveResource, which switches across
// four URL-path prefixes (instances/volumes/ingresses/images) — this system
// has exactly one path-parameterized resource, so the switch collapses to a
// single chi.URLParam lookup.
func ResolveRunID(resolver RunResolver, errResponder ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			runID := chi.URLParam(r, "run_id")
			if runID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			resolvedID, resource, err := resolver.Resolve(ctx, runID)
			if err != nil {
				errResponder(w, err, runID)
				return
			}

			ctx = context.WithValue(ctx, resolvedRunKey{}, resource)
			log := logger.FromContext(ctx).With("run_id", resolvedID)
			ctx = logger.AddToContext(ctx, log)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetResolvedRun retrieves the resolved instance from context, or nil if
// resolution did not run or produced a different type.
func GetResolvedRun[T any](ctx context.Context) *T {
	resource, ok := ctx.Value(resolvedRunKey{}).(any)
	if !ok {
		return nil
	}
	if typed, ok := resource.(*T); ok {
		return typed
	}
	if typed, ok := resource.(T); ok {
		return &typed
	}
	return nil
}
