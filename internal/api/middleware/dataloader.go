package middleware

import (
	"net/http"

	"github.com/caninosoft/vetcore/backend/internal/api/loaders"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
)

// DataLoaderMiddleware attaches fresh dataloaders to each request context.
// Loaders are per-request so their caches never outlive the request
func DataLoaderMiddleware(vets repositories.VeterinarianRepository, patients repositories.PatientRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := loaders.WithLoaders(r.Context(), loaders.NewLoaders(vets, patients))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
