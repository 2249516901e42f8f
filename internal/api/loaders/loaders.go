package loaders

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders batches per-request entity lookups so an expanded appointment
// list does one query per entity kind instead of one per row
type Loaders struct {
	VeterinarianLoader *dataloader.Loader[string, *entities.Veterinarian]
	PatientLoader      *dataloader.Loader[string, *entities.Patient]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(vetRepo repositories.VeterinarianRepository, patientRepo repositories.PatientRepository) *Loaders {
	return &Loaders{
		VeterinarianLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Veterinarian] {
			results := make([]*dataloader.Result[*entities.Veterinarian], len(keys))
			vets, err := vetRepo.GetByIDs(ctx, keys)

			vetMap := make(map[string]*entities.Veterinarian)
			if err == nil {
				for _, v := range vets {
					vetMap[v.ID] = v
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Veterinarian]{Error: err}
				} else if v, ok := vetMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Veterinarian]{Data: v}
				} else {
					results[i] = &dataloader.Result[*entities.Veterinarian]{Error: fmt.Errorf("veterinarian %s not found", key)}
				}
			}
			return results
		}),
		PatientLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Patient] {
			results := make([]*dataloader.Result[*entities.Patient], len(keys))
			patients, err := patientRepo.GetByIDs(ctx, keys)

			patientMap := make(map[string]*entities.Patient)
			if err == nil {
				for _, p := range patients {
					patientMap[p.ID] = p
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Patient]{Error: err}
				} else if p, ok := patientMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Patient]{Data: p}
				} else {
					results[i] = &dataloader.Result[*entities.Patient]{Error: fmt.Errorf("patient %s not found", key)}
				}
			}
			return results
		}),
	}
}

// For returns the loaders for a given context, or nil when none are
// attached
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(loadersKey).(*Loaders)
	return loaders
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}
