package domain

import (
	"context"
	"errors"
)

var (
	ErrPlanNotFound = errors.New("plan_not_found")
)

type Service interface {
	List(ctx context.Context) ([]Plan, error)
	Get(ctx context.Context, id string) (Plan, error)
	// Catalog returns the current id→plan snapshot for the lifecycle engine.
	Catalog(ctx context.Context) (Catalog, error)
}
