package memory

import (
	"context"
	"errors"
	"testing"

	"quant-arena/internal/domain"
	"quant-arena/internal/storage"
)

func makePath(prices ...float64) *domain.PricePath {
	points := make([]domain.PricePoint, len(prices))
	regimes := make([]domain.Regime, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{Tick: i, Price: p}
		regimes[i] = domain.RegimeRangeBound
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return &domain.PricePath{Points: points, BenchmarkReturns: returns, Regimes: regimes}
}

func TestPathStore_InsertAndGet(t *testing.T) {
	store := NewPathStore()
	ctx := context.Background()

	if err := store.InsertPath(ctx, "r1", makePath(100, 101, 102)); err != nil {
		t.Fatalf("InsertPath failed: %v", err)
	}

	got, err := store.GetPath(ctx, "r1")
	if err != nil {
		t.Fatalf("GetPath failed: %v", err)
	}
	if got.Len() != 3 || got.Points[2].Price != 102 {
		t.Errorf("path mismatch: %+v", got.Points)
	}
	if len(got.BenchmarkReturns) != 2 || len(got.Regimes) != 3 {
		t.Errorf("series lengths = %d/%d, want 2/3", len(got.BenchmarkReturns), len(got.Regimes))
	}
}

func TestPathStore_NotFound(t *testing.T) {
	store := NewPathStore()
	ctx := context.Background()

	if _, err := store.GetPath(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPathStore_ReplaceOnReinsert(t *testing.T) {
	store := NewPathStore()
	ctx := context.Background()

	if err := store.InsertPath(ctx, "r1", makePath(100, 101)); err != nil {
		t.Fatalf("InsertPath failed: %v", err)
	}
	if err := store.InsertPath(ctx, "r1", makePath(200, 201, 202)); err != nil {
		t.Fatalf("Reinsert failed: %v", err)
	}

	got, _ := store.GetPath(ctx, "r1")
	if got.Len() != 3 || got.Points[0].Price != 200 {
		t.Errorf("Expected replaced path, got %+v", got.Points)
	}
}

func TestPathStore_CopiesOut(t *testing.T) {
	store := NewPathStore()
	ctx := context.Background()

	if err := store.InsertPath(ctx, "r1", makePath(100, 101)); err != nil {
		t.Fatalf("InsertPath failed: %v", err)
	}

	got, _ := store.GetPath(ctx, "r1")
	got.Points[0].Price = 999

	again, _ := store.GetPath(ctx, "r1")
	if again.Points[0].Price != 100 {
		t.Errorf("Stored path was mutated through a returned copy: %v", again.Points[0].Price)
	}
}

func TestPathStore_InvalidInput(t *testing.T) {
	store := NewPathStore()
	ctx := context.Background()

	if err := store.InsertPath(ctx, "", makePath(100, 101)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty round, got %v", err)
	}
	if err := store.InsertPath(ctx, "r1", nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil path, got %v", err)
	}
	if err := store.InsertPath(ctx, "r1", &domain.PricePath{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty path, got %v", err)
	}
}
