package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swiftcourier/courier-api/internal/domains/products/adapters/memory"
	"github.com/swiftcourier/courier-api/internal/domains/products/ports"
)

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	svc := NewService(memory.NewRepository())

	created, err := svc.Create(context.Background(), CreateInput{
		Name:       "Padded Envelope",
		SKU:        "ENV-PAD-01",
		Category:   "packaging",
		PriceCents: 249,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
}

func TestCreate_NegativePriceRejected(t *testing.T) {
	svc := NewService(memory.NewRepository())

	_, err := svc.Create(context.Background(), CreateInput{Name: "Box", PriceCents: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDelete_NonexistentIDIsNoOp(t *testing.T) {
	svc := NewService(memory.NewRepository())
	created, err := svc.Create(context.Background(), CreateInput{Name: "Box", PriceCents: 100})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), 42), ErrNotFound)

	remaining, err := svc.List(context.Background(), ports.Query{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, created.ID, remaining[0].ID)
}

func TestUpdate_PartialMerge(t *testing.T) {
	svc := NewService(memory.NewRepository())
	created, err := svc.Create(context.Background(), CreateInput{Name: "Box", PriceCents: 100})
	require.NoError(t, err)

	price := int64(150)
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{PriceCents: &price})
	require.NoError(t, err)
	require.Equal(t, "Box", updated.Name)
	require.EqualValues(t, 150, updated.PriceCents)
}

func TestList_SearchBySKU(t *testing.T) {
	svc := NewService(memory.NewRepository())
	_, err := svc.Create(context.Background(), CreateInput{Name: "Small Box", SKU: "BOX-S", PriceCents: 100})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{Name: "Tape", SKU: "TAPE-1", PriceCents: 50})
	require.NoError(t, err)

	matched, err := svc.List(context.Background(), ports.Query{Text: "box-s"})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, "Small Box", matched[0].Name)
}
