package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

func newMovementSvc(store *stubStore, idem ports.IdempotencyStore) ports.MovementService {
	return NewMovementService(stubMovementRepo{store}, stubItemRepo{store}, idem, zerolog.Nop())
}

func post(svc ports.MovementService, itemID, typ string, qty float64) (*ports.MovementResult, error) {
	return svc.Post(context.Background(), ports.PostMovementInput{
		ItemID:   itemID,
		Type:     typ,
		Quantity: qty,
		Reason:   "test",
	})
}

func TestMovementService_Post_Scenario(t *testing.T) {
	store := newStubStore()
	id := store.seed(domain.Item{Name: "Milk", Unit: "l", Quantity: 10, MinQuantity: 5})
	svc := newMovementSvc(store, nil)

	if _, err := post(svc, id, "out", 3); err != nil {
		t.Fatalf("first out: %v", err)
	}
	if got := store.items[id].Quantity; got != 7 {
		t.Fatalf("expected 7 after first out, got %v", got)
	}

	res, err := post(svc, id, "out", 3)
	if err != nil {
		t.Fatalf("second out: %v", err)
	}
	if res.Movement.ItemName != "Milk" || res.Movement.ItemUnit != "l" {
		t.Errorf("expected movement enriched with item, got %+v", res.Movement)
	}
	it := store.items[id]
	if it.Quantity != 4 || !it.IsLowStock() {
		t.Fatalf("expected quantity 4 and low stock, got %v", it.Quantity)
	}
	if s := it.ReorderSuggestion(); s != 2 {
		t.Fatalf("expected reorder suggestion 2, got %v", s)
	}

	_, err = post(svc, id, "out", 10)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := store.items[id].Quantity; got != 4 {
		t.Fatalf("rejected movement changed quantity to %v", got)
	}
	if len(store.movements) != 2 {
		t.Fatalf("rejected movement added a ledger entry: %d entries", len(store.movements))
	}
}

func TestMovementService_Post_LedgerSumMatchesQuantity(t *testing.T) {
	store := newStubStore()
	const initial = 12.5
	id := store.seed(domain.Item{Name: "Flour", Unit: "kg", Quantity: initial})
	svc := newMovementSvc(store, nil)

	ops := []struct {
		typ string
		qty float64
	}{
		{"in", 4}, {"out", 10}, {"out", 7}, {"in", 0.5}, {"out", 100}, {"out", 6}, {"in", 1.25},
	}
	for _, op := range ops {
		_, _ = post(svc, id, op.typ, op.qty) // some are expected to be rejected
	}

	sum := initial
	for _, m := range store.movements {
		sum += m.Type.Delta(m.Quantity)
	}
	if got := store.items[id].Quantity; got != sum {
		t.Fatalf("quantity %v does not match initial + ledger %v", got, sum)
	}
	if store.items[id].Quantity < 0 {
		t.Fatalf("quantity went negative")
	}
}

func TestMovementService_Post_Validation(t *testing.T) {
	store := newStubStore()
	id := store.seed(domain.Item{Name: "Rice", Unit: "kg", Quantity: 1})
	svc := newMovementSvc(store, nil)

	cases := []struct {
		typ   string
		qty   float64
		field string
	}{
		{"sideways", 1, "type"},
		{"in", 0, "quantity"},
		{"out", -2, "quantity"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_%v", tc.typ, tc.qty), func(t *testing.T) {
			_, err := post(svc, id, tc.typ, tc.qty)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Errorf("expected error on %s, got %v", tc.field, verr.Fields)
			}
		})
	}
	if len(store.movements) != 0 {
		t.Errorf("invalid movements were recorded")
	}
}

func TestMovementService_Post_ItemNotFound(t *testing.T) {
	svc := newMovementSvc(newStubStore(), nil)

	if _, err := post(svc, "missing", "in", 1); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestMovementService_Post_ConcurrentDecrementLoses(t *testing.T) {
	store := newStubStore()
	id := store.seed(domain.Item{Name: "Eggs", Unit: "pcs", Quantity: 5})
	svc := newMovementSvc(store, nil)

	// Another writer drains the item between the service's read and its write;
	// the repository guard must still refuse.
	store.postErr = domain.ErrInsufficientStock
	if _, err := post(svc, id, "out", 5); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestMovementService_Post_IdempotentReplay(t *testing.T) {
	store := newStubStore()
	id := store.seed(domain.Item{Name: "Juice", Unit: "l", Quantity: 2})
	idem := newStubIdem()
	svc := newMovementSvc(store, idem)

	in := ports.PostMovementInput{ItemID: id, Type: "in", Quantity: 3, IdempotencyKey: "abc"}
	first, err := svc.Post(context.Background(), in)
	if err != nil {
		t.Fatalf("first post: %v", err)
	}
	second, err := svc.Post(context.Background(), in)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if !second.AlreadyExisted || first.AlreadyExisted {
		t.Fatalf("unexpected AlreadyExisted flags: first=%v second=%v", first.AlreadyExisted, second.AlreadyExisted)
	}
	if second.Movement.ID != first.Movement.ID {
		t.Fatalf("replay returned %s, want %s", second.Movement.ID, first.Movement.ID)
	}
	if got := store.items[id].Quantity; got != 5 {
		t.Fatalf("replay applied twice: quantity %v", got)
	}
}

func TestMovementService_Post_IdempotencyStoreErrorProcessesAnyway(t *testing.T) {
	store := newStubStore()
	id := store.seed(domain.Item{Name: "Juice", Unit: "l", Quantity: 2})
	idem := newStubIdem()
	idem.claimErr = errors.New("redis down")
	svc := newMovementSvc(store, idem)

	_, err := svc.Post(context.Background(), ports.PostMovementInput{ItemID: id, Type: "in", Quantity: 1, IdempotencyKey: "k"})
	if err != nil {
		t.Fatalf("expected post to proceed, got %v", err)
	}
	if len(store.movements) != 1 {
		t.Fatalf("expected one movement, got %d", len(store.movements))
	}
}

func TestMovementService_Post_ConcurrentRetryPostsOnce(t *testing.T) {
	store := newStubStore()
	id := store.seed(domain.Item{Name: "Juice", Unit: "l", Quantity: 10})
	idem := newStubIdem()
	svc := newMovementSvc(store, idem)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	store.beforePost = func() {
		close(entered)
		<-proceed
	}

	in := ports.PostMovementInput{ItemID: id, Type: "out", Quantity: 3, IdempotencyKey: "retry-1"}
	done := make(chan error, 1)
	go func() {
		_, err := svc.Post(context.Background(), in)
		done <- err
	}()

	<-entered
	if _, err := svc.Post(context.Background(), in); !errors.Is(err, domain.ErrIdempotencyInProgress) {
		t.Fatalf("expected ErrIdempotencyInProgress while the first request is in flight, got %v", err)
	}
	close(proceed)
	if err := <-done; err != nil {
		t.Fatalf("first post: %v", err)
	}
	store.beforePost = nil

	replay, err := svc.Post(context.Background(), in)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.AlreadyExisted {
		t.Fatalf("expected a replay once the first request completed")
	}
	if len(store.movements) != 1 || store.items[id].Quantity != 7 {
		t.Fatalf("expected one movement and quantity 7, got %d movements and quantity %v",
			len(store.movements), store.items[id].Quantity)
	}
}

func TestMovementService_Post_FailedRequestReleasesKey(t *testing.T) {
	store := newStubStore()
	id := store.seed(domain.Item{Name: "Juice", Unit: "l", Quantity: 1})
	idem := newStubIdem()
	svc := newMovementSvc(store, idem)

	in := ports.PostMovementInput{ItemID: id, Type: "out", Quantity: 3, IdempotencyKey: "k"}
	if _, err := svc.Post(context.Background(), in); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if _, ok := idem.keys["k"]; ok {
		t.Fatalf("failed request left the key claimed")
	}

	store.items[id].Quantity = 5
	res, err := svc.Post(context.Background(), in)
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if res.AlreadyExisted || idem.keys["k"] != res.Movement.ID {
		t.Fatalf("expected the retry to post and complete the key, got %+v keys=%v", res, idem.keys)
	}
}

func TestMovementService_List_Limits(t *testing.T) {
	store := newStubStore()
	id := store.seed(domain.Item{Name: "Salt", Unit: "kg", Quantity: 0})
	svc := newMovementSvc(store, nil)
	for i := 0; i < 120; i++ {
		if _, err := post(svc, id, "in", 1); err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}
	ctx := context.Background()

	got, _ := svc.List(ctx, ports.ListMovementsInput{})
	if len(got) != 50 {
		t.Errorf("default limit: expected 50, got %d", len(got))
	}
	got, _ = svc.List(ctx, ports.ListMovementsInput{Limit: 100})
	if len(got) != 100 {
		t.Errorf("maximum limit: expected 100, got %d", len(got))
	}
	_, err := svc.List(ctx, ports.ListMovementsInput{Limit: 101})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Fields["limit"] != "limit must be at most 100" {
		t.Errorf("expected limit above 100 to be rejected, got %v", err)
	}
	_, err = svc.ListForExport(ctx, ports.ListMovementsInput{Limit: 5001})
	if !errors.As(err, &verr) || verr.Fields["limit"] != "limit must be at most 5000" {
		t.Errorf("expected export limit above 5000 to be rejected, got %v", err)
	}
	got, _ = svc.ListForExport(ctx, ports.ListMovementsInput{})
	if len(got) != 120 {
		t.Errorf("export: expected 120, got %d", len(got))
	}
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Errorf("expected newest first")
	}
}

func TestMovementService_List_InvertedRange(t *testing.T) {
	store := newStubStore()
	svc := newMovementSvc(store, nil)

	_, err := svc.List(context.Background(), ports.ListMovementsInput{
		From: store.clock.Add(1), To: store.clock,
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
