package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	c := cloneUser(user)
	c.ID = "u" + strconv.Itoa(r.seq)
	r.users[c.ID] = cloneUser(c)
	return c, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

type stubCategoryRepo struct {
	cats map[string]*domain.Category
	seq  int
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{cats: make(map[string]*domain.Category)}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.seq++
	clone := *c
	clone.ID = "c" + strconv.Itoa(r.seq)
	stored := clone
	r.cats[clone.ID] = &stored
	return &clone, nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id string) (*domain.Category, error) {
	c, ok := r.cats[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCategoryRepo) Update(_ context.Context, id string, upd ports.CategoryUpdate) (*domain.Category, error) {
	c, ok := r.cats[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	clone := *c
	return &clone, nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.cats[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.cats, id)
	return nil
}

func (r *stubCategoryRepo) List(_ context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(r.cats))
	for _, c := range r.cats {
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubCategoryRepo) UpsertByName(ctx context.Context, name string) error {
	for _, c := range r.cats {
		if c.Name == name {
			return nil
		}
	}
	_, err := r.Create(ctx, &domain.Category{Name: name})
	return err
}

// ---------------------------------------------------------------------------
// Items and movements
// ---------------------------------------------------------------------------

// stubStore backs both the item and movement stubs so that a posted movement
// changes the quantity the item repository reports.
type stubStore struct {
	items     map[string]*domain.Item
	movements []*domain.Movement
	seq       int
	clock     time.Time

	postErr    error  // forced error from Post
	beforePost func() // runs at the start of Post
}

func newStubStore() *stubStore {
	return &stubStore{
		items: make(map[string]*domain.Item),
		clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func cloneItem(it *domain.Item) *domain.Item {
	if it == nil {
		return nil
	}
	clone := *it
	return &clone
}

func (s *stubStore) nextID(prefix string) string {
	s.seq++
	return prefix + strconv.Itoa(s.seq)
}

func (s *stubStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

// seed stores an item directly and returns its id.
func (s *stubStore) seed(it domain.Item) string {
	if it.ID == "" {
		it.ID = s.nextID("i")
	}
	s.items[it.ID] = cloneItem(&it)
	return it.ID
}

type stubItemRepo struct{ s *stubStore }

func (r stubItemRepo) Create(_ context.Context, it *domain.Item) (*domain.Item, error) {
	c := cloneItem(it)
	c.ID = r.s.nextID("i")
	r.s.items[c.ID] = cloneItem(c)
	return c, nil
}

func (r stubItemRepo) FindByID(_ context.Context, id string) (*domain.Item, error) {
	it, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return cloneItem(it), nil
}

func (r stubItemRepo) Update(_ context.Context, id string, upd ports.ItemUpdate) (*domain.Item, error) {
	it, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if upd.Name != nil {
		it.Name = *upd.Name
	}
	if upd.CategoryID != nil {
		it.CategoryID = *upd.CategoryID
	}
	if upd.Unit != nil {
		it.Unit = *upd.Unit
	}
	if upd.Quantity != nil {
		it.Quantity = *upd.Quantity
	}
	if upd.MinQuantity != nil {
		it.MinQuantity = *upd.MinQuantity
	}
	if upd.MaxQuantity != nil {
		it.MaxQuantity = upd.MaxQuantity
	}
	if upd.Supplier != nil {
		it.Supplier = *upd.Supplier
	}
	if upd.ClearExpiry {
		it.ExpiryDate = nil
	} else if upd.ExpiryDate != nil {
		it.ExpiryDate = upd.ExpiryDate
	}
	return cloneItem(it), nil
}

func (r stubItemRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.s.items, id)
	return nil
}

func (r stubItemRepo) List(_ context.Context, f ports.ItemFilter) ([]*domain.Item, error) {
	var out []*domain.Item
	for _, it := range r.s.items {
		if f.CategoryID != "" && it.CategoryID != f.CategoryID {
			continue
		}
		if f.LowStock && !it.IsLowStock() {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, cloneItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r stubItemRepo) ExistsByCategory(_ context.Context, categoryID string) (bool, error) {
	for _, it := range r.s.items {
		if it.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

type stubMovementRepo struct{ s *stubStore }

// Post mirrors the conditional increment of the real repository.
func (r stubMovementRepo) Post(_ context.Context, m *domain.Movement) (*domain.Item, error) {
	if r.s.beforePost != nil {
		r.s.beforePost()
	}
	if r.s.postErr != nil {
		return nil, r.s.postErr
	}
	it, ok := r.s.items[m.ItemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if m.Type == domain.MovementOut && it.Quantity < m.Quantity {
		return nil, domain.ErrInsufficientStock
	}
	it.Quantity += m.Type.Delta(m.Quantity)

	m.ID = r.s.nextID("m")
	m.CreatedAt = r.s.tick()
	stored := *m
	r.s.movements = append(r.s.movements, &stored)
	return cloneItem(it), nil
}

func (r stubMovementRepo) FindByID(_ context.Context, id string) (*domain.Movement, error) {
	for _, m := range r.s.movements {
		if m.ID == id {
			clone := *m
			if it, ok := r.s.items[m.ItemID]; ok {
				clone.ItemName, clone.ItemUnit = it.Name, it.Unit
			}
			return &clone, nil
		}
	}
	return nil, domain.ErrMovementNotFound
}

func (r stubMovementRepo) List(_ context.Context, f ports.MovementFilter) ([]*domain.Movement, error) {
	var out []*domain.Movement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if f.ItemID != "" && m.ItemID != f.ItemID {
			continue
		}
		if !f.From.IsZero() && m.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && m.CreatedAt.After(f.To) {
			continue
		}
		clone := *m
		out = append(out, &clone)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Idempotency
// ---------------------------------------------------------------------------

// stubIdem holds "" for a claimed key until it is completed.
type stubIdem struct {
	mu       sync.Mutex
	keys     map[string]string
	claimErr error
}

func newStubIdem() *stubIdem {
	return &stubIdem{keys: make(map[string]string)}
}

func (s *stubIdem) Claim(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return "", false, s.claimErr
	}
	if id, ok := s.keys[key]; ok {
		return id, false, nil
	}
	s.keys[key] = ""
	return "", true, nil
}

func (s *stubIdem) Complete(_ context.Context, key, movementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = movementID
	return nil
}

func (s *stubIdem) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] == "" {
		delete(s.keys, key)
	}
	return nil
}

func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }
