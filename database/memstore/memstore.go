// Package memstore is an in-process backend used for local runs and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"storefront/model"
	"storefront/service"
)

type Store struct {
	mu       sync.RWMutex
	products map[string]model.Product
	users    map[string]model.User
	carts    map[string]model.Cart // keyed by user id
	orders   map[string]model.Order
	sequence []string // order ids in insertion order
}

func New() *Store {
	return &Store{
		products: make(map[string]model.Product),
		users:    make(map[string]model.User),
		carts:    make(map[string]model.Cart),
		orders:   make(map[string]model.Order),
	}
}

func (s *Store) Products() service.ProductRepository { return (*products)(s) }
func (s *Store) Users() service.UserRepository       { return (*users)(s) }
func (s *Store) Carts() service.CartRepository       { return (*carts)(s) }
func (s *Store) Orders() service.OrderRepository     { return (*orders)(s) }

type products Store

func (r *products) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; ok {
		return model.ErrDuplicate
	}
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *products) Get(_ context.Context, id string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *products) FindByIDs(_ context.Context, ids []string) (map[string]*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*model.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			cp := cloneProduct(p)
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *products) List(_ context.Context, filter model.ProductFilter) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Product, 0)
	for _, p := range r.products {
		if matches(p, filter) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func matches(p model.Product, f model.ProductFilter) bool {
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if f.OnSale && !p.Sale.IsOnSale {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func (r *products) Distinct(_ context.Context, field model.ProductField, activeOnly bool) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range r.products {
		if activeOnly && !p.IsActive {
			continue
		}
		value := p.Category
		if field == model.ProductFieldBrand {
			value = p.Brand
		}
		if !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *products) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return model.ErrNotFound
	}
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *products) SetActive(_ context.Context, id string, active bool) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	p.IsActive = active
	r.products[id] = p
	out := cloneProduct(p)
	return &out, nil
}

func (r *products) Delete(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	delete(r.products, id)
	return &p, nil
}

type users Store

func (r *users) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return model.ErrDuplicate
		}
	}
	r.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *users) Get(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *users) List(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *users) SetAdmin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.IsAdmin = true
	r.users[id] = u
	return nil
}

func (r *users) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.ErrNotFound
	}
	u.Password = passwordHash
	r.users[id] = u
	return nil
}

func (r *users) AddLike(_ context.Context, userID, productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, model.ErrNotFound
	}
	if u.Likes(productID) {
		return false, nil
	}
	u.LikedProducts = append(append([]string{}, u.LikedProducts...), productID)
	r.users[userID] = u
	return true, nil
}

func (r *users) RemoveLike(_ context.Context, userID, productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, model.ErrNotFound
	}
	if !u.Likes(productID) {
		return false, nil
	}
	kept := make([]string, 0, len(u.LikedProducts))
	for _, id := range u.LikedProducts {
		if id != productID {
			kept = append(kept, id)
		}
	}
	u.LikedProducts = kept
	r.users[userID] = u
	return true, nil
}

type carts Store

func (r *carts) GetByUser(_ context.Context, userID string) (*model.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := cloneCart(c)
	return &out, nil
}

func (r *carts) Save(_ context.Context, cart *model.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.UserID] = cloneCart(*cart)
	return nil
}

type orders Store

func (r *orders) Create(_ context.Context, o *model.Order, clearCart bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return model.ErrDuplicate
	}
	if o.IdempotencyKey != "" {
		for _, existing := range r.orders {
			if existing.UserID == o.UserID && existing.IdempotencyKey == o.IdempotencyKey {
				return model.ErrDuplicate
			}
		}
	}
	r.orders[o.ID] = cloneOrder(*o)
	r.sequence = append(r.sequence, o.ID)
	if clearCart {
		if c, ok := r.carts[o.UserID]; ok {
			c.CartItems = []model.CartItem{}
			c.TotalPrice = c.Sum()
			r.carts[o.UserID] = c
		}
	}
	return nil
}

func (r *orders) Get(_ context.Context, id string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

func (r *orders) GetByIdempotencyKey(_ context.Context, userID, key string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			out := cloneOrder(o)
			return &out, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *orders) ListByUser(_ context.Context, userID string) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.UserID == userID }), nil
}

func (r *orders) List(_ context.Context) ([]model.Order, error) {
	return r.list(func(model.Order) bool { return true }), nil
}

// list returns matching orders newest first.
func (r *orders) list(keep func(model.Order) bool) []model.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Order, 0)
	for i := len(r.sequence) - 1; i >= 0; i-- {
		o := r.orders[r.sequence[i]]
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

func (r *orders) UpdateStatus(_ context.Context, id string, status model.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return model.ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func cloneProduct(p model.Product) model.Product {
	if p.Sale.SalePrice != nil {
		v := *p.Sale.SalePrice
		p.Sale.SalePrice = &v
	}
	if p.Sale.SaleStart != nil {
		v := *p.Sale.SaleStart
		p.Sale.SaleStart = &v
	}
	if p.Sale.SaleEnd != nil {
		v := *p.Sale.SaleEnd
		p.Sale.SaleEnd = &v
	}
	return p
}

func cloneUser(u model.User) model.User {
	u.LikedProducts = append([]string{}, u.LikedProducts...)
	return u
}

func cloneCart(c model.Cart) model.Cart {
	c.CartItems = append([]model.CartItem{}, c.CartItems...)
	return c
}

func cloneOrder(o model.Order) model.Order {
	o.Items = append([]model.OrderItem{}, o.Items...)
	return o
}
