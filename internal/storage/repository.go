package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"supplymarket_api/internal/core/models"
)

// Collection keys in the KeyValue store.
const (
	KeyUsers     = "users"
	KeySuppliers = "suppliers"
	KeyOffers    = "offers"
	KeyOrders    = "orders"
	KeyTINs      = "tins"
)

type EventKind string

const (
	EventSaved   EventKind = "saved"
	EventDeleted EventKind = "deleted"
)

// Event is published to subscribers after a mutation has been persisted.
type Event struct {
	Collection string
	Kind       EventKind
	ID         string
}

// Repository is the in-memory state of the marketplace mirrored to a
// KeyValue store. Every mutating call returns only after the changed
// collection has been written; when the write fails the in-memory state is
// left as it was. Slices returned by getters are copies.
type Repository struct {
	kv KeyValue

	mu        sync.RWMutex
	users     []models.User
	suppliers []models.Supplier
	offers    []models.Offer
	orders    []models.Order
	tins      []models.TIN

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(Event)
}

// Open loads every collection from kv. Missing keys start empty.
func Open(ctx context.Context, kv KeyValue) (*Repository, error) {
	r := &Repository{kv: kv, subscribers: make(map[int]func(Event))}

	if err := load(ctx, kv, KeyUsers, &r.users); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, KeySuppliers, &r.suppliers); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, KeyOffers, &r.offers); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, KeyOrders, &r.orders); err != nil {
		return nil, err
	}
	if err := load(ctx, kv, KeyTINs, &r.tins); err != nil {
		return nil, err
	}
	return r, nil
}

func load[T any](ctx context.Context, kv KeyValue, key string, dst *[]T) error {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		*dst = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func persist[T any](ctx context.Context, kv KeyValue, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("flush %s: %w", key, err)
	}
	return nil
}

// Subscribe registers fn for mutation events and returns a function that removes it.
// fn runs synchronously on the mutating goroutine after the lock is released.
func (r *Repository) Subscribe(fn func(Event)) func() {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = fn

	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subscribers, id)
	}
}

func (r *Repository) notify(e Event) {
	r.subMu.Lock()
	fns := make([]func(Event), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// upsert replaces the element with the same id or appends it, on a copy of items.
func upsert[T any](items []T, item T, id func(T) string) []T {
	out := slices.Clone(items)
	key := id(item)
	if i := slices.IndexFunc(out, func(v T) bool { return id(v) == key }); i >= 0 {
		out[i] = item
		return out
	}
	return append(out, item)
}

func userID(u models.User) string         { return u.ID }
func supplierID(s models.Supplier) string { return s.ID }
func offerID(o models.Offer) string       { return o.ID }
func orderID(o models.Order) string       { return o.ID }

// Users

func (r *Repository) Users() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.users)
}

func (r *Repository) UserByID(id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// UserByEmail matches case-insensitively.
func (r *Repository) UserByEmail(email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (r *Repository) SaveUser(ctx context.Context, u models.User) error {
	r.mu.Lock()
	next := upsert(r.users, u, userID)
	if err := persist(ctx, r.kv, KeyUsers, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.users = next
	r.mu.Unlock()

	r.notify(Event{Collection: KeyUsers, Kind: EventSaved, ID: u.ID})
	return nil
}

// SaveAccount stores a user together with its supplier profile, if any. When
// the supplier write fails the users collection is written back to its
// previous contents, so a company is never left without a profile.
func (r *Repository) SaveAccount(ctx context.Context, u models.User, supplier *models.Supplier) error {
	r.mu.Lock()
	nextUsers := upsert(r.users, u, userID)
	if err := persist(ctx, r.kv, KeyUsers, nextUsers); err != nil {
		r.mu.Unlock()
		return err
	}
	nextSuppliers := r.suppliers
	if supplier != nil {
		nextSuppliers = upsert(r.suppliers, *supplier, supplierID)
		if err := persist(ctx, r.kv, KeySuppliers, nextSuppliers); err != nil {
			if rbErr := persist(ctx, r.kv, KeyUsers, r.users); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("restore users: %w", rbErr))
			}
			r.mu.Unlock()
			return err
		}
	}
	r.users = nextUsers
	r.suppliers = nextSuppliers
	r.mu.Unlock()

	r.notify(Event{Collection: KeyUsers, Kind: EventSaved, ID: u.ID})
	if supplier != nil {
		r.notify(Event{Collection: KeySuppliers, Kind: EventSaved, ID: supplier.ID})
	}
	return nil
}

// Suppliers

func (r *Repository) Suppliers() []models.Supplier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.suppliers)
}

func (r *Repository) SupplierByID(id string) (models.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.suppliers {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Supplier{}, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
}

func (r *Repository) SupplierByUserID(userID string) (models.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.suppliers {
		if s.UserID == userID {
			return s, nil
		}
	}
	return models.Supplier{}, fmt.Errorf("supplier for user %s: %w", userID, ErrNotFound)
}

func (r *Repository) SaveSupplier(ctx context.Context, s models.Supplier) error {
	r.mu.Lock()
	next := upsert(r.suppliers, s, supplierID)
	if err := persist(ctx, r.kv, KeySuppliers, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.suppliers = next
	r.mu.Unlock()

	r.notify(Event{Collection: KeySuppliers, Kind: EventSaved, ID: s.ID})
	return nil
}

// Offers

func (r *Repository) Offers() []models.Offer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.offers)
}

func (r *Repository) OfferByID(id string) (models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return models.Offer{}, fmt.Errorf("offer %s: %w", id, ErrNotFound)
}

// SaveOffer validates o before storing it, so the catalog only ever holds
// offers with a positive minimum order quantity.
func (r *Repository) SaveOffer(ctx context.Context, o models.Offer) error {
	if err := o.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	next := upsert(r.offers, o, offerID)
	if err := persist(ctx, r.kv, KeyOffers, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.offers = next
	r.mu.Unlock()

	r.notify(Event{Collection: KeyOffers, Kind: EventSaved, ID: o.ID})
	return nil
}

// SaveOffers upserts a batch with a single flush. Nothing is stored if any offer is invalid.
func (r *Repository) SaveOffers(ctx context.Context, batch []models.Offer) error {
	for _, o := range batch {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("offer %s: %w", o.ID, err)
		}
	}

	r.mu.Lock()
	next := r.offers
	for _, o := range batch {
		next = upsert(next, o, offerID)
	}
	if err := persist(ctx, r.kv, KeyOffers, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.offers = next
	r.mu.Unlock()

	for _, o := range batch {
		r.notify(Event{Collection: KeyOffers, Kind: EventSaved, ID: o.ID})
	}
	return nil
}

// UpdateOffer applies mutate to the current version of offer id and persists
// the validated result under a single lock. mutate must not call back into the Repository.
func (r *Repository) UpdateOffer(ctx context.Context, id string, mutate func(models.Offer) (models.Offer, error)) (models.Offer, error) {
	r.mu.Lock()
	i := slices.IndexFunc(r.offers, func(v models.Offer) bool { return v.ID == id })
	if i < 0 {
		r.mu.Unlock()
		return models.Offer{}, fmt.Errorf("offer %s: %w", id, ErrNotFound)
	}
	updated, err := mutate(r.offers[i])
	if err == nil && updated.ID != id {
		err = fmt.Errorf("offer %s: id cannot change", id)
	}
	if err == nil {
		err = updated.Validate()
	}
	if err != nil {
		r.mu.Unlock()
		return models.Offer{}, err
	}
	next := slices.Clone(r.offers)
	next[i] = updated
	if err := persist(ctx, r.kv, KeyOffers, next); err != nil {
		r.mu.Unlock()
		return models.Offer{}, err
	}
	r.offers = next
	r.mu.Unlock()

	r.notify(Event{Collection: KeyOffers, Kind: EventSaved, ID: id})
	return updated, nil
}

func (r *Repository) DeleteOffer(ctx context.Context, id string) error {
	r.mu.Lock()
	i := slices.IndexFunc(r.offers, func(o models.Offer) bool { return o.ID == id })
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("offer %s: %w", id, ErrNotFound)
	}
	next := slices.Delete(slices.Clone(r.offers), i, i+1)
	if err := persist(ctx, r.kv, KeyOffers, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.offers = next
	r.mu.Unlock()

	r.notify(Event{Collection: KeyOffers, Kind: EventDeleted, ID: id})
	return nil
}

// CatalogSnapshot returns the offers in listing order with supplier name and
// location copied in from their suppliers. Offers whose supplier is gone are skipped.
func (r *Repository) CatalogSnapshot() []models.Offer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := make(map[string]models.Supplier, len(r.suppliers))
	for _, s := range r.suppliers {
		byID[s.ID] = s
	}

	out := make([]models.Offer, 0, len(r.offers))
	for _, o := range r.offers {
		s, ok := byID[o.SupplierID]
		if !ok {
			continue
		}
		o.SupplierName = s.Name
		o.Location = s.Location
		out = append(out, o)
	}
	return out
}

// Orders

func cloneOrder(o models.Order) models.Order {
	o.History = slices.Clone(o.History)
	return o
}

func (r *Repository) Orders() []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, len(r.orders))
	for i, o := range r.orders {
		out[i] = cloneOrder(o)
	}
	return out
}

func (r *Repository) OrderByID(id string) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return models.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
}

// AppendOrder adds a new order. Orders are never overwritten through this path.
func (r *Repository) AppendOrder(ctx context.Context, o models.Order) error {
	r.mu.Lock()
	if slices.ContainsFunc(r.orders, func(v models.Order) bool { return v.ID == o.ID }) {
		r.mu.Unlock()
		return fmt.Errorf("order %s: %w", o.ID, ErrDuplicateID)
	}
	next := append(slices.Clone(r.orders), cloneOrder(o))
	if err := persist(ctx, r.kv, KeyOrders, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.orders = next
	r.mu.Unlock()

	r.notify(Event{Collection: KeyOrders, Kind: EventSaved, ID: o.ID})
	return nil
}

// UpdateOrder applies mutate to the current version of order id and persists
// the result. The read, the mutation and the write happen under one lock, so
// concurrent transitions on the same order are applied one after another.
// mutate must not call back into the Repository.
func (r *Repository) UpdateOrder(ctx context.Context, id string, mutate func(models.Order) (models.Order, error)) (models.Order, error) {
	r.mu.Lock()
	i := slices.IndexFunc(r.orders, func(v models.Order) bool { return v.ID == id })
	if i < 0 {
		r.mu.Unlock()
		return models.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	updated, err := mutate(cloneOrder(r.orders[i]))
	if err != nil {
		r.mu.Unlock()
		return models.Order{}, err
	}
	if updated.ID != id {
		r.mu.Unlock()
		return models.Order{}, fmt.Errorf("order %s: id cannot change", id)
	}
	next := slices.Clone(r.orders)
	next[i] = cloneOrder(updated)
	if err := persist(ctx, r.kv, KeyOrders, next); err != nil {
		r.mu.Unlock()
		return models.Order{}, err
	}
	r.orders = next
	r.mu.Unlock()

	r.notify(Event{Collection: KeyOrders, Kind: EventSaved, ID: id})
	return cloneOrder(updated), nil
}

// TINs

func (r *Repository) TINs() []models.TIN {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.tins)
}

func (r *Repository) TINByUserID(userID string) (models.TIN, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tins {
		if t.UserID == userID {
			return t, nil
		}
	}
	return models.TIN{}, fmt.Errorf("tin for user %s: %w", userID, ErrNotFound)
}

// AddTIN stores a new record. It refuses a second TIN for the same user and a
// number that is already registered, both with ErrDuplicateID.
func (r *Repository) AddTIN(ctx context.Context, t models.TIN) error {
	r.mu.Lock()
	taken := slices.ContainsFunc(r.tins, func(v models.TIN) bool {
		return v.ID == t.ID || v.UserID == t.UserID || strings.EqualFold(v.Number, t.Number)
	})
	if taken {
		r.mu.Unlock()
		return fmt.Errorf("tin %s for user %s: %w", t.Number, t.UserID, ErrDuplicateID)
	}
	next := append(slices.Clone(r.tins), t)
	if err := persist(ctx, r.kv, KeyTINs, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.tins = next
	r.mu.Unlock()

	r.notify(Event{Collection: KeyTINs, Kind: EventSaved, ID: t.ID})
	return nil
}
