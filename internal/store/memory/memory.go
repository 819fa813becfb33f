// Package memory implements ledger.Store entirely in memory. It exists for
// tests: RunAtomic works on a deep copy of the state and swaps it in only on
// success, which reproduces the all-or-nothing semantics of the postgres
// store, and a fault hook can abort a transaction after a chosen number of
// writes to exercise atomicity under partial failure.
package memory

import (
	"context"
	"errors"
	"sync"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
)

// ErrInjectedFault is returned by a write once the configured fault budget
// is exceeded.
var ErrInjectedFault = errors.New("injected fault")

type state struct {
	customers map[int]models.Customer
	vehicles  map[int]models.Vehicle
	sales     map[string]models.Sale
	payments  map[string]models.Payment
	tracking  map[int]models.CylinderTracking
	events    []models.CylinderReturnEvent
	counters  map[ledger.SequenceKind]int64
}

func newState() state {
	return state{
		customers: make(map[int]models.Customer),
		vehicles:  make(map[int]models.Vehicle),
		sales:     make(map[string]models.Sale),
		payments:  make(map[string]models.Payment),
		tracking:  make(map[int]models.CylinderTracking),
		counters: map[ledger.SequenceKind]int64{
			ledger.SequenceSale:    0,
			ledger.SequenceReceipt: 0,
		},
	}
}

func (s state) clone() state {
	c := state{
		customers: make(map[int]models.Customer, len(s.customers)),
		vehicles:  make(map[int]models.Vehicle, len(s.vehicles)),
		sales:     make(map[string]models.Sale, len(s.sales)),
		payments:  make(map[string]models.Payment, len(s.payments)),
		tracking:  make(map[int]models.CylinderTracking, len(s.tracking)),
		events:    append([]models.CylinderReturnEvent(nil), s.events...),
		counters:  make(map[ledger.SequenceKind]int64, len(s.counters)),
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.vehicles {
		c.vehicles[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.tracking {
		c.tracking[k] = v
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return c
}

type Store struct {
	mu             sync.Mutex
	state          state
	counterMissing bool

	// -1 means no fault armed; n >= 0 aborts the next transaction on its
	// n+1th write.
	failAfterWrites int

	nextCustomerID int
	nextVehicleID  int
	nextEventID    int
}

func New() *Store {
	return &Store{state: newState(), failAfterWrites: -1}
}

// SetCounterMissing simulates an unprovisioned counter document.
func (s *Store) SetCounterMissing(missing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counterMissing = missing
}

// FailAfterWrites arms a one-shot fault: the next RunAtomic fails once it
// has performed n successful writes.
func (s *Store) FailAfterWrites(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfterWrites = n
}

func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	tx := &memTx{store: s, st: &working, budget: s.failAfterWrites}
	s.failAfterWrites = -1

	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = working
	return nil
}

// Seed helpers, used by tests to set up fixtures outside the ledger path.

func (s *Store) SeedCustomer(c models.Customer) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCustomerID++
	c.ID = s.nextCustomerID
	if c.Status == "" {
		c.Status = models.CustomerActive
	}
	s.state.customers[c.ID] = c
	return c.ID
}

func (s *Store) SeedVehicle(v models.Vehicle) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextVehicleID++
	v.ID = s.nextVehicleID
	s.state.vehicles[v.ID] = v
	return v.ID
}

// Snapshot accessors. Each returns a copy of the committed state.

func (s *Store) Customer(id int) (models.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.customers[id]
	return c, ok
}

func (s *Store) Vehicle(id int) (models.Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.vehicles[id]
	return v, ok
}

func (s *Store) Sale(id string) (models.Sale, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.state.sales[id]
	return sale, ok
}

func (s *Store) Payment(id string) (models.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.payments[id]
	return p, ok
}

func (s *Store) Tracking(customerID int) (models.CylinderTracking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.tracking[customerID]
	return t, ok
}

func (s *Store) Events(customerID int) []models.CylinderReturnEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CylinderReturnEvent
	for _, e := range s.state.events {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out
}

// memTx mutates the working copy; nothing is visible until RunAtomic swaps
// the copy in.
type memTx struct {
	store  *Store
	st     *state
	writes int
	budget int
}

func (t *memTx) write() error {
	if t.budget >= 0 && t.writes >= t.budget {
		return ErrInjectedFault
	}
	t.writes++
	return nil
}

func (t *memTx) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	c, ok := t.st.customers[id]
	if !ok {
		return nil, ledger.ErrCustomerNotFound
	}
	return &c, nil
}

func (t *memTx) PutCustomer(ctx context.Context, c *models.Customer) error {
	if err := t.write(); err != nil {
		return err
	}
	t.st.customers[c.ID] = *c
	return nil
}

func (t *memTx) DeleteCustomer(ctx context.Context, id int) error {
	if err := t.write(); err != nil {
		return err
	}
	delete(t.st.customers, id)
	delete(t.st.tracking, id)
	return nil
}

func (t *memTx) GetVehicle(ctx context.Context, id int) (*models.Vehicle, error) {
	v, ok := t.st.vehicles[id]
	if !ok {
		return nil, ledger.ErrVehicleNotFound
	}
	return &v, nil
}

func (t *memTx) DeleteVehicle(ctx context.Context, id int) error {
	if err := t.write(); err != nil {
		return err
	}
	delete(t.st.vehicles, id)
	return nil
}

func (t *memTx) CountPendingSalesByVehicle(ctx context.Context, vehicleID int) (int, error) {
	n := 0
	for _, s := range t.st.sales {
		if s.VehicleID != nil && *s.VehicleID == vehicleID && s.Status == models.SalePending {
			n++
		}
	}
	return n, nil
}

func (t *memTx) GetSale(ctx context.Context, id string) (*models.Sale, error) {
	s, ok := t.st.sales[id]
	if !ok {
		return nil, ledger.ErrSaleNotFound
	}
	return &s, nil
}

func (t *memTx) PutSale(ctx context.Context, s *models.Sale) error {
	if err := t.write(); err != nil {
		return err
	}
	t.st.sales[s.ID] = *s
	return nil
}

func (t *memTx) DeleteSale(ctx context.Context, id string) error {
	if err := t.write(); err != nil {
		return err
	}
	delete(t.st.sales, id)
	return nil
}

func (t *memTx) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, ok := t.st.payments[id]
	if !ok {
		return nil, ledger.ErrPaymentNotFound
	}
	return &p, nil
}

func (t *memTx) PutPayment(ctx context.Context, p *models.Payment) error {
	if err := t.write(); err != nil {
		return err
	}
	t.st.payments[p.ID] = *p
	return nil
}

func (t *memTx) DeletePayment(ctx context.Context, id string) error {
	if err := t.write(); err != nil {
		return err
	}
	delete(t.st.payments, id)
	return nil
}

func (t *memTx) GetTracking(ctx context.Context, customerID int) (*models.CylinderTracking, error) {
	tr, ok := t.st.tracking[customerID]
	if !ok {
		return nil, nil
	}
	return &tr, nil
}

func (t *memTx) PutTracking(ctx context.Context, tr *models.CylinderTracking) error {
	if err := t.write(); err != nil {
		return err
	}
	t.st.tracking[tr.CustomerID] = *tr
	return nil
}

func (t *memTx) AppendReturnEvent(ctx context.Context, e *models.CylinderReturnEvent) error {
	if err := t.write(); err != nil {
		return err
	}
	t.store.nextEventID++
	e.ID = t.store.nextEventID
	t.st.events = append(t.st.events, *e)
	return nil
}

func (t *memTx) NextSequence(ctx context.Context, kind ledger.SequenceKind) (int64, error) {
	if t.store.counterMissing {
		return 0, ledger.ErrCounterMissing
	}
	if err := t.write(); err != nil {
		return 0, err
	}
	t.st.counters[kind]++
	return t.st.counters[kind], nil
}
