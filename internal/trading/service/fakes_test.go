package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nsplit-trader/internal/entity"
	"nsplit-trader/internal/trading/dto"
	"nsplit-trader/internal/trading/repository"

	"github.com/google/uuid"
)

// In-memory repository doubles. They keep the same ordering guarantees the
// GORM implementations provide so the services under test see identical
// behavior.

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.Session
	updates  int
	failNext error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	clone := *session
	return &clone, nil
}

func (r *fakeSessionRepo) FindByIDWithPositions(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSessionRepo) FindByUser(_ context.Context, userID uuid.UUID, status entity.SessionStatus) ([]entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Session
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSessionRepo) FindByStatus(_ context.Context, status entity.SessionStatus) ([]entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Session
	for _, s := range r.sessions {
		if s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if _, ok := r.sessions[session.ID]; !ok {
		return repository.ErrSessionNotFound
	}
	clone := *session
	r.sessions[session.ID] = &clone
	r.updates++
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) get(id uuid.UUID) *entity.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

type fakePositionRepo struct {
	mu        sync.Mutex
	positions map[uuid.UUID]*entity.Position
}

func newFakePositionRepo() *fakePositionRepo {
	return &fakePositionRepo{positions: make(map[uuid.UUID]*entity.Position)}
}

func (r *fakePositionRepo) Create(_ context.Context, position *entity.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if position.ID == uuid.Nil {
		position.ID = uuid.New()
	}
	clone := *position
	r.positions[position.ID] = &clone
	return nil
}

func (r *fakePositionRepo) Update(_ context.Context, position *entity.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *position
	r.positions[position.ID] = &clone
	return nil
}

func (r *fakePositionRepo) FindBySessionID(_ context.Context, sessionID uuid.UUID) ([]entity.Position, error) {
	return r.list(sessionID, ""), nil
}

func (r *fakePositionRepo) FindHoldings(_ context.Context, sessionID uuid.UUID) ([]entity.Position, error) {
	return r.list(sessionID, entity.PositionStatusHolding), nil
}

func (r *fakePositionRepo) list(sessionID uuid.UUID, status entity.PositionStatus) []entity.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Position
	for _, p := range r.positions {
		if p.SessionID != sessionID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []entity.SessionEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (r *fakeEventRepo) Create(_ context.Context, event *entity.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeEventRepo) FindBySessionID(_ context.Context, sessionID uuid.UUID) ([]entity.SessionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.SessionEvent
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].SessionID == sessionID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

func (r *fakeEventRepo) byType(sessionID uuid.UUID, eventType entity.EventType) []entity.SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.SessionEvent
	for _, e := range r.events {
		if e.SessionID == sessionID && e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeOrder struct {
	Side     string
	Price    float64
	Quantity int64
}

// fakeSimulator scripts the exchange: a fixed price (or error) per call and
// configurable order failures.
type fakeSimulator struct {
	mu sync.Mutex

	price    float64
	priceErr error

	buyErr  error
	sellErr error

	// sellOKBudget > 0 arms a deferred sell failure: that many sells
	// succeed, then sellErrArmed fires.
	sellOKBudget int
	sellErrArmed error

	orders   []fakeOrder
	accounts map[uuid.UUID]bool
}

func newFakeSimulator(price float64) *fakeSimulator {
	return &fakeSimulator{price: price, accounts: make(map[uuid.UUID]bool)}
}

func (s *fakeSimulator) GetPrice(context.Context, string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.priceErr != nil {
		return 0, s.priceErr
	}
	return s.price, nil
}

func (s *fakeSimulator) PlaceBuyOrder(_ context.Context, _ uuid.UUID, stockCode string, price float64, quantity int64) (*dto.SimOrderReceipt, error) {
	return s.placeOrder("buy", stockCode, price, quantity, &s.buyErr)
}

func (s *fakeSimulator) PlaceSellOrder(_ context.Context, _ uuid.UUID, stockCode string, price float64, quantity int64) (*dto.SimOrderReceipt, error) {
	s.mu.Lock()
	if s.sellErrArmed != nil {
		if s.sellOKBudget <= 0 {
			s.sellErr = s.sellErrArmed
		} else {
			s.sellOKBudget--
		}
	}
	s.mu.Unlock()
	return s.placeOrder("sell", stockCode, price, quantity, &s.sellErr)
}

// failSellAfter lets n sells succeed and fails every one after that.
func (s *fakeSimulator) failSellAfter(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sellOKBudget = n
	s.sellErrArmed = err
}

func (s *fakeSimulator) placeOrder(side, stockCode string, price float64, quantity int64, failure *error) (*dto.SimOrderReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *failure != nil {
		return nil, fmt.Errorf("%s order rejected: %w", side, *failure)
	}
	s.orders = append(s.orders, fakeOrder{Side: side, Price: price, Quantity: quantity})
	return &dto.SimOrderReceipt{
		ID:        uuid.New(),
		StockCode: stockCode,
		OrderType: side,
		Price:     price,
		Quantity:  quantity,
		Status:    "filled",
	}, nil
}

func (s *fakeSimulator) EnsureAccount(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = true
	return nil
}

func (s *fakeSimulator) placedOrders() []fakeOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fakeOrder(nil), s.orders...)
}
