package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/settlement"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

// Memory é um Store em memória com as mesmas regras do Postgres
// (um mutex faz o papel do FOR UPDATE). Usado em testes e ambiente local.
type Memory struct {
	mu      sync.Mutex
	phases  map[string]*Phase
	bets    []Bet
	limits  map[string]map[slot.Slot]decimal.Decimal
	ledger  map[string]settlement.Entry
	users   map[string]User
	nowFunc func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		phases:  map[string]*Phase{},
		limits:  map[string]map[slot.Slot]decimal.Decimal{},
		ledger:  map[string]settlement.Entry{},
		users:   map[string]User{},
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) phase(id string) (*Phase, error) {
	ph, ok := m.phases[id]
	if !ok {
		return nil, ErrNotFound
	}
	_, ph.Settled = m.ledger[id]
	return ph, nil
}

func (m *Memory) refresh(phaseID string) {
	ph := m.phases[phaseID]
	bets := m.phaseBets(phaseID)
	ph.TotalBets = len(bets)
	ph.TotalVolume = exposure.PhaseVolume(bets)
}

func (m *Memory) phaseBets(phaseID string) []exposure.Bet {
	var out []exposure.Bet
	for _, b := range m.bets {
		if b.PhaseID == phaseID {
			out = append(out, b.Exposure())
		}
	}
	return out
}

func (m *Memory) phaseLimits(phaseID string) exposure.Limits {
	l := exposure.Limits{PerNumber: map[int]decimal.Decimal{}, Global: m.phases[phaseID].GlobalLimit}
	for n, v := range m.limits[phaseID] {
		if i, ok := n.Index(); ok {
			l.PerNumber[i] = v
		}
	}
	return l
}

func (m *Memory) ListPhases(context.Context) ([]Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Phase, 0, len(m.phases))
	for id := range m.phases {
		ph, _ := m.phase(id)
		out = append(out, *ph)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *Memory) GetPhase(_ context.Context, id string) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ph, err := m.phase(id)
	if err != nil {
		return Phase{}, err
	}
	return *ph, nil
}

func (m *Memory) ActivePhase(context.Context) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ph := range m.phases {
		if ph.Active {
			p, _ := m.phase(id)
			return *p, nil
		}
	}
	return Phase{}, ErrNotFound
}

func (m *Memory) deactivateAll() {
	for _, ph := range m.phases {
		ph.Active = false
	}
}

func (m *Memory) CreatePhase(_ context.Context, name string, globalLimit decimal.Decimal) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ph := range m.phases {
		if ph.Name == name {
			return Phase{}, ErrDuplicateName
		}
	}
	m.deactivateAll()
	ph := &Phase{
		ID:          uuid.New().String(),
		Name:        name,
		Active:      true,
		StartDate:   m.nowFunc(),
		TotalVolume: decimal.Zero,
		GlobalLimit: globalLimit,
	}
	m.phases[ph.ID] = ph
	return *ph, nil
}

func (m *Memory) ActivatePhase(_ context.Context, id string) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ph, err := m.phase(id)
	if err != nil {
		return Phase{}, err
	}
	if ph.Settled {
		return Phase{}, ErrPhaseSettled
	}
	m.deactivateAll()
	ph.Active = true
	ph.EndDate = nil
	return *ph, nil
}

func (m *Memory) SetGlobalLimit(_ context.Context, id string, limit decimal.Decimal) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ph, err := m.phase(id)
	if err != nil {
		return Phase{}, err
	}
	if ph.Settled {
		return Phase{}, ErrPhaseSettled
	}
	ph.GlobalLimit = limit
	return *ph, nil
}

func (m *Memory) DeletePhase(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.phase(id); err != nil {
		return err
	}
	delete(m.phases, id)
	delete(m.limits, id)
	delete(m.ledger, id)
	kept := m.bets[:0]
	for _, b := range m.bets {
		if b.PhaseID != id {
			kept = append(kept, b)
		}
	}
	m.bets = kept
	return nil
}

func (m *Memory) ClosePhase(_ context.Context, id string, winning *slot.Slot, settle SettleFunc) (settlement.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ph, err := m.phase(id)
	if err != nil {
		return settlement.Entry{}, err
	}
	if ph.Settled {
		return settlement.Entry{}, ErrAlreadySettled
	}
	res := settle(m.phaseBets(id), winning)
	now := m.nowFunc()
	e := settlement.Entry{
		ID:            uuid.New().String(),
		PhaseID:       id,
		PhaseName:     ph.Name,
		WinningNumber: winning,
		TotalIn:       res.TotalIn,
		TotalOut:      res.TotalOut,
		Profit:        res.Profit,
		ClosedAt:      now,
	}
	m.ledger[id] = e
	ph.Active = false
	ph.EndDate = &now
	ph.Settled = true
	return e, nil
}

func (m *Memory) filterBets(keep func(Bet) bool) []Bet {
	out := []Bet{}
	for _, b := range m.bets {
		if keep(b) {
			b.PhaseName = m.phases[b.PhaseID].Name
			out = append(out, b)
		}
	}
	return out
}

func (m *Memory) ListBets(_ context.Context, phaseID string) ([]Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterBets(func(b Bet) bool { return b.PhaseID == phaseID }), nil
}

func (m *Memory) ListUserBets(_ context.Context, phaseID, userID string) ([]Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterBets(func(b Bet) bool { return b.PhaseID == phaseID && b.UserID == userID }), nil
}

func (m *Memory) UserHistory(_ context.Context, userID string, limit int) ([]Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.filterBets(func(b Bet) bool { return b.UserID == userID })
	// mais recentes primeiro
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) GetBet(_ context.Context, id string) (Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bets {
		if b.ID == id {
			b.PhaseName = m.phases[b.PhaseID].Name
			return b, nil
		}
	}
	return Bet{}, ErrNotFound
}

func (m *Memory) insert(phaseID string, actor Actor, bets []exposure.Bet) []Bet {
	now := m.nowFunc()
	out := make([]Bet, 0, len(bets))
	for _, b := range bets {
		row := Bet{
			ID:        uuid.New().String(),
			PhaseID:   phaseID,
			PhaseName: m.phases[phaseID].Name,
			UserID:    actor.UserID,
			UserRole:  actor.Role,
			Number:    b.Slot,
			Amount:    b.Amount,
			CreatedAt: now,
		}
		m.bets = append(m.bets, row)
		out = append(out, row)
	}
	m.refresh(phaseID)
	return out
}

func (m *Memory) InsertBets(_ context.Context, phaseID string, actor Actor, bets []exposure.Bet) ([]Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ph, err := m.phase(phaseID)
	if err != nil {
		return nil, err
	}
	if ph.Settled {
		return nil, ErrPhaseSettled
	}
	if !ph.Active {
		return nil, ErrPhaseNotActive
	}
	return m.insert(phaseID, actor, bets), nil
}

func (m *Memory) ApplyCorrections(_ context.Context, phaseID string, actor Actor, plan PlanFunc) (exposure.ClearPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ph, err := m.phase(phaseID)
	if err != nil {
		return exposure.ClearPlan{}, err
	}
	if ph.Settled {
		return exposure.ClearPlan{}, ErrPhaseSettled
	}
	cp := plan(m.phaseBets(phaseID), m.phaseLimits(phaseID))
	if !cp.Empty() {
		m.insert(phaseID, actor, cp.Corrections)
	}
	return cp, nil
}

func (m *Memory) betIndex(id string) (int, error) {
	for i, b := range m.bets {
		if b.ID == id {
			ph, err := m.phase(b.PhaseID)
			if err != nil {
				return 0, err
			}
			if ph.Settled {
				return 0, ErrPhaseSettled
			}
			return i, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Memory) UpdateBetAmount(_ context.Context, id string, amount decimal.Decimal) (Bet, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.betIndex(id)
	if err != nil {
		return Bet{}, decimal.Zero, err
	}
	prev := m.bets[i].Amount
	m.bets[i].Amount = amount
	m.refresh(m.bets[i].PhaseID)
	return m.bets[i], prev, nil
}

func (m *Memory) DeleteBet(_ context.Context, id string) (Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.betIndex(id)
	if err != nil {
		return Bet{}, err
	}
	b := m.bets[i]
	m.bets = append(m.bets[:i], m.bets[i+1:]...)
	m.refresh(b.PhaseID)
	return b, nil
}

func (m *Memory) PhaseBets(_ context.Context, phaseID string) ([]exposure.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phaseBets(phaseID), nil
}

func (m *Memory) PhaseLimits(_ context.Context, phaseID string) (exposure.Limits, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.phase(phaseID); err != nil {
		return exposure.Limits{}, err
	}
	return m.phaseLimits(phaseID), nil
}

func (m *Memory) ListLimits(_ context.Context, phaseID string) ([]NumberLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []NumberLimit{}
	for n, v := range m.limits[phaseID] {
		out = append(out, NumberLimit{PhaseID: phaseID, Number: n, MaxAmount: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number.String() < out[j].Number.String() })
	return out, nil
}

func (m *Memory) UpsertLimits(_ context.Context, phaseID string, limits []NumberLimit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ph, err := m.phase(phaseID)
	if err != nil {
		return err
	}
	if ph.Settled {
		return ErrPhaseSettled
	}
	if m.limits[phaseID] == nil {
		m.limits[phaseID] = map[slot.Slot]decimal.Decimal{}
	}
	for _, l := range limits {
		m.limits[phaseID][l.Number] = l.MaxAmount
	}
	return nil
}

func (m *Memory) ListLedger(context.Context) ([]settlement.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]settlement.Entry, 0, len(m.ledger))
	for _, e := range m.ledger {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClosedAt.After(out[j].ClosedAt) })
	return out, nil
}

func (m *Memory) LedgerByPhase(_ context.Context, phaseID string) (settlement.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.ledger[phaseID]
	if !ok {
		return settlement.Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) ListUsers(context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *Memory) CreateUser(_ context.Context, username, passwordHash, role string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return User{}, ErrDuplicateName
		}
	}
	u := User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		Balance:      decimal.Zero,
		CreatedAt:    m.nowFunc(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UpdateUser(_ context.Context, id string, upd UserUpdate) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if upd.Username != nil {
		for _, other := range m.users {
			if other.ID != id && other.Username == *upd.Username {
				return User{}, ErrDuplicateName
			}
		}
		u.Username = *upd.Username
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Balance != nil {
		u.Balance = *upd.Balance
	}
	m.users[id] = u
	return u, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	for _, b := range m.bets {
		if b.UserID == id {
			return ErrInUse
		}
	}
	delete(m.users, id)
	return nil
}
