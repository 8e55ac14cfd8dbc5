package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shift-payroll/internal/model"
	"github.com/iliyamo/shift-payroll/internal/queue"
	"github.com/iliyamo/shift-payroll/internal/repository"
	"github.com/iliyamo/shift-payroll/internal/worktime"
)

// memDB is an in-memory stand-in for the MySQL repositories.  A single
// mutex plays the role of the row lock taken by ShiftRepo.CreateOpen.
type memDB struct {
	mu          sync.Mutex
	nextID      uint64
	users       map[uint64]*model.User
	categories  map[uint64]*model.WorkCategory
	assignments map[uint64]*model.Assignment
	links       map[uint64][]uint64 // assignment id -> category ids
	shifts      map[uint64]*model.ShiftInterval
	payrolls    map[string]*model.WeeklyPayrollRecord
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[uint64]*model.User{},
		categories:  map[uint64]*model.WorkCategory{},
		assignments: map[uint64]*model.Assignment{},
		links:       map[uint64][]uint64{},
		shifts:      map[uint64]*model.ShiftInterval{},
		payrolls:    map[string]*model.WeeklyPayrollRecord{},
	}
}

func (m *memDB) id() uint64 { m.nextID++; return m.nextID }

func (m *memDB) addUser(name, role string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.users[id] = &model.User{ID: id, Username: name, Role: role, IsActive: true}
	return id
}

func (m *memDB) addCategory(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.categories[id] = &model.WorkCategory{ID: id, Name: name, IsActive: true}
	return id
}

// assign creates an assignment for the user holding the given categories.
func (m *memDB) assign(userID uint64, categoryIDs ...uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.assignments[id] = &model.Assignment{ID: id, UserID: userID, ActiveInLogs: len(categoryIDs) > 0}
	m.links[id] = append([]uint64(nil), categoryIDs...)
	return id
}

// addClosed stores a closed interval directly.
func (m *memDB) addClosed(userID uint64, label string, in, out time.Time) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	o := out
	m.shifts[id] = &model.ShiftInterval{ID: id, UserID: userID, TimeIn: in, TimeOut: &o, Label: label}
	return id
}

func (m *memDB) openCount(userID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.shifts {
		if s.UserID == userID && s.TimeOut == nil {
			n++
		}
	}
	return n
}

func copyShift(s *model.ShiftInterval) model.ShiftInterval {
	c := *s
	if s.TimeOut != nil {
		t := *s.TimeOut
		c.TimeOut = &t
	}
	return c
}

// ---- shifts ----

type memShifts struct{ db *memDB }

func (s memShifts) CreateOpen(_ context.Context, iv *model.ShiftInterval) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[iv.UserID]; !ok {
		return repository.ErrNotFound
	}
	for _, x := range s.db.shifts {
		if x.UserID == iv.UserID && x.TimeOut == nil {
			return repository.ErrActiveShift
		}
	}
	iv.ID = s.db.id()
	c := copyShift(iv)
	s.db.shifts[iv.ID] = &c
	return nil
}

func (s memShifts) GetByID(_ context.Context, id uint64) (*model.ShiftInterval, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	x, ok := s.db.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := copyShift(x)
	return &c, nil
}

func (s memShifts) GetOpenByUser(_ context.Context, userID uint64) (*model.ShiftInterval, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, x := range s.db.shifts {
		if x.UserID == userID && x.TimeOut == nil {
			c := copyShift(x)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memShifts) Close(_ context.Context, id, userID uint64, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	x, ok := s.db.shifts[id]
	if !ok || x.UserID != userID || x.TimeOut != nil {
		return repository.ErrNotFound
	}
	t := at
	x.TimeOut = &t
	return nil
}

func (s memShifts) closeWhere(match func(*model.ShiftInterval) bool, at time.Time) []model.ShiftInterval {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.ShiftInterval{}
	for _, x := range s.db.shifts {
		if x.TimeOut == nil && match(x) {
			t := at
			x.TimeOut = &t
			out = append(out, copyShift(x))
		}
	}
	return out
}

func (s memShifts) CloseAllOpen(_ context.Context, userID uint64, at time.Time) ([]model.ShiftInterval, error) {
	return s.closeWhere(func(x *model.ShiftInterval) bool { return x.UserID == userID }, at), nil
}

func (s memShifts) CloseOpenInCategory(_ context.Context, categoryID uint64, at time.Time) ([]model.ShiftInterval, error) {
	return s.closeWhere(func(x *model.ShiftInterval) bool { return x.CategoryID != nil && *x.CategoryID == categoryID }, at), nil
}

func (s memShifts) Delete(_ context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.shifts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.shifts, id)
	return nil
}

func (s memShifts) List(_ context.Context, q repository.ShiftQuery) ([]model.ShiftInterval, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var all []model.ShiftInterval
	for _, x := range s.db.shifts {
		if q.UserID != 0 && x.UserID != q.UserID {
			continue
		}
		if q.From != nil && x.TimeIn.Before(*q.From) {
			continue
		}
		if q.To != nil && !x.TimeIn.Before(*q.To) {
			continue
		}
		if q.LabelContains != "" && !strings.Contains(strings.ToLower(x.Label), strings.ToLower(q.LabelContains)) {
			continue
		}
		if q.Status == repository.ShiftStatusOngoing && x.TimeOut != nil {
			continue
		}
		if q.Status == repository.ShiftStatusDone && x.TimeOut == nil {
			continue
		}
		all = append(all, copyShift(x))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TimeIn.After(all[j].TimeIn) })
	total := int64(len(all))
	if q.Limit > 0 {
		lo := q.Offset
		if lo > len(all) {
			lo = len(all)
		}
		hi := lo + q.Limit
		if hi > len(all) {
			hi = len(all)
		}
		all = all[lo:hi]
	}
	return all, total, nil
}

func (s memShifts) ListClosed(_ context.Context, userID uint64, from, to time.Time) ([]model.ShiftInterval, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.ShiftInterval
	for _, x := range s.db.shifts {
		if x.UserID == userID && x.TimeOut != nil && !x.TimeIn.Before(from) && x.TimeIn.Before(to) {
			out = append(out, copyShift(x))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeIn.Before(out[j].TimeIn) })
	return out, nil
}

func (s memShifts) ClosedStartTimes(_ context.Context, userID uint64) ([]time.Time, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []time.Time
	for _, x := range s.db.shifts {
		if x.UserID == userID && x.TimeOut != nil {
			out = append(out, x.TimeIn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// ---- payroll ----

type memPayroll struct {
	db    *memDB
	saves int
}

func payKey(userID uint64, ws time.Time) string {
	return fmt.Sprintf("%d/%s", userID, worktime.FormatDate(ws))
}

func (p *memPayroll) Get(_ context.Context, userID uint64, ws time.Time) (*model.WeeklyPayrollRecord, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	r, ok := p.db.payrolls[payKey(userID, ws)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (p *memPayroll) ListByUser(_ context.Context, userID uint64) ([]model.WeeklyPayrollRecord, error) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	out := []model.WeeklyPayrollRecord{}
	for _, r := range p.db.payrolls {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out, nil
}

func (p *memPayroll) upsert(userID uint64, ws time.Time, apply func(*model.WeeklyPayrollRecord)) *model.WeeklyPayrollRecord {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	p.saves++
	k := payKey(userID, ws)
	r, ok := p.db.payrolls[k]
	if !ok {
		r = &model.WeeklyPayrollRecord{ID: p.db.id(), UserID: userID, WeekStart: ws}
		p.db.payrolls[k] = r
	}
	apply(r)
	c := *r
	return &c
}

func (p *memPayroll) SaveHours(_ context.Context, userID uint64, ws time.Time, hours decimal.Decimal) (*model.WeeklyPayrollRecord, error) {
	return p.upsert(userID, ws, func(r *model.WeeklyPayrollRecord) { r.TotalHours = hours }), nil
}

func (p *memPayroll) SaveRate(_ context.Context, userID uint64, ws time.Time, hours, rate, pay decimal.Decimal) (*model.WeeklyPayrollRecord, error) {
	return p.upsert(userID, ws, func(r *model.WeeklyPayrollRecord) {
		r.TotalHours, r.Rate, r.TotalPay = hours, rate, pay
	}), nil
}

func (p *memPayroll) count() int {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	return len(p.db.payrolls)
}

// ---- categories ----

type memCategories struct{ db *memDB }

func (c memCategories) Create(_ context.Context, name string) (*model.WorkCategory, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	for _, x := range c.db.categories {
		if strings.EqualFold(x.Name, name) {
			return nil, repository.ErrConflict
		}
	}
	id := c.db.id()
	c.db.categories[id] = &model.WorkCategory{ID: id, Name: name, IsActive: true}
	cp := *c.db.categories[id]
	return &cp, nil
}

func (c memCategories) GetByID(_ context.Context, id uint64) (*model.WorkCategory, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	x, ok := c.db.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

func (c memCategories) Rename(_ context.Context, id uint64, name string) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	x, ok := c.db.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	x.Name = name
	return nil
}

func (c memCategories) SetActive(_ context.Context, id uint64, active bool) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	x, ok := c.db.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	x.IsActive = active
	return nil
}

func (c memCategories) List(_ context.Context, activeOnly bool) ([]model.WorkCategory, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	out := []model.WorkCategory{}
	for _, x := range c.db.categories {
		if activeOnly && !x.IsActive {
			continue
		}
		out = append(out, *x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---- assignments ----

type memAssignments struct{ db *memDB }

func (a memAssignments) load(x *model.Assignment) model.Assignment {
	c := *x
	c.Categories = nil
	for _, cid := range a.db.links[x.ID] {
		if cat, ok := a.db.categories[cid]; ok {
			c.Categories = append(c.Categories, *cat)
		}
	}
	return c
}

func (a memAssignments) Create(_ context.Context, userID uint64) (*model.Assignment, error) {
	a.db.mu.Lock()
	defer a.db.mu.Unlock()
	id := a.db.id()
	a.db.assignments[id] = &model.Assignment{ID: id, UserID: userID, ActiveInLogs: true}
	c := a.load(a.db.assignments[id])
	return &c, nil
}

func (a memAssignments) GetForUser(_ context.Context, assignmentID, userID uint64) (*model.Assignment, error) {
	a.db.mu.Lock()
	defer a.db.mu.Unlock()
	x, ok := a.db.assignments[assignmentID]
	if !ok || x.UserID != userID {
		return nil, repository.ErrNotFound
	}
	c := a.load(x)
	return &c, nil
}

func (a memAssignments) ListForUser(_ context.Context, userID uint64) ([]model.Assignment, error) {
	a.db.mu.Lock()
	defer a.db.mu.Unlock()
	var out []model.Assignment
	for _, x := range a.db.assignments {
		if x.UserID == userID {
			out = append(out, a.load(x))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a memAssignments) AddCategory(_ context.Context, assignmentID, categoryID uint64) error {
	a.db.mu.Lock()
	defer a.db.mu.Unlock()
	for _, cid := range a.db.links[assignmentID] {
		if cid == categoryID {
			return nil
		}
	}
	a.db.links[assignmentID] = append(a.db.links[assignmentID], categoryID)
	a.db.assignments[assignmentID].ActiveInLogs = true
	return nil
}

func (a memAssignments) RemoveCategory(_ context.Context, assignmentID, categoryID uint64) error {
	a.db.mu.Lock()
	defer a.db.mu.Unlock()
	kept := a.db.links[assignmentID][:0]
	for _, cid := range a.db.links[assignmentID] {
		if cid != categoryID {
			kept = append(kept, cid)
		}
	}
	a.db.links[assignmentID] = kept
	if len(kept) == 0 {
		a.db.assignments[assignmentID].ActiveInLogs = false
	}
	return nil
}

// ---- users ----

type memUsers struct{ db *memDB }

func (u memUsers) Create(_ context.Context, username, password, role string, _ int) (uint64, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	for _, x := range u.db.users {
		if x.Username == username {
			return 0, repository.ErrUsernameExists
		}
	}
	id := u.db.id()
	// Plain text stands in for the bcrypt hash; see hashedUser for login tests.
	u.db.users[id] = &model.User{ID: id, Username: username, PasswordHash: password, Role: role, IsActive: true}
	return id, nil
}

func (u memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	for _, x := range u.db.users {
		if x.Username == strings.ToLower(strings.TrimSpace(username)) {
			c := *x
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	x, ok := u.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *x
	return &c, nil
}

func (u memUsers) SetActive(_ context.Context, id uint64, active bool) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	x, ok := u.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	x.IsActive = active
	return nil
}

func (u memUsers) DeleteCascade(_ context.Context, id uint64) error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	if _, ok := u.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	for sid, s := range u.db.shifts {
		if s.UserID == id {
			delete(u.db.shifts, sid)
		}
	}
	for k, r := range u.db.payrolls {
		if r.UserID == id {
			delete(u.db.payrolls, k)
		}
	}
	for aid, a := range u.db.assignments {
		if a.UserID == id {
			delete(u.db.links, aid)
			delete(u.db.assignments, aid)
		}
	}
	delete(u.db.users, id)
	return nil
}

func (u memUsers) ListOverview(_ context.Context, q repository.UserQuery) ([]model.UserOverview, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	out := []model.UserOverview{}
	for _, x := range u.db.users {
		if x.Role == model.RoleAdmin {
			continue
		}
		out = append(out, model.UserOverview{ID: x.ID, Username: x.Username, Role: x.Role, IsActive: x.IsActive, WorkStatus: model.WorkStatusUnassigned})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// ---- events ----

// MockPublisher follows the func-field mock style; Events records every
// published event when PublishFunc is nil.
type MockPublisher struct {
	mu          sync.Mutex
	Events      []queue.ShiftEvent
	PublishFunc func(ctx context.Context, ev queue.ShiftEvent) error
}

func (m *MockPublisher) Publish(ctx context.Context, ev queue.ShiftEvent) error {
	m.mu.Lock()
	m.Events = append(m.Events, ev)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, ev)
	}
	return nil
}

func (m *MockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Events))
	for _, ev := range m.Events {
		out = append(out, ev.Type)
	}
	return out
}

// ---- fixture ----

// manila is the business timezone used across the tests: UTC+8, no DST.
var manila = time.FixedZone("PHT", 8*3600)

type fixture struct {
	db       *memDB
	shifts   memShifts
	payroll  *memPayroll
	events   *MockPublisher
	ledger   *Ledger
	payrolls *Payroll
	catalog  *Catalog
	accounts *Accounts
	clock    *time.Time
}

func newFixture(now time.Time) *fixture {
	db := newMemDB()
	f := &fixture{db: db, shifts: memShifts{db}, payroll: &memPayroll{db: db}, events: &MockPublisher{}}
	clock := now
	f.clock = &clock
	nowFn := func() time.Time { return *f.clock }

	f.ledger = NewLedger(f.shifts, memUsers{db}, memAssignments{db}, f.events, manila, nil)
	f.ledger.Now = nowFn
	f.payrolls = NewPayroll(f.shifts, f.payroll, memUsers{db}, f.events, manila, nil)
	f.payrolls.Now = nowFn
	f.catalog = NewCatalog(memCategories{db}, memAssignments{db}, memUsers{db}, f.ledger, nil)
	f.accounts = NewAccounts(memUsers{db}, f.ledger, 4, nil)
	return f
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

// employee creates an employee with one assignment holding one category.
func (f *fixture) employee(name, category string) (userID, assignmentID, categoryID uint64) {
	userID = f.db.addUser(name, model.RoleEmployee)
	categoryID = f.db.addCategory(category)
	assignmentID = f.db.assign(userID, categoryID)
	return
}
