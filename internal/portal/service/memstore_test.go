package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/ovcare-portal/internal/audit"
	"github.com/xela07ax/ovcare-portal/internal/domain"
)

// memStore — in-memory реализация Store для тестов сервисов
type memStore struct {
	mu            sync.Mutex
	patients      map[int64]*domain.Patient
	doctors       map[string]*domain.Doctor
	entries       []domain.BiomarkerEntry
	records       []domain.RiskRecord
	notes         []domain.DoctorNote
	notifications []domain.Notification
	nextID        int64
	clock         time.Time
}

func newMemStore() *memStore {
	return &memStore{
		patients: make(map[int64]*domain.Patient),
		doctors:  make(map[string]*domain.Doctor),
		clock:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// tick — каждый новый замер на сутки позже предыдущего
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(24 * time.Hour)
	return m.clock
}

func (m *memStore) addPatient(p domain.Patient) *domain.Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.patients[p.ID] = &p
	return &p
}

func (m *memStore) GetPatientByEmail(_ context.Context, email string) (*domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("patient: %w", domain.ErrNotFound)
}

func (m *memStore) GetPatientByID(_ context.Context, id int64) (*domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient: %w", domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetDoctorByEmail(_ context.Context, email string) (*domain.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[email]
	if !ok {
		return nil, fmt.Errorf("doctor: %w", domain.ErrNotFound)
	}
	return d, nil
}

func (m *memStore) CreatePatient(_ context.Context, p *domain.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.patients {
		if existing.Email == p.Email {
			return domain.ErrEmailTaken
		}
	}
	p.ID = m.id()
	p.CreatedAt = m.clock
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *memStore) UpdatePatientProfile(_ context.Context, p *domain.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *memStore) UpdatePatientPassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.PasswordHash = hash
	return nil
}

func (m *memStore) ListPatients(_ context.Context) ([]*domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) patientEntries(patientID int64) []domain.BiomarkerEntry {
	var out []domain.BiomarkerEntry
	for _, e := range m.entries {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) ListLatestEntries(_ context.Context, patientID int64, limit int) ([]domain.BiomarkerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	asc := m.patientEntries(patientID)
	out := make([]domain.BiomarkerEntry, 0, limit)
	for i := len(asc) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, asc[i])
	}
	return out, nil
}

func (m *memStore) ListEntries(_ context.Context, patientID int64) ([]domain.BiomarkerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.patientEntries(patientID)
	if out == nil {
		out = []domain.BiomarkerEntry{}
	}
	return out, nil
}

func (m *memStore) CountEntries(_ context.Context, patientID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patientEntries(patientID)), nil
}

func (m *memStore) SaveEntry(_ context.Context, entry *domain.BiomarkerEntry, assess func(prev *domain.BiomarkerEntry) domain.RiskRecord) (*domain.RiskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = m.tick()
	}

	// Предыдущий — самый поздний замер строго раньше нового
	var prev *domain.BiomarkerEntry
	for _, e := range m.patientEntries(entry.PatientID) {
		if e.RecordedAt.Before(entry.RecordedAt) && (prev == nil || e.RecordedAt.After(prev.RecordedAt)) {
			p := e
			prev = &p
		}
	}

	entry.ID = m.id()
	m.entries = append(m.entries, *entry)

	rec := assess(prev)
	rec.ID = m.id()
	rec.PatientID = entry.PatientID
	rec.CalculatedAt = entry.RecordedAt
	m.records = append(m.records, rec)
	return &rec, nil
}

func (m *memStore) addRecord(rec domain.RiskRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.id()
	if rec.CalculatedAt.IsZero() {
		rec.CalculatedAt = m.tick()
	}
	m.records = append(m.records, rec)
}

func (m *memStore) ListRiskRecords(_ context.Context, patientID int64, limit int) ([]domain.RiskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.RiskRecord, 0)
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].PatientID != patientID {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memStore) CreateNote(_ context.Context, n *domain.DoctorNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.id()
	n.CreatedAt = m.clock
	m.notes = append(m.notes, *n)
	return nil
}

func (m *memStore) ListNotes(_ context.Context, patientID int64, limit int) ([]domain.DoctorNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DoctorNote, 0)
	for i := len(m.notes) - 1; i >= 0; i-- {
		if m.notes[i].PatientID != patientID {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, m.notes[i])
	}
	return out, nil
}

func (m *memStore) addNotification(n domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.id()
	m.notifications = append(m.notifications, n)
}

func (m *memStore) ListNotifications(_ context.Context, userID int64, role domain.Role, limit int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Notification, 0)
	for i := len(m.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := m.notifications[i]
		if n.UserID == userID && n.UserType == role {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) CountUnread(_ context.Context, userID int64, role domain.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := 0
	for _, n := range m.notifications {
		if n.UserID == userID && n.UserType == role && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (m *memStore) MarkRead(_ context.Context, id, userID int64, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		n := &m.notifications[i]
		if n.ID == id && n.UserID == userID && n.UserType == role {
			n.IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
}

func (m *memStore) GetAnalytics(_ context.Context) (*domain.Analytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &domain.Analytics{TotalPatients: int64(len(m.patients)), RiskDistribution: map[domain.RiskTier]int{}}, nil
}

// memSessions — сессии в памяти
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Principal
	seq      int
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]domain.Principal)}
}

func (s *memSessions) Create(_ context.Context, p domain.Principal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p.SessionID = fmt.Sprintf("sid-%d", s.seq)
	s.sessions[p.SessionID] = p
	return p.SessionID, nil
}

func (s *memSessions) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}

// memPublisher запоминает опубликованные сигналы
type memPublisher struct {
	mu       sync.Mutex
	messages []string
}

func (p *memPublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, channel+"|"+fmt.Sprint(message))
	return redis.NewIntResult(1, nil)
}

// memAuditor собирает события журнала доступа
type memAuditor struct {
	mu     sync.Mutex
	events []audit.AccessEvent
}

func (a *memAuditor) Log(e audit.AccessEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

// fakePredictor — управляемый ответ модели
type fakePredictor struct {
	pred  *domain.Prediction
	err   error
	calls int
}

func (f *fakePredictor) Predict(_ context.Context, _ map[string]any) (*domain.Prediction, error) {
	f.calls++
	return f.pred, f.err
}
