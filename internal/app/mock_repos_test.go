package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"family_schedule_bot/internal/domain/pet"
	"family_schedule_bot/internal/domain/schedule"
	"family_schedule_bot/internal/domain/settings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

var testLinks = Links{BaseURL: "https://family.example.com/"}

// ── Mock InputRepository ──

type mockInputRepo struct {
	inputs  map[string]map[string]*schedule.Input // weekID -> userID -> input
	order   map[string][]string
	listErr error
	saveErr error
}

func newMockInputRepo() *mockInputRepo {
	return &mockInputRepo{inputs: make(map[string]map[string]*schedule.Input), order: make(map[string][]string)}
}

func (m *mockInputRepo) Get(_ context.Context, weekID, userID string) (*schedule.Input, error) {
	if in, ok := m.inputs[weekID][userID]; ok {
		cp := *in
		return &cp, nil
	}
	return nil, schedule.ErrInputNotFound
}

func (m *mockInputRepo) ListByWeek(_ context.Context, weekID string) ([]*schedule.Input, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]*schedule.Input, 0)
	for _, userID := range m.order[weekID] {
		result = append(result, m.inputs[weekID][userID])
	}
	return result, nil
}

func (m *mockInputRepo) Save(_ context.Context, input *schedule.Input) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.inputs[input.WeekID] == nil {
		m.inputs[input.WeekID] = make(map[string]*schedule.Input)
	}
	if _, ok := m.inputs[input.WeekID][input.UserID]; !ok {
		m.order[input.WeekID] = append(m.order[input.WeekID], input.UserID)
	}
	cp := *input
	m.inputs[input.WeekID][input.UserID] = &cp
	return nil
}

func (m *mockInputRepo) ListWeekIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.inputs))
	for id, users := range m.inputs {
		if len(users) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockInputRepo) DeleteWeek(_ context.Context, weekID string) (int64, error) {
	n := int64(len(m.inputs[weekID]))
	delete(m.inputs, weekID)
	delete(m.order, weekID)
	return n, nil
}

// ── Mock FinalizedRepository ──

type mockFinalizedRepo struct {
	mu    sync.Mutex
	weeks map[string]*schedule.FinalizedWeek
	// beforeCreate runs once before the first Create, to simulate a concurrent writer.
	beforeCreate func()
	creates      int
	updates      int
}

func newMockFinalizedRepo() *mockFinalizedRepo {
	return &mockFinalizedRepo{weeks: make(map[string]*schedule.FinalizedWeek)}
}

func (m *mockFinalizedRepo) Get(_ context.Context, weekID string) (*schedule.FinalizedWeek, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fw, ok := m.weeks[weekID]; ok {
		cp := *fw
		return &cp, nil
	}
	return nil, schedule.ErrFinalizedWeekNotFound
}

func (m *mockFinalizedRepo) Create(_ context.Context, fw *schedule.FinalizedWeek) error {
	if hook := m.beforeCreate; hook != nil {
		m.beforeCreate = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.weeks[fw.WeekID]; ok {
		return schedule.ErrFinalizedWeekExists
	}
	cp := *fw
	m.weeks[fw.WeekID] = &cp
	m.creates++
	return nil
}

func (m *mockFinalizedRepo) Update(_ context.Context, fw *schedule.FinalizedWeek, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.weeks[fw.WeekID]
	if !ok || current.Version != expectedVersion {
		return schedule.ErrFinalizedVersionClash
	}
	cp := *fw
	m.weeks[fw.WeekID] = &cp
	m.updates++
	return nil
}

func (m *mockFinalizedRepo) MarkRolledUp(_ context.Context, weekID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.weeks[weekID]
	if !ok {
		return schedule.ErrFinalizedWeekNotFound
	}
	current.RolledUp = true
	return nil
}

func (m *mockFinalizedRepo) ListAll(_ context.Context) ([]*schedule.FinalizedWeek, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*schedule.FinalizedWeek, 0, len(m.weeks))
	for _, fw := range m.weeks {
		cp := *fw
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockFinalizedRepo) Delete(_ context.Context, weekID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.weeks[weekID]; !ok {
		return schedule.ErrFinalizedWeekNotFound
	}
	delete(m.weeks, weekID)
	return nil
}

// ── Mock PointsRepository ──

type mockPointsRepo struct {
	totals map[string]*schedule.UserPointsTotal
	// failOnce makes the next Save for the user fail with the given error.
	failOnce map[string]error
}

func newMockPointsRepo() *mockPointsRepo {
	return &mockPointsRepo{totals: make(map[string]*schedule.UserPointsTotal)}
}

func (m *mockPointsRepo) Get(_ context.Context, userID string) (*schedule.UserPointsTotal, error) {
	if t, ok := m.totals[userID]; ok {
		cp := *t
		cp.RolledUpWeeks = append([]string(nil), t.RolledUpWeeks...)
		return &cp, nil
	}
	return nil, schedule.ErrUserPointsNotFound
}

func (m *mockPointsRepo) Save(_ context.Context, total *schedule.UserPointsTotal) error {
	if err, ok := m.failOnce[total.UserID]; ok {
		delete(m.failOnce, total.UserID)
		return err
	}
	cp := *total
	cp.RolledUpWeeks = append([]string(nil), total.RolledUpWeeks...)
	m.totals[total.UserID] = &cp
	return nil
}

func (m *mockPointsRepo) ListAll(_ context.Context) ([]*schedule.UserPointsTotal, error) {
	result := make([]*schedule.UserPointsTotal, 0, len(m.totals))
	for _, t := range m.totals {
		cp := *t
		result = append(result, &cp)
	}
	return result, nil
}

// ── Mock settings.Repository ──

type mockSettingsRepo struct {
	cfg    *settings.SystemConfig
	getErr error
}

func (m *mockSettingsRepo) Get(_ context.Context) (*settings.SystemConfig, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.cfg == nil {
		return nil, settings.ErrNotFound
	}
	cp := *m.cfg
	return &cp, nil
}

func (m *mockSettingsRepo) Save(_ context.Context, cfg *settings.SystemConfig) error {
	cp := *cfg
	m.cfg = &cp
	return nil
}

// ── Mock messaging.Client ──

type sentMessage struct {
	ChatID int64
	Text   string
}

type mockClient struct {
	sent []sentMessage
	err  error
}

func (m *mockClient) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

// ── Mock pet repositories ──

type mockRecordRepo struct {
	records []*pet.DogRecord
}

func (m *mockRecordRepo) Create(_ context.Context, record *pet.DogRecord) error {
	cp := *record
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockRecordRepo) ListByDate(ctx context.Context, date string) ([]*pet.DogRecord, error) {
	return m.ListByRange(ctx, date, date)
}

func (m *mockRecordRepo) ListByRange(_ context.Context, start, end string) ([]*pet.DogRecord, error) {
	result := make([]*pet.DogRecord, 0)
	for _, r := range m.records {
		if r.RecordDate >= start && r.RecordDate <= end {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RecordDate != result[j].RecordDate {
			return result[i].RecordDate < result[j].RecordDate
		}
		return result[i].Time < result[j].Time
	})
	return result, nil
}

func (m *mockRecordRepo) Delete(_ context.Context, date, recordID string) error {
	for i, r := range m.records {
		if r.RecordDate == date && r.RecordID == recordID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return pet.ErrRecordNotFound
}

type mockMedicationRepo struct {
	schedule *pet.MedicationSchedule
	saves    int
}

func (m *mockMedicationRepo) Get(_ context.Context) (*pet.MedicationSchedule, error) {
	if m.schedule == nil {
		return nil, pet.ErrMedicationsNotFound
	}
	return m.schedule, nil
}

func (m *mockMedicationRepo) Save(_ context.Context, s *pet.MedicationSchedule) error {
	m.schedule = s
	m.saves++
	return nil
}

type mockHitokotoRepo struct {
	items []*pet.Hitokoto
}

func (m *mockHitokotoRepo) List(_ context.Context) ([]*pet.Hitokoto, error) {
	result := append([]*pet.Hitokoto(nil), m.items...)
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockHitokotoRepo) Create(_ context.Context, h *pet.Hitokoto) error {
	m.items = append(m.items, h)
	return nil
}

func (m *mockHitokotoRepo) Delete(_ context.Context, id string) error {
	for i, h := range m.items {
		if h.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return pet.ErrHitokotoNotFound
}

var errBoom = errors.New("boom")
