package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"family_schedule_bot/internal/domain/pet"
	"family_schedule_bot/internal/domain/week"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var clockTime = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// RecordRequest is a new dog record from the dashboard.
type RecordRequest struct {
	RecordDate string `json:"recordDate"`
	Time       string `json:"time"`
	Condition  string `json:"condition"`
	Meal       string `json:"meal"`
	Toilet     string `json:"toilet"`
}

func (r *RecordRequest) Validate() error {
	err := validation.ValidateStruct(
		r,
		validation.Field(&r.RecordDate, validation.Required, validation.Date(week.DateLayout)),
		validation.Field(&r.Time, validation.Required, validation.Match(clockTime)),
		validation.Field(&r.Condition, validation.RuneLength(0, 500)),
		validation.Field(&r.Meal, validation.RuneLength(0, 500)),
		validation.Field(&r.Toilet, validation.RuneLength(0, 500)),
	)
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.Condition+r.Meal+r.Toilet) == "" {
		return errors.New("one of condition, meal or toilet is required")
	}
	return nil
}

// RecordRange is the calendar view of records between two dates.
type RecordRange struct {
	StartDate        string                      `json:"startDate"`
	EndDate          string                      `json:"endDate"`
	DatesWithRecords []string                    `json:"datesWithRecords"`
	RecordsByDate    map[string][]*pet.DogRecord `json:"recordsByDate"`
}

type PetService struct {
	recordRepo     pet.RecordRepository
	medicationRepo pet.MedicationRepository
	hitokotoRepo   pet.HitokotoRepository
	logger         *logrus.Entry
}

func NewPetService(rr pet.RecordRepository, mr pet.MedicationRepository, hr pet.HitokotoRepository, logger *logrus.Entry) *PetService {
	return &PetService{
		recordRepo:     rr,
		medicationRepo: mr,
		hitokotoRepo:   hr,
		logger:         logger.WithField("component", "pet"),
	}
}

func (s *PetService) CreateRecord(ctx context.Context, req *RecordRequest, now time.Time) (*pet.DogRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	record := &pet.DogRecord{
		RecordDate: req.RecordDate,
		RecordID:   strings.ReplaceAll(req.Time, ":", "") + "-" + uuid.NewString(),
		Time:       req.Time,
		Condition:  req.Condition,
		Meal:       req.Meal,
		Toilet:     req.Toilet,
		CreatedAt:  now,
	}
	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create dog record: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"record_date": record.RecordDate, "record_id": record.RecordID}).Info("Dog record saved")
	return record, nil
}

func (s *PetService) RecordsForDate(ctx context.Context, date string) ([]*pet.DogRecord, error) {
	if err := validation.Validate(date, validation.Required, validation.Date(week.DateLayout)); err != nil {
		return nil, fmt.Errorf("%w: date %v", ErrValidation, err)
	}
	records, err := s.recordRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list dog records: %w", err)
	}
	return records, nil
}

func (s *PetService) RecordsInRange(ctx context.Context, start, end string) (*RecordRange, error) {
	for _, d := range []string{start, end} {
		if err := validation.Validate(d, validation.Required, validation.Date(week.DateLayout)); err != nil {
			return nil, fmt.Errorf("%w: date %v", ErrValidation, err)
		}
	}
	if end < start {
		return nil, fmt.Errorf("%w: end is before start", ErrValidation)
	}

	records, err := s.recordRepo.ListByRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list dog records: %w", err)
	}

	result := &RecordRange{
		StartDate:        start,
		EndDate:          end,
		DatesWithRecords: make([]string, 0),
		RecordsByDate:    make(map[string][]*pet.DogRecord),
	}
	for _, r := range records {
		if _, ok := result.RecordsByDate[r.RecordDate]; !ok {
			result.DatesWithRecords = append(result.DatesWithRecords, r.RecordDate)
		}
		result.RecordsByDate[r.RecordDate] = append(result.RecordsByDate[r.RecordDate], r)
	}
	return result, nil
}

func (s *PetService) DeleteRecord(ctx context.Context, date, recordID string) error {
	if date == "" || recordID == "" {
		return fmt.Errorf("%w: date and record id are required", ErrValidation)
	}
	if err := s.recordRepo.Delete(ctx, date, recordID); err != nil {
		return fmt.Errorf("failed to delete dog record: %w", err)
	}
	return nil
}

// Medications returns the checklist, creating the default one on first access.
func (s *PetService) Medications(ctx context.Context, now time.Time) (*pet.MedicationSchedule, error) {
	sched, err := s.medicationRepo.Get(ctx)
	if err == nil {
		return sched, nil
	}
	if !errors.Is(err, pet.ErrMedicationsNotFound) {
		return nil, fmt.Errorf("failed to get medications: %w", err)
	}

	sched = &pet.MedicationSchedule{Medications: pet.DefaultMedications(), UpdatedAt: now}
	if err := s.medicationRepo.Save(ctx, sched); err != nil {
		return nil, fmt.Errorf("failed to create default medications: %w", err)
	}
	s.logger.Info("Default medication checklist created")
	return sched, nil
}

func (s *PetService) SaveMedications(ctx context.Context, meds []pet.Medication, now time.Time) error {
	err := validation.Validate(meds, validation.NotNil, validation.By(func(value interface{}) error {
		for i, m := range meds {
			if strings.TrimSpace(m.Name) == "" {
				return fmt.Errorf("medication %d has no name", i+1)
			}
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("%w: medications %v", ErrValidation, err)
	}
	if err := s.medicationRepo.Save(ctx, &pet.MedicationSchedule{Medications: meds, UpdatedAt: now}); err != nil {
		return fmt.Errorf("failed to save medications: %w", err)
	}
	return nil
}

func (s *PetService) ListHitokoto(ctx context.Context) ([]*pet.Hitokoto, error) {
	list, err := s.hitokotoRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list hitokoto: %w", err)
	}
	return list, nil
}

func (s *PetService) AddHitokoto(ctx context.Context, text string, now time.Time) (*pet.Hitokoto, error) {
	text = strings.TrimSpace(text)
	if err := validation.Validate(text, validation.Required, validation.RuneLength(1, 200)); err != nil {
		return nil, fmt.Errorf("%w: text %v", ErrValidation, err)
	}
	h := &pet.Hitokoto{ID: uuid.NewString(), Text: text, CreatedAt: now}
	if err := s.hitokotoRepo.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to add hitokoto: %w", err)
	}
	return h, nil
}

func (s *PetService) DeleteHitokoto(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: hitokoto id is required", ErrValidation)
	}
	if err := s.hitokotoRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete hitokoto: %w", err)
	}
	return nil
}
