// Package pet holds the family's pet-care records: daily observations, the
// medication checklist and short "hitokoto" messages.
package pet

import (
	"fmt"
	"time"
)

// TimePeriods are the columns of the medication checklist, in display order.
var TimePeriods = []string{"朝", "昼", "夜", "寝る前"}

const defaultMedicationCount = 10

// DogRecord is one observation written from the dashboard.
type DogRecord struct {
	RecordDate string    `json:"recordDate"`
	RecordID   string    `json:"recordId"`
	Time       string    `json:"time"`
	Condition  string    `json:"condition"`
	Meal       string    `json:"meal"`
	Toilet     string    `json:"toilet"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Medication is one row of the checklist; Periods is keyed by TimePeriods.
type Medication struct {
	Name    string          `json:"name"`
	Periods map[string]bool `json:"periods"`
}

// MedicationSchedule is the whole checklist, stored as a single document.
type MedicationSchedule struct {
	Medications []Medication `json:"medications"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Hitokoto is a short message shown on the dashboard.
type Hitokoto struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultMedications returns the placeholder checklist created on first access.
func DefaultMedications() []Medication {
	meds := make([]Medication, 0, defaultMedicationCount)
	for i := 1; i <= defaultMedicationCount; i++ {
		periods := make(map[string]bool, len(TimePeriods))
		for _, p := range TimePeriods {
			periods[p] = false
		}
		meds = append(meds, Medication{Name: fmt.Sprintf("薬%d", i), Periods: periods})
	}
	return meds
}
