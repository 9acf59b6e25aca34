package database

import (
	"errors"
	"fmt"
	"testing"

	"family_schedule_bot/internal/domain/schedule"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: pq.ErrorCode(pgerrcode.UniqueViolation)}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isUniqueViolation(&pq.Error{Code: pq.ErrorCode(pgerrcode.NotNullViolation)}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestJSONColumnRoundTrip(t *testing.T) {
	in := map[string]schedule.PointsBreakdown{"u1": {DisplayName: "Alice", TotalPoints: 8}}
	v, err := jsonColumn{in}.Value()
	require.NoError(t, err)

	var out map[string]schedule.PointsBreakdown
	require.NoError(t, jsonColumn{&out}.Scan(v))
	assert.Equal(t, in, out)

	var slots schedule.Slots
	require.NoError(t, jsonColumn{&slots}.Scan(`{"2025-01-06:09":true}`))
	assert.True(t, slots["2025-01-06:09"])

	require.NoError(t, jsonColumn{&slots}.Scan(nil))
	assert.Error(t, jsonColumn{&slots}.Scan(42))
}
