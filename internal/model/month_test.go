package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthYear(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MonthDate
		wantErr bool
	}{
		{
			name:  "valid month-year",
			input: "07-2025",
			want:  NewMonthDate(2025, time.July),
		},
		{
			name:  "december",
			input: "12-2024",
			want:  NewMonthDate(2024, time.December),
		},
		{
			name:  "normalized date passes through",
			input: "2025-07-01",
			want:  NewMonthDate(2025, time.July),
		},
		{
			name:  "stray day truncated to month anchor",
			input: "2025-07-15",
			want:  NewMonthDate(2025, time.July),
		},
		{
			name:  "surrounding whitespace tolerated",
			input: " 07-2025 ",
			want:  NewMonthDate(2025, time.July),
		},
		{
			name:    "month out of range",
			input:   "13-2025",
			wantErr: true,
		},
		{
			name:    "two-digit year",
			input:   "7-25",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "abcd",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "reversed components",
			input:   "2025-07",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthYear(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				var parseErr *ParseMonthError
				require.True(t, errors.As(err, &parseErr))
				assert.Contains(t, parseErr.Error(), "invalid month-year format")
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want.Time), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseMonthYearIdempotent(t *testing.T) {
	first, err := ParseMonthYear("07-2025")
	require.NoError(t, err)

	second, err := ParseMonthYear(first.String())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMonthDateJSON(t *testing.T) {
	m := NewMonthDate(2025, time.July)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"2025-07-01"`, string(data))

	var fromMonthYear MonthDate
	require.NoError(t, json.Unmarshal([]byte(`"07-2025"`), &fromMonthYear))
	assert.Equal(t, m, fromMonthYear)

	var fromDate MonthDate
	require.NoError(t, json.Unmarshal([]byte(`"2025-07-01"`), &fromDate))
	assert.Equal(t, m, fromDate)

	var bad MonthDate
	assert.Error(t, json.Unmarshal([]byte(`"13-2025"`), &bad))
}

func TestMonthDateAddMonths(t *testing.T) {
	m := NewMonthDate(2024, time.November)
	assert.Equal(t, NewMonthDate(2025, time.January), m.AddMonths(2))
	assert.Equal(t, NewMonthDate(2024, time.September), m.AddMonths(-2))
}

func TestMonthPatchTriState(t *testing.T) {
	type body struct {
		EndDate MonthPatch `json:"end_date"`
	}

	var absent body
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	assert.False(t, absent.EndDate.Set)

	var null body
	require.NoError(t, json.Unmarshal([]byte(`{"end_date": null}`), &null))
	assert.True(t, null.EndDate.Set)
	assert.Nil(t, null.EndDate.Month)

	var value body
	require.NoError(t, json.Unmarshal([]byte(`{"end_date": "12-2025"}`), &value))
	assert.True(t, value.EndDate.Set)
	require.NotNil(t, value.EndDate.Month)
	assert.Equal(t, NewMonthDate(2025, time.December), *value.EndDate.Month)

	var bad body
	assert.Error(t, json.Unmarshal([]byte(`{"end_date": "nope"}`), &bad))
}

func TestMonthDateScan(t *testing.T) {
	var m MonthDate
	require.NoError(t, m.Scan(time.Date(2025, time.July, 14, 9, 30, 0, 0, time.FixedZone("X", 3*3600))))
	assert.Equal(t, NewMonthDate(2025, time.July), m)

	var fromBytes MonthDate
	require.NoError(t, fromBytes.Scan([]byte("2025-07-01")))
	assert.Equal(t, NewMonthDate(2025, time.July), fromBytes)

	var bad MonthDate
	assert.Error(t, bad.Scan(42))
}
