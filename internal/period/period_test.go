package period

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthsToDates(t *testing.T) {
	tests := []struct {
		name  string
		input []Month
		count int
		first string
		last  string
	}{
		{
			name:  "february non-leap year",
			input: []Month{{Year: 2025, Month: time.February}},
			count: 28,
			first: "2025-02-01",
			last:  "2025-02-28",
		},
		{
			name:  "february leap year",
			input: []Month{{Year: 2024, Month: time.February}},
			count: 29,
			first: "2024-02-01",
			last:  "2024-02-29",
		},
		{
			name:  "thirty day month",
			input: []Month{{Year: 2025, Month: time.April}},
			count: 30,
			first: "2025-04-01",
			last:  "2025-04-30",
		},
		{
			name: "reporting months",
			input: []Month{
				{Year: 2025, Month: time.March},
				{Year: 2025, Month: time.April},
				{Year: 2025, Month: time.May},
				{Year: 2025, Month: time.June},
			},
			count: 122,
			first: "2025-03-01",
			last:  "2025-06-30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates := MonthsToDates(tt.input)
			require.Len(t, dates, tt.count)
			assert.Equal(t, tt.first, dates[0].String())
			assert.Equal(t, tt.last, dates[len(dates)-1].String())
		})
	}
}

func TestMonthsToDates_KeepsInputOrder(t *testing.T) {
	dates := MonthsToDates([]Month{
		{Year: 2025, Month: time.June},
		{Year: 2025, Month: time.March},
	})
	require.Len(t, dates, 61)
	assert.Equal(t, "2025-06-01", dates[0].String())
	assert.Equal(t, "2025-06-30", dates[29].String())
	assert.Equal(t, "2025-03-01", dates[30].String())
	assert.Equal(t, "2025-03-31", dates[60].String())
}

func TestMonthsToDates_Empty(t *testing.T) {
	assert.Empty(t, MonthsToDates(nil))
}

func TestSpanToDates(t *testing.T) {
	t.Run("inclusive span", func(t *testing.T) {
		dates := SpanToDates(MustParseDate("2025-02-27"), MustParseDate("2025-03-02"))
		got := make([]string, len(dates))
		for i, d := range dates {
			got[i] = d.String()
		}
		assert.Equal(t, []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}, got)
	})

	t.Run("single day", func(t *testing.T) {
		d := MustParseDate("2025-04-10")
		assert.Equal(t, []Date{d}, SpanToDates(d, d))
	})

	t.Run("end before start", func(t *testing.T) {
		dates := SpanToDates(MustParseDate("2025-04-10"), MustParseDate("2025-04-09"))
		assert.NotNil(t, dates)
		assert.Empty(t, dates)
	})

	t.Run("full period matches months", func(t *testing.T) {
		assert.Equal(t, MonthsToDates(Default.Months()), Default.Dates())
	})
}

func TestMonthsBetween(t *testing.T) {
	months := MonthsBetween(MustParseDate("2024-11-15"), MustParseDate("2025-02-01"))
	assert.Equal(t, []Month{
		{Year: 2024, Month: time.November},
		{Year: 2024, Month: time.December},
		{Year: 2025, Month: time.January},
		{Year: 2025, Month: time.February},
	}, months)

	assert.Empty(t, MonthsBetween(MustParseDate("2025-02-01"), MustParseDate("2025-01-01")))
}

func TestDefaultPeriod(t *testing.T) {
	assert.Len(t, Default.Months(), 4)
	assert.True(t, Default.Full.Contains(MustParseDate("2025-03-01")))
	assert.True(t, Default.Full.Contains(MustParseDate("2025-06-30")))
	assert.False(t, Default.Full.Contains(MustParseDate("2025-07-01")))

	assert.False(t, Default.Editable.Contains(MustParseDate("2025-03-02")))
	assert.True(t, Default.Editable.Contains(MustParseDate("2025-03-03")))
	assert.True(t, Default.Editable.Contains(MustParseDate("2025-06-13")))
	assert.False(t, Default.Editable.Contains(MustParseDate("2025-06-14")))

	// highlight and editable windows overlap but are independent
	assert.True(t, Default.Highlight.Contains(MustParseDate("2025-06-05")))
	assert.True(t, Default.Editable.Contains(MustParseDate("2025-06-05")))
	assert.False(t, Default.Highlight.Contains(MustParseDate("2025-05-31")))
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.March, Day: 1}, d)
	assert.Equal(t, time.Saturday, d.Weekday())
	assert.Equal(t, "2025-02-28", d.AddDays(-1).String())
	assert.Equal(t, NewDate(2025, time.May, 1), NewDate(2025, time.April, 31))

	_, err = ParseDate("2025-02-30")
	assert.Error(t, err)
	_, err = ParseDate("01/03/2025")
	assert.Error(t, err)

	assert.True(t, Date{}.IsZero())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.After(d.AddDays(-1)))
	assert.Equal(t, 0, d.Compare(NewDate(2025, time.March, 1)))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2025-06-13"))
	assert.Equal(t, "2025-06-13", d.String())

	require.NoError(t, d.Scan([]byte("2025-06-14")))
	assert.Equal(t, "2025-06-14", d.String())

	require.NoError(t, d.Scan(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-06-15", d.String())

	assert.Error(t, d.Scan(42))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", v)
}

func TestDate_JSONMapKey(t *testing.T) {
	data, err := json.Marshal(map[Date]float64{MustParseDate("2025-03-01"): 3.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"2025-03-01": 3.5}`, string(data))

	var decoded map[Date]float64
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3.5, decoded[MustParseDate("2025-03-01")])
}

func TestDate_ZeroJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Date Date `json:"date"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date": ""}`, string(data))

	d := MustParseDate("2025-03-01")
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())
}

func TestMonth(t *testing.T) {
	m := Month{Year: 2024, Month: time.December}
	assert.Equal(t, "December 2024", m.String())
	assert.Equal(t, "2024-12", m.Key())
	assert.Equal(t, Month{Year: 2025, Month: time.January}, m.Next())
	assert.Equal(t, 31, m.Days())
	assert.Equal(t, "2024-12-01", m.FirstDay().String())
	assert.Equal(t, "2024-12-31", m.LastDay().String())
}
