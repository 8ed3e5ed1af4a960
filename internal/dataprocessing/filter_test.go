package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidvax/internal/shared/testutil"
	"covidvax/pkg/contracts/domain"
)

func record(day time.Time, state string, unvax, pvax, fvax, boost int64) domain.CaseRecord {
	r := domain.CaseRecord{Date: day, State: state, CasesUnvax: unvax, CasesPvax: pvax, CasesFvax: fvax, CasesBoost: boost}
	r.Derive()
	return r
}

func sampleDataset() *domain.Dataset {
	ds := &domain.Dataset{Source: "sample"}
	for _, row := range testutil.SampleCaseRows() {
		ds.Records = append(ds.Records, record(row.Date, row.State, row.CasesUnvax, row.CasesPvax, row.CasesFvax, row.CasesBoost))
	}
	ds.RowsRead = len(ds.Records)
	return ds
}

func TestFilter_SingleDay(t *testing.T) {
	ds := &domain.Dataset{Records: []domain.CaseRecord{
		record(testutil.Date(2022, 1, 1), "Selangor", 10, 5, 3, 2),
		record(testutil.Date(2022, 1, 2), "Selangor", 1, 1, 1, 1),
	}}

	view := Filter(ds, domain.FilterCriteria{
		Start: testutil.Date(2022, 1, 1),
		End:   testutil.Date(2022, 1, 1),
		State: "Selangor",
	})

	require.Len(t, view.Records, 1)
	assert.Equal(t, int64(20), view.Records[0].TotalCases)
}

func TestFilter(t *testing.T) {
	ds := sampleDataset()

	tests := []struct {
		name     string
		criteria domain.FilterCriteria
		want     int
	}{
		{
			name:     "full range one state",
			criteria: domain.FilterCriteria{Start: testutil.Date(2021, 9, 1), End: testutil.Date(2021, 9, 3), State: "Johor"},
			want:     3,
		},
		{
			name:     "inclusive end",
			criteria: domain.FilterCriteria{Start: testutil.Date(2021, 9, 2), End: testutil.Date(2021, 9, 3), State: "Selangor"},
			want:     2,
		},
		{
			name:     "time of day ignored",
			criteria: domain.FilterCriteria{Start: time.Date(2021, 9, 3, 23, 59, 0, 0, time.UTC), End: time.Date(2021, 9, 3, 0, 0, 1, 0, time.UTC), State: "Johor"},
			want:     1,
		},
		{
			name:     "inverted range",
			criteria: domain.FilterCriteria{Start: testutil.Date(2021, 9, 3), End: testutil.Date(2021, 9, 1), State: "Johor"},
			want:     0,
		},
		{
			name:     "unknown state",
			criteria: domain.FilterCriteria{Start: testutil.Date(2021, 9, 1), End: testutil.Date(2021, 9, 3), State: "Atlantis"},
			want:     0,
		},
		{
			name:     "state match is exact",
			criteria: domain.FilterCriteria{Start: testutil.Date(2021, 9, 1), End: testutil.Date(2021, 9, 3), State: "johor"},
			want:     0,
		},
		{
			name:     "outside data",
			criteria: domain.FilterCriteria{Start: testutil.Date(2020, 1, 1), End: testutil.Date(2020, 12, 31), State: "Johor"},
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Filter(ds, tt.criteria)
			require.NotNil(t, view.Records)
			assert.Len(t, view.Records, tt.want)
			for _, rec := range view.Records {
				assert.Equal(t, tt.criteria.State, rec.State)
				assert.False(t, rec.Date.Before(domain.Day(tt.criteria.Start)))
				assert.False(t, rec.Date.After(domain.Day(tt.criteria.End)))
			}
		})
	}
}

func TestFilter_PreservesOrderAndInput(t *testing.T) {
	ds := sampleDataset()
	before := append([]domain.CaseRecord(nil), ds.Records...)

	c := domain.FilterCriteria{Start: testutil.Date(2021, 9, 1), End: testutil.Date(2021, 9, 3), State: "Selangor"}
	view := Filter(ds, c)
	require.Len(t, view.Records, 3)
	for i := 1; i < len(view.Records); i++ {
		assert.True(t, view.Records[i-1].Date.Before(view.Records[i].Date))
	}

	view.Records[0].State = "mutated"
	assert.Equal(t, before, ds.Records)
	assert.Equal(t, ds.Source, view.Source)
}

func TestFilter_Idempotent(t *testing.T) {
	ds := sampleDataset()
	c := domain.FilterCriteria{Start: testutil.Date(2021, 9, 2), End: testutil.Date(2021, 9, 3), State: "Johor"}

	once := Filter(ds, c)
	twice := Filter(once, c)
	assert.Equal(t, once.Records, twice.Records)
}

func TestFilter_NilDataset(t *testing.T) {
	view := Filter(nil, domain.FilterCriteria{})
	require.NotNil(t, view)
	assert.Empty(t, view.Records)
}

func TestStates(t *testing.T) {
	assert.Equal(t, []string{"Johor", "Selangor"}, States(sampleDataset()))
	assert.Equal(t, []string{}, States(nil))
}

func TestDateBounds(t *testing.T) {
	bounds, ok := DateBounds(sampleDataset())
	require.True(t, ok)
	assert.Equal(t, testutil.Date(2021, 9, 1), bounds.Start)
	assert.Equal(t, testutil.Date(2021, 9, 3), bounds.End)

	_, ok = DateBounds(&domain.Dataset{})
	assert.False(t, ok)
}

func TestDefaultCriteria(t *testing.T) {
	c := DefaultCriteria(sampleDataset())
	assert.Equal(t, testutil.Date(2021, 9, 1), c.Start)
	assert.Equal(t, testutil.Date(2021, 9, 3), c.End)
	assert.Equal(t, "Johor", c.State)

	assert.Equal(t, domain.FilterCriteria{}, DefaultCriteria(&domain.Dataset{}))
}

func TestResolveCriteria(t *testing.T) {
	ds := sampleDataset()

	c := ResolveCriteria(ds, domain.FilterCriteria{State: "Selangor"})
	assert.Equal(t, testutil.Date(2021, 9, 1), c.Start)
	assert.Equal(t, testutil.Date(2021, 9, 3), c.End)
	assert.Equal(t, "Selangor", c.State)

	c = ResolveCriteria(ds, domain.FilterCriteria{Start: time.Date(2021, 9, 2, 15, 0, 0, 0, time.UTC)})
	assert.Equal(t, testutil.Date(2021, 9, 2), c.Start)
	assert.Equal(t, "Johor", c.State)
}

func TestSummarize(t *testing.T) {
	ds := &domain.Dataset{Records: []domain.CaseRecord{
		record(testutil.Date(2022, 1, 1), "Selangor", 10, 5, 3, 2),
		record(testutil.Date(2022, 1, 2), "Selangor", 1, 1, 1, 1),
	}}

	totals := Summarize(ds)
	assert.Equal(t, 2, totals.Rows)
	assert.Equal(t, int64(11), totals.CasesUnvax)
	assert.Equal(t, int64(6), totals.CasesPvax)
	assert.Equal(t, int64(4), totals.CasesFvax)
	assert.Equal(t, int64(3), totals.CasesBoost)
	assert.Equal(t, int64(24), totals.TotalCases)

	v, ok := totals.Value(domain.ColumnTotalCases)
	assert.True(t, ok)
	assert.Equal(t, int64(24), v)

	assert.Equal(t, domain.Totals{}, Summarize(nil))
}
