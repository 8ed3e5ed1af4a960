package charts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidvax/internal/config"
	"covidvax/internal/shared/testutil"
	"covidvax/pkg/contracts/domain"
)

func records() []domain.CaseRecord {
	recs := []domain.CaseRecord{
		{Date: testutil.Date(2022, 1, 1), State: "Selangor", CasesUnvax: 10, CasesPvax: 5, CasesFvax: 3, CasesBoost: 2},
		{Date: testutil.Date(2022, 1, 2), State: "Selangor", CasesUnvax: 1, CasesPvax: 1, CasesFvax: 1, CasesBoost: 1},
	}
	for i := range recs {
		recs[i].Derive()
	}
	return recs
}

func TestRenderer_Render(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewRenderer(config.ChartBar, "Covid Cases based on MoH data")
			require.NoError(t, r.Render(&buf, ChartRequest{Records: records(), State: "Selangor", Kind: kind}))

			html := buf.String()
			assert.Contains(t, html, "Covid Cases based on MoH data")
			assert.Contains(t, html, "2022-01-01")
			assert.Contains(t, html, "Total new cases")
			assert.Regexp(t, `type[^a-z]+`+kind, html)
		})
	}
}

func TestRenderer_DefaultKind(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(config.ChartLine, "t").Render(&buf, ChartRequest{Records: records()}))
	assert.Regexp(t, `type[^a-z]+line`, buf.String())

	buf.Reset()
	require.NoError(t, NewRenderer("", "t").Render(&buf, ChartRequest{Records: records()}))
	assert.Regexp(t, `type[^a-z]+bar`, buf.String())
}

func TestRenderer_EmptyView(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(config.ChartBar, "t").Render(&buf, ChartRequest{}))
	assert.NotEmpty(t, buf.String())
}

func TestRenderer_UnknownKind(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer(config.ChartBar, "t").Render(&buf, ChartRequest{Kind: "pie"})
	assert.Error(t, err)
}
