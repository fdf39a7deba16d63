package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Veraticus/bounce-back/internal/model"
	"github.com/Veraticus/bounce-back/internal/preview"
	"github.com/Veraticus/bounce-back/internal/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierColor(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{label: "Platinum", want: string(TierColors[model.TierPlatinum])},
		{label: "gold", want: string(TierColors[model.TierGold])},
		{label: " Silver ", want: string(TierColors[model.TierSilver])},
		{label: "Bronze", want: string(TierColors[model.TierBronze])},
		{label: "Copper", want: string(TierColors[model.TierCopper])},
		{label: "Diamond", want: string(FallbackTierColor)},
		{label: "", want: string(FallbackTierColor)},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, string(TierColor(tt.label)))
		})
	}
}

func TestTierColorsAreDistinct(t *testing.T) {
	seen := map[string]model.Tier{}
	for _, tier := range model.Tiers() {
		color := string(TierColors[tier])
		require.NotEmpty(t, color, tier.String())
		_, dup := seen[color]
		assert.False(t, dup, "%s shares a color", tier)
		seen[color] = tier
	}
}

func TestBadge(t *testing.T) {
	assert.Contains(t, Badge("gold"), "Gold")
	assert.Contains(t, Badge("Diamond"), "Diamond")
	assert.Contains(t, Badge(""), "?")
}

func TestRenderPreview(t *testing.T) {
	p := preview.Parse("Customer_ID,Age,City\nCUST-1,40,Lyon\nCUST-2,31")

	out := RenderPreview(p)
	for _, want := range []string{"Customer_ID", "Age", "City", "CUST-1", "Lyon", "CUST-2"} {
		assert.Contains(t, out, want)
	}

	assert.Contains(t, out, "Row 2 is missing City")

	short := RenderPreview(preview.Parse("a,b,c\n1,2,3\n4"))
	assert.Contains(t, short, "Row 2 is missing b, c")
	assert.NotContains(t, short, "Row 1 is missing")

	empty := RenderPreview(preview.Parse("a,b"))
	assert.Contains(t, empty, "No data rows")

	assert.Contains(t, RenderPreview(nil), "Nothing to preview")
}

func TestRenderPredictionsLimit(t *testing.T) {
	records := make([]model.Record, 12)
	for i := range records {
		records[i] = model.NewRecord(
			model.Field{Key: "ID", Value: i + 100},
			model.Field{Key: "Label", Value: "Gold"},
		)
	}

	out := RenderPredictions(records, ResultRows, summary.PolicyScore)
	assert.Contains(t, out, "109")
	assert.NotContains(t, out, "110")
	assert.Contains(t, out, "Showing 10 of 12 predictions")

	all := RenderPredictions(records, 0, summary.PolicyScore)
	assert.Contains(t, all, "111")
	assert.NotContains(t, all, "Showing")

	assert.Contains(t, RenderPredictions(nil, ResultRows, summary.PolicyScore), "No predictions")
}

func TestRenderSummary(t *testing.T) {
	var s model.Summary
	require.NoError(t, json.Unmarshal([]byte(`{"platinum_predictions":3,"glod_predictions":2,
		"silver_predictions":1,"bronze_predictions":0,"copper_predictions":4,"total_predictions":10}`), &s))

	out := RenderSummary(s)
	lines := strings.Split(out, "\n")

	order := []string{"Platinum", "Gold", "Silver", "Bronze", "Copper", "Total"}
	last := -1
	for _, name := range order {
		idx := -1
		for i, line := range lines {
			if strings.Contains(line, name) {
				idx = i
				break
			}
		}
		require.NotEqual(t, -1, idx, name)
		assert.Greater(t, idx, last, name)
		last = idx
	}
	assert.Contains(t, out, "10")
}

func TestRenderPredictionsBadgeFollowsPolicy(t *testing.T) {
	records := []model.Record{
		model.NewRecord(
			model.Field{Key: "ID", Value: 1},
			model.Field{Key: "Score", Value: 0.9},
			model.Field{Key: "Label", Value: "Copper"},
		),
		model.NewRecord(
			model.Field{Key: "ID", Value: 2},
			model.Field{Key: "Label", Value: "Mystery"},
		),
	}

	byScore := RenderPredictions(records, 0, summary.PolicyScore)
	assert.Contains(t, byScore, "Platinum")
	assert.NotContains(t, byScore, "Copper")
	assert.Contains(t, byScore, "Mystery")

	byLabel := RenderPredictions(records, 0, summary.PolicyLabel)
	assert.Contains(t, byLabel, "Copper")
	assert.NotContains(t, byLabel, "Platinum")
	assert.Contains(t, byLabel, "Mystery")
}

func TestRenderCustomer(t *testing.T) {
	c := &model.CustomerPrediction{
		CustomerID: "CUST-1",
		Score:      0.55,
		Data:       []model.Record{model.NewRecord(model.Field{Key: "Age", Value: 40})},
	}

	out := RenderCustomer(c, summary.PolicyScore)
	assert.Contains(t, out, "CUST-1")
	assert.Contains(t, out, "0.5500")
	assert.Contains(t, out, "Silver")
	assert.Contains(t, out, "Age")

	assert.Contains(t, RenderCustomer(nil, summary.PolicyScore), "No customer")
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "0.5500", FormatScore(0.55))
	assert.Equal(t, "1.0000", FormatScore(1))
	assert.Equal(t, "0.1235", FormatScore(0.123456))
}

func TestFormatHelpers(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), "done")
	assert.Contains(t, FormatError("failed"), "failed")
	assert.Contains(t, FormatWarning("careful"), "careful")
	assert.Contains(t, FormatInfo("note"), "note")
	assert.Contains(t, FormatTitle("Results"), "Results")
	assert.Contains(t, FormatPrompt("Customer ID"), "Customer ID")
	assert.Contains(t, RenderBox("Title", "body"), "body")
}
