// Package summary tallies prediction records into per-tier counts.
package summary

import (
	"fmt"
	"strings"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/model"
)

// Policy selects how a record's tier is resolved.
type Policy int

const (
	// PolicyScore recomputes the tier from the numeric Score field and falls
	// back to the Label field when the record carries no usable score.
	PolicyScore Policy = iota
	// PolicyLabel trusts the Label field assigned by the service.
	PolicyLabel
)

// ParsePolicy parses "score" or "label".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "score", "":
		return PolicyScore, nil
	case "label":
		return PolicyLabel, nil
	default:
		return PolicyScore, fmt.Errorf("%w: unknown summary policy %q", common.ErrInvalidConfig, s)
	}
}

func (p Policy) String() string {
	if p == PolicyLabel {
		return "label"
	}
	return "score"
}

// TierOf resolves the tier of one record under the policy. Unresolvable
// records yield TierUnknown.
func TierOf(r model.Record, policy Policy) model.Tier {
	if policy == PolicyScore {
		if score, ok := r.Float(model.FieldScore); ok {
			return model.Classify(score)
		}
	}
	tier, _ := model.ParseTier(r.Text(model.FieldLabel))
	return tier
}

// Summarize counts records per tier. Total is always the number of records;
// records without a resolvable tier are counted in Unknown and in no named bucket.
func Summarize(records []model.Record, policy Policy) model.Summary {
	var s model.Summary
	for _, r := range records {
		s.Add(TierOf(r, policy))
	}
	return s
}

// Verify compares the service summary with a client-side tally and reports
// every bucket that differs.
func Verify(reported, computed model.Summary) error {
	var diffs []string
	for _, t := range model.Tiers() {
		if r, c := reported.Count(t), computed.Count(t); r != c {
			diffs = append(diffs, fmt.Sprintf("%s: reported %d, counted %d", t, r, c))
		}
	}
	if reported.Total != computed.Total {
		diffs = append(diffs, fmt.Sprintf("total: reported %d, counted %d", reported.Total, computed.Total))
	}
	if computed.Unknown > 0 {
		diffs = append(diffs, fmt.Sprintf("%d records without a tier", computed.Unknown))
	}

	if len(diffs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrSummaryMismatch, strings.Join(diffs, "; "))
}
