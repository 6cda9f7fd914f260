package service

import (
	"fmt"

	"risk-review-be/internal/entity"
	"risk-review-be/internal/pkg/apperror"
)

const (
	GatePolicyScore   = "score"
	GatePolicyVerdict = "verdict"
)

// ReleaseGate decides whether a stored report may be released. Exactly one
// policy is active: either the score reaches MinScore, or the verdict is ok.
type ReleaseGate struct {
	Policy   string
	MinScore int
}

func NewReleaseGate(policy string, minScore int) (ReleaseGate, error) {
	switch policy {
	case GatePolicyScore, GatePolicyVerdict:
		return ReleaseGate{Policy: policy, MinScore: minScore}, nil
	default:
		return ReleaseGate{}, fmt.Errorf("unknown release gate policy %q", policy)
	}
}

func (g ReleaseGate) Check(report entity.Report) error {
	if g.Policy == GatePolicyVerdict {
		if report.Verdict != entity.VerdictOk {
			return apperror.GateNotMet(fmt.Sprintf("release requires report.verdict == ok (got %s)", report.Verdict))
		}
		return nil
	}
	if report.Score < g.MinScore {
		return apperror.GateNotMet(fmt.Sprintf("release requires report.score >= %d (got %d)", g.MinScore, report.Score))
	}
	return nil
}
