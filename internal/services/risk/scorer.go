package risk

import (
	"nexus/internal/models"
)

// evaluate runs an ordered rule set over one event. Matched weights sum
// and the total clips to 1.0; no rule carries a negative weight so the
// score never drops below zero. Callers always get at least one reason.
func evaluate[E any](rules []Rule[E], event E) ScoreResult {
	var score float64
	var reasons []string

	for _, rule := range rules {
		if rule.Match(event) {
			score += rule.Weight
			reasons = append(reasons, rule.Reason(event))
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	if len(reasons) == 0 {
		reasons = []string{NoIndicators}
	}
	return ScoreResult{Score: score, Reasons: reasons}
}

// validateRules rejects rule tables with weights outside (0, 1].
// Called once at startup; a bad table is a build defect, not a runtime
// condition.
func validateRules[E any](rules []Rule[E]) error {
	for _, rule := range rules {
		if rule.Weight <= 0 || rule.Weight > 1.0 {
			return errInvalidRuleWeight(rule.Name, rule.Weight)
		}
		if rule.Match == nil || rule.Reason == nil {
			return errIncompleteRule(rule.Name)
		}
	}
	return nil
}

// Scorer evaluates the fixed per-category rule sets. Pure and
// goroutine-safe; baselines are passed in, never stored here.
type Scorer struct {
	transaction []Rule[models.TransactionEvent]
	check       []Rule[models.CheckEvent]
	teller      []Rule[tellerContext]
	cash        []Rule[models.CashHandlingEvent]
}

// NewScorer builds the scorer, validating every rule table. It returns
// an error rather than scoring with a malformed table.
func NewScorer() (*Scorer, error) {
	s := &Scorer{
		transaction: transactionRules(),
		check:       checkRules(),
		teller:      tellerRules(),
		cash:        cashRules(),
	}
	if err := validateRules(s.transaction); err != nil {
		return nil, err
	}
	if err := validateRules(s.check); err != nil {
		return nil, err
	}
	if err := validateRules(s.teller); err != nil {
		return nil, err
	}
	if err := validateRules(s.cash); err != nil {
		return nil, err
	}
	return s, nil
}

// ScoreTransaction scores a customer transaction.
func (s *Scorer) ScoreTransaction(e models.TransactionEvent) ScoreResult {
	return evaluate(s.transaction, e)
}

// ScoreCheck scores a deposited check.
func (s *Scorer) ScoreCheck(e models.CheckEvent) ScoreResult {
	return evaluate(s.check, e)
}

// ScoreTeller scores teller daily metrics against the given baseline.
// The z-score is derived from the baseline's rolling variance with a
// floored standard deviation so a flat baseline cannot divide by zero.
func (s *Scorer) ScoreTeller(e models.TellerEvent, baseline models.TellerBaseline) (ScoreResult, float64) {
	z := VarianceZScore(e.CashVariance, baseline.AvgVariance)
	result := evaluate(s.teller, tellerContext{Event: e, Baseline: baseline, ZScore: z})
	return result, z
}

// ScoreCash scores a drawer reconciliation record.
func (s *Scorer) ScoreCash(e models.CashHandlingEvent) ScoreResult {
	return evaluate(s.cash, e)
}

// VarianceZScore measures how far a daily cash variance sits above the
// teller's rolling baseline, in floored standard deviations:
// sigma = max(0.3 * |baseline|, 100).
func VarianceZScore(dailyVariance, baselineVariance float64) float64 {
	daily := abs(dailyVariance)
	base := abs(baselineVariance)
	sigma := base * 0.3
	if sigma < 100 {
		sigma = 100
	}
	return (daily - base) / sigma
}
