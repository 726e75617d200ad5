package sentiment

import "github.com/spacesedan/subpulse/internal/models"

// LabelRule picks the overall label from the summed per-label scores.
type LabelRule func(totalPositive, totalNegative float64) models.Label

// LegacyThreshold is the historical rule: POSITIVE as soon as the positive mass
// exceeds a third of the negative mass. It is skewed toward POSITIVE and is
// kept so verdicts stay comparable with earlier runs.
func LegacyThreshold(totalPositive, totalNegative float64) models.Label {
	if totalPositive > totalNegative/3 {
		return models.LabelPositive
	}
	return models.LabelNegative
}

// BalancedMajority labels POSITIVE only when the positive mass is strictly
// larger than the negative mass.
func BalancedMajority(totalPositive, totalNegative float64) models.Label {
	if totalPositive > totalNegative {
		return models.LabelPositive
	}
	return models.LabelNegative
}

// RuleByName resolves "legacy" or "majority". Unknown names get LegacyThreshold.
func RuleByName(name string) LabelRule {
	if name == "majority" {
		return BalancedMajority
	}
	return LegacyThreshold
}
