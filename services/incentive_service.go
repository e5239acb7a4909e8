package services

import (
	"math"
	"research-portal-api/models"
)

// IncentiveShare is one participant's portion of the distributed award.
// External participants always appear with a zero share.
type IncentiveShare struct {
	InvestigatorID int     `json:"investigator_id"`
	DisplayName    string  `json:"display_name"`
	RoleType       string  `json:"role_type"`
	IsExternal     bool    `json:"is_external"`
	Amount         float64 `json:"amount"`
	Points         float64 `json:"points"`
}

// IncentiveResult is the outcome of one incentive calculation. TotalAmount
// and TotalPoints are the pre-split policy figures (base plus bonuses); the
// sum of shares may fall short of them because shares are floored and the
// residual stays with the institution.
type IncentiveResult struct {
	PolicyID    int              `json:"policy_id"`
	TotalAmount float64          `json:"total_amount"`
	TotalPoints float64          `json:"total_points"`
	Shares      []IncentiveShare `json:"shares"`
}

// DistributedAmount returns the sum of monetary shares.
func (r *IncentiveResult) DistributedAmount() float64 {
	var sum float64
	for _, s := range r.Shares {
		sum += s.Amount
	}
	return sum
}

// DistributedPoints returns the sum of point shares.
func (r *IncentiveResult) DistributedPoints() float64 {
	var sum float64
	for _, s := range r.Shares {
		sum += s.Points
	}
	return sum
}

// CalculateIncentive splits the policy award across the roster. Pure
// computation: no database access, no side effects.
//
// Rules:
//   - total = base amount, plus the international bonus when the submission
//     is flagged international, plus consortium bonus x member count.
//   - external participants receive (0, 0) regardless of split policy.
//   - equal split: each internal participant gets floor(total/N).
//   - percentage split: each role type's percentage of the total is divided
//     evenly among internal holders of that role, floored per person. A role
//     with zero members contributes nothing; nothing is redistributed.
func CalculateIncentive(policy *models.IncentivePolicy, submission *models.Submission, roster []models.SubmissionInvestigator) (*IncentiveResult, error) {
	total := policy.BaseAmount
	totalPoints := policy.BasePoints

	if submission.IsInternational && policy.InternationalBonus > 0 {
		total += policy.InternationalBonus
	}
	if submission.ConsortiumMemberCount > 0 && policy.ConsortiumMemberBonus > 0 {
		total += policy.ConsortiumMemberBonus * float64(submission.ConsortiumMemberCount)
	}

	result := &IncentiveResult{
		PolicyID:    policy.PolicyID,
		TotalAmount: total,
		TotalPoints: totalPoints,
		Shares:      make([]IncentiveShare, 0, len(roster)),
	}

	internalCount := 0
	internalByRole := make(map[string]int)
	for _, inv := range roster {
		if inv.IsExternal {
			continue
		}
		internalCount++
		internalByRole[inv.RoleType]++
	}

	var roleShares map[string]float64
	var rolePointShares map[string]float64
	if policy.SplitPolicy == models.SplitPercentageBased {
		percentages, err := policy.RolePercentageMap()
		if err != nil {
			return nil, err
		}
		roleShares = make(map[string]float64, len(percentages))
		rolePointShares = make(map[string]float64, len(percentages))
		for role, pct := range percentages {
			count := internalByRole[role]
			if count == 0 {
				continue
			}
			roleShares[role] = math.Floor(total * pct / 100 / float64(count))
			rolePointShares[role] = math.Floor(totalPoints * pct / 100 / float64(count))
		}
	}

	for _, inv := range roster {
		share := IncentiveShare{
			InvestigatorID: inv.InvestigatorID,
			DisplayName:    inv.DisplayName,
			RoleType:       inv.RoleType,
			IsExternal:     inv.IsExternal,
		}

		switch {
		case inv.IsExternal || internalCount == 0:
			// zero share
		case policy.SplitPolicy == models.SplitPercentageBased:
			share.Amount = roleShares[inv.RoleType]
			share.Points = rolePointShares[inv.RoleType]
		default:
			share.Amount = math.Floor(total / float64(internalCount))
			share.Points = math.Floor(totalPoints / float64(internalCount))
		}

		result.Shares = append(result.Shares, share)
	}

	return result, nil
}
