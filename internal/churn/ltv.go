package churn

// LTV projection constants.
const (
	maxLifetimeMonths = 24
	referralBonus     = 100
	supportTicketCost = 10
)

// LTV projects lifetime value from MRR and the current churn probability.
// Runs after prediction so the probability is fresh. Never negative.
func LTV(mrr, churnProbability float64, referralCount, supportTickets int) float64 {
	expectedLifetimeMonths := maxLifetimeMonths * (1 - churnProbability)
	base := mrr * expectedLifetimeMonths
	ltv := base + float64(referralCount)*referralBonus - float64(supportTickets)*supportTicketCost
	if ltv < 0 {
		return 0
	}
	return ltv
}
