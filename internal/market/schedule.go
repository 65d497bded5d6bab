package market

// MilestoneSchedule derives the fixed milestone list for the chosen payment
// terms. The schedule is immutable after contract creation.
func MilestoneSchedule(terms string) ([]Milestone, error) {
	switch terms {
	case TermsQuarter:
		return []Milestone{
			{Stage: "25%", Description: "First milestone"},
			{Stage: "50%", Description: "Second milestone"},
			{Stage: "75%", Description: "Third milestone"},
			{Stage: "100%", Description: "Final milestone"},
		}, nil
	case TermsHalf:
		return []Milestone{
			{Stage: "50%", Description: "First half"},
			{Stage: "100%", Description: "Final half"},
		}, nil
	case TermsFull:
		return []Milestone{
			{Stage: "100%", Description: "Full payment after completion"},
		}, nil
	default:
		return nil, ErrInvalidInput
	}
}

// PayoutAmount is the sum released per approved milestone: a flat fraction of
// the accepted offer's fee, the same for every milestone of the contract.
// Integer division drops any remainder, so a fee that is not a multiple of
// the denominator pays out slightly under the full fee across all stages.
func PayoutAmount(totalFee int64, terms string) int64 {
	switch terms {
	case TermsQuarter:
		return totalFee / 4
	case TermsHalf:
		return totalFee / 2
	default:
		return totalFee
	}
}
