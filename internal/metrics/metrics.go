package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TopupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskhive_wallet_topups_total",
		Help: "Wallet top-ups performed.",
	})

	OffersAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskhive_offers_applied_total",
		Help: "Offers applied against tasks.",
	})

	ContractsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskhive_contracts_created_total",
		Help: "Contracts created from accepted offers.",
	})

	PayoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskhive_milestone_payouts_total",
		Help: "Milestone payouts executed.",
	})

	PayoutAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskhive_milestone_payout_amount_total",
		Help: "Total amount paid out for milestones, in minor currency units.",
	})
)
