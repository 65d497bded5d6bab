package market

import (
	"errors"
	"testing"
)

func TestMilestoneSchedule_StagesPerTerms(t *testing.T) {
	cases := []struct {
		terms  string
		stages []string
	}{
		{TermsQuarter, []string{"25%", "50%", "75%", "100%"}},
		{TermsHalf, []string{"50%", "100%"}},
		{TermsFull, []string{"100%"}},
	}
	for _, tc := range cases {
		ms, err := MilestoneSchedule(tc.terms)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.terms, err)
		}
		if len(ms) != len(tc.stages) {
			t.Fatalf("%s: expected %d milestones, got %d", tc.terms, len(tc.stages), len(ms))
		}
		for i, stage := range tc.stages {
			if ms[i].Stage != stage {
				t.Fatalf("%s[%d]: expected stage %s, got %s", tc.terms, i, stage, ms[i].Stage)
			}
			if ms[i].Completed || ms[i].CompletionRequested {
				t.Fatalf("%s[%d]: new milestone must start with both flags unset", tc.terms, i)
			}
		}
	}
}

func TestMilestoneSchedule_UnknownTerms(t *testing.T) {
	for _, terms := range []string{"", "monthly", "QUARTER"} {
		if _, err := MilestoneSchedule(terms); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q: expected ErrInvalidInput, got %v", terms, err)
		}
	}
}

func TestPayoutAmount_FlatFractionPerMilestone(t *testing.T) {
	cases := []struct {
		fee   int64
		terms string
		want  int64
	}{
		{1000, TermsQuarter, 250},
		{1000, TermsHalf, 500},
		{1000, TermsFull, 1000},
		// Integer division truncates; the remainder is never paid out.
		{999, TermsQuarter, 249},
		{999, TermsHalf, 499},
		{1, TermsQuarter, 0},
	}
	for _, tc := range cases {
		if got := PayoutAmount(tc.fee, tc.terms); got != tc.want {
			t.Fatalf("PayoutAmount(%d, %s) = %d, want %d", tc.fee, tc.terms, got, tc.want)
		}
	}
}

func TestPayoutAmount_SameForEveryStage(t *testing.T) {
	ms, err := MilestoneSchedule(TermsQuarter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := PayoutAmount(8000, TermsQuarter)
	for range ms {
		if PayoutAmount(8000, TermsQuarter) != first {
			t.Fatalf("payout must not depend on milestone position")
		}
	}
	if first*int64(len(ms)) != 8000 {
		t.Fatalf("an evenly divisible fee must pay out in full across the schedule")
	}
}
