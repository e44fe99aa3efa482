package room

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultAgreementThreshold is the share of mapped votes that must match the
// consensus card for the team to be in agreement.
const DefaultAgreementThreshold = 0.65

// minVotesForAgreement is the vote count that must be exceeded before
// agreement is evaluated at all.
const minVotesForAgreement = 2

// NotAvailable renders statistics that cannot be computed.
const NotAvailable = "N/A"

// DistributionEntry counts one distinct numeric vote.
type DistributionEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	Label string `json:"label"`
}

// RevealResult holds the statistics of one revealed round.
type RevealResult struct {
	NoVotes    bool `json:"noVotes"`
	TotalVotes int  `json:"totalVotes"`

	Highest      string              `json:"highest"`
	Lowest       string              `json:"lowest"`
	Average      string              `json:"average"`
	Distribution []DistributionEntry `json:"distribution"`
	// Excluded lists votes that are not numbers, in submission order.
	Excluded []string `json:"excluded"`
	// Unmapped lists votes that are not in the card set.
	Unmapped []string `json:"unmapped"`

	// ConsensusIndex is the rounded mean card position, or -1.
	ConsensusIndex int    `json:"consensusIndex"`
	ConsensusVote  string `json:"consensusVote"`

	AgreementEvaluated bool    `json:"agreementEvaluated"`
	Agreement          float64 `json:"agreement"`
	AgreementReached   bool    `json:"agreementReached"`
	StrictConsensus    bool    `json:"strictConsensus"`
}

// Aggregate computes reveal statistics for the given votes against cardSet.
// It is pure: the same inputs always produce the same result.
func Aggregate(votes []string, cardSet CardSet, threshold float64) RevealResult {
	result := RevealResult{
		TotalVotes:     len(votes),
		Highest:        NotAvailable,
		Lowest:         NotAvailable,
		Average:        NotAvailable,
		Distribution:   []DistributionEntry{},
		Excluded:       []string{},
		Unmapped:       []string{},
		ConsensusIndex: -1,
		ConsensusVote:  NotAvailable,
	}
	if len(votes) == 0 {
		result.NoVotes = true
		return result
	}

	var numeric []float64
	counts := map[float64]int{}
	var indices []int
	for _, vote := range votes {
		if value, ok := parseNumericVote(vote); ok {
			numeric = append(numeric, value)
			counts[value]++
		} else {
			result.Excluded = append(result.Excluded, vote)
		}
		if index := cardSet.Index(vote); index >= 0 {
			indices = append(indices, index)
		} else {
			result.Unmapped = append(result.Unmapped, vote)
		}
	}

	if len(numeric) > 0 {
		highest, lowest, sum := numeric[0], numeric[0], 0.0
		for _, value := range numeric {
			highest = math.Max(highest, value)
			lowest = math.Min(lowest, value)
			sum += value
		}
		result.Highest = formatNumber(highest)
		result.Lowest = formatNumber(lowest)
		result.Average = fmt.Sprintf("%.2f", sum/float64(len(numeric)))

		values := make([]float64, 0, len(counts))
		for value := range counts {
			values = append(values, value)
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(values)))
		for _, value := range values {
			label := formatNumber(value)
			result.Distribution = append(result.Distribution, DistributionEntry{
				Value: label,
				Count: counts[value],
				Label: fmt.Sprintf("%s (%d)", label, counts[value]),
			})
		}
	}

	if len(indices) == 0 {
		return result
	}

	total, strict := 0, true
	for _, index := range indices {
		total += index
		if index != indices[0] {
			strict = false
		}
	}
	mean := float64(total) / float64(len(indices))
	rounded := int(math.Floor(mean + 0.5))
	if rounded >= len(cardSet) {
		rounded = len(cardSet) - 1
	}
	result.ConsensusIndex = rounded
	result.ConsensusVote = cardSet[rounded]
	result.StrictConsensus = strict

	if len(votes) > minVotesForAgreement {
		matching := 0
		for _, index := range indices {
			if index == rounded {
				matching++
			}
		}
		result.AgreementEvaluated = true
		result.Agreement = float64(matching) / float64(len(indices))
		result.AgreementReached = result.Agreement >= threshold
	}
	return result
}

func parseNumericVote(vote string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(vote), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
