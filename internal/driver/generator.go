package driver

import (
	"math/rand"
	"strconv"
)

// Value shapes produced by the generator, weighted toward plain numbers.
const (
	caseNumber = iota
	caseNumber2
	caseNumber3
	caseNumericString
	caseTrailingText
	caseFraction
	caseNegative
	caseEmpty
	caseNull
	caseCount
)

// GenerateEdits returns n edits over a candidates × categories sheet. The
// same seed always yields the same edits.
func GenerateEdits(seed int64, n, candidates, categories, maxValue int) []Edit {
	if n <= 0 || candidates <= 0 || categories <= 0 {
		return nil
	}
	maxValue = max(maxValue, 1)
	rng := rand.New(rand.NewSource(seed))
	edits := make([]Edit, n)
	for i := range edits {
		edits[i] = Edit{
			Candidate: rng.Intn(candidates),
			Category:  rng.Intn(categories),
			Value:     generateValue(rng, maxValue),
		}
	}
	return edits
}

func generateValue(rng *rand.Rand, maxValue int) any {
	v := rng.Intn(maxValue + 1)
	switch rng.Intn(caseCount) {
	case caseNumericString:
		return " " + strconv.Itoa(v)
	case caseTrailingText:
		return strconv.Itoa(v) + "abc"
	case caseFraction:
		return float64(v) + 0.5
	case caseNegative:
		return -v - 1
	case caseEmpty:
		return ""
	case caseNull:
		return nil
	default:
		return v
	}
}
