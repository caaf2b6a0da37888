package service

import (
	"github.com/thyroid-lit-analyzer/internal/domain"
)

// ClassifyValue interprets one value against its reference range. Bounds are
// inclusive: only values strictly outside them are low or high.
func ClassifyValue(value float64, r domain.ReferenceRange) (domain.LabStatus, bool) {
	if r.IsTwoSided() {
		switch {
		case value < *r.Min:
			return domain.StatusLow, true
		case value > *r.Max:
			return domain.StatusHigh, true
		default:
			return domain.StatusNormal, true
		}
	}
	threshold, ok := r.Threshold()
	if !ok {
		return "", false
	}
	if value > threshold {
		return domain.StatusPositive, true
	}
	return domain.StatusNegative, true
}

// ClassifyStatuses classifies every supplied test that has a reference range.
// Tests without a range are skipped, never defaulted.
func ClassifyStatuses(labData map[domain.TestName]float64, ranges domain.ReferenceRanges) map[domain.TestName]domain.LabStatus {
	statuses := make(map[domain.TestName]domain.LabStatus, len(labData))
	for test, value := range labData {
		r, ok := ranges[test]
		if !ok {
			continue
		}
		if status, ok := ClassifyValue(value, r); ok {
			statuses[test] = status
		}
	}
	return statuses
}

// BuildLabResults returns the classified results in reporting order.
func BuildLabResults(labData map[domain.TestName]float64, ranges domain.ReferenceRanges) []domain.LabResult {
	results := []domain.LabResult{}
	for _, test := range domain.AllTestNames() {
		value, ok := labData[test]
		if !ok {
			continue
		}
		r, ok := ranges[test]
		if !ok {
			continue
		}
		status, ok := ClassifyValue(value, r)
		if !ok {
			continue
		}
		results = append(results, domain.LabResult{
			Name:           test,
			Value:          value,
			Unit:           r.Unit,
			Status:         status,
			ReferenceRange: r.Describe(),
		})
	}
	return results
}

// statusOf returns the status of test, or unknown when it was not classified.
func statusOf(statuses map[domain.TestName]domain.LabStatus, test domain.TestName) domain.LabStatus {
	if status, ok := statuses[test]; ok {
		return status
	}
	return domain.StatusUnknown
}

func hasAny(labData map[domain.TestName]float64, tests ...domain.TestName) bool {
	for _, test := range tests {
		if _, ok := labData[test]; ok {
			return true
		}
	}
	return false
}
