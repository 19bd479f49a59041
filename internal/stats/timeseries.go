package stats

import (
	"slices"
	"strings"
	"time"

	"qa-analytics/internal/records"
)

// SeveritySplit is a weighted count per severity.
type SeveritySplit struct {
	High   int `json:"High"`
	Medium int `json:"Medium"`
	Low    int `json:"Low"`
}

// Add credits weight to the split for sev. Unknown severities are ignored.
func (s *SeveritySplit) Add(sev records.Severity, weight int) {
	switch sev {
	case records.SeverityHigh:
		s.High += weight
	case records.SeverityMedium:
		s.Medium += weight
	case records.SeverityLow:
		s.Low += weight
	}
}

// Total is the weight across the three severities.
func (s SeveritySplit) Total() int { return s.High + s.Medium + s.Low }

// MeanScore is the weighted mean severity with Low=1, Medium=2, High=3.
func (s SeveritySplit) MeanScore() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return RoundTo(float64(s.Low+2*s.Medium+3*s.High)/float64(total), 4)
}

// TimeBucket is one point of a defect time series.
type TimeBucket struct {
	Period string    `json:"period"`
	Start  time.Time `json:"start"`
	Count  int       `json:"count"`
	SeveritySplit
}

// TimeSeries is an ascending list of the buckets that received defects.
type TimeSeries struct {
	Granularity Granularity  `json:"granularity"`
	Buckets     []TimeBucket `json:"buckets"`
}

// Bucket picks the granularity from the bounds and buckets the defects.
func Bucket(defects []ResolvedDefect, start, end *time.Time) TimeSeries {
	return BucketBy(defects, SelectGranularity(start, end))
}

// BucketBy accumulates weighted counts and severity splits per bucket of the
// given granularity. Buckets without defects are not emitted.
func BucketBy(defects []ResolvedDefect, g Granularity) TimeSeries {
	index := make(map[string]int)
	buckets := make([]TimeBucket, 0)
	for _, d := range defects {
		if d.DetectedDate.IsZero() {
			continue
		}
		key := BucketKey(d.DetectedDate, g)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, TimeBucket{Period: key, Start: SnapToStart(d.DetectedDate.UTC(), g)})
		}
		buckets[i].Count += d.Weight
		buckets[i].Add(d.Severity, d.Weight)
	}

	slices.SortFunc(buckets, func(a, b TimeBucket) int { return strings.Compare(a.Period, b.Period) })
	return TimeSeries{Granularity: g, Buckets: buckets}
}
