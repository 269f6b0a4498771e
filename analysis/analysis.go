// Package analysis extracts quantitative insight from retrieved document
// chunks: descriptive statistics over numeric values, markdown-table
// detection, and IQR-based outlier flagging.
package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Result is the structured output of one analysis pass. A nil *Result in the
// pipeline state means analysis has not run yet.
type Result struct {
	Summary    string             `json:"summary"`
	KeyMetrics map[string]float64 `json:"key_metrics"`
	Anomalies  []string           `json:"anomalies"`
}

var numberRe = regexp.MustCompile(`-?\d+\.?\d*`)

// Analyze computes statistics over the numeric content of chunks. The query
// is consulted only to decide whether outlier detection should run.
func Analyze(query string, chunks []string) *Result {
	if len(chunks) == 0 {
		return &Result{
			Summary:    "No quantitative data available in document.",
			KeyMetrics: map[string]float64{},
		}
	}

	tableRows := countTableRows(chunks)
	numbers := extractNumbers(chunks)
	metrics := computeStatistics(numbers)

	var anomalies []string
	queryLower := strings.ToLower(query)
	if strings.Contains(queryLower, "anomal") || strings.Contains(queryLower, "outlier") {
		anomalies = detectOutliers(numbers)
	}

	var parts []string
	if tableRows > 0 {
		parts = append(parts, fmt.Sprintf("Found tabular data with %d rows.", tableRows))
	}
	if len(metrics) > 0 {
		parts = append(parts, fmt.Sprintf("Extracted %d numeric values with mean %.2f.",
			int(metrics["count"]), metrics["mean"]))
	}
	if len(anomalies) > 0 {
		parts = append(parts, fmt.Sprintf("Detected %d anomalous values.", len(anomalies)))
	}

	summary := strings.Join(parts, " ")
	if summary == "" {
		summary = "Analysis complete but no structured data found."
	}

	return &Result{
		Summary:    summary,
		KeyMetrics: metrics,
		Anomalies:  anomalies,
	}
}

// countTableRows counts data rows of markdown tables found in the chunks.
// A table needs a header, a separator line, and at least one data row.
func countTableRows(chunks []string) int {
	total := 0
	for _, chunk := range chunks {
		if !strings.Contains(chunk, "|") || !strings.Contains(chunk, "-") {
			continue
		}
		var rows int
		for _, line := range strings.Split(chunk, "\n") {
			if strings.Contains(line, "|") {
				rows++
			}
		}
		if rows > 2 {
			total += rows - 2 // exclude header and separator
		}
	}
	return total
}

func extractNumbers(chunks []string) []float64 {
	var numbers []float64
	for _, chunk := range chunks {
		for _, m := range numberRe.FindAllString(chunk, -1) {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				numbers = append(numbers, f)
			}
		}
	}
	return numbers
}

// computeStatistics returns mean, median, std, min, max, and count.
// An empty input yields an empty map.
func computeStatistics(numbers []float64) map[string]float64 {
	if len(numbers) == 0 {
		return map[string]float64{}
	}

	sorted := append([]float64(nil), numbers...)
	sort.Float64s(sorted)

	var sum float64
	for _, n := range sorted {
		sum += n
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, n := range sorted {
		variance += (n - mean) * (n - mean)
	}
	std := 0.0
	if len(sorted) > 1 {
		// Sample standard deviation.
		std = math.Sqrt(variance / float64(len(sorted)-1))
	}

	return map[string]float64{
		"mean":   mean,
		"median": quantile(sorted, 0.5),
		"std":    std,
		"min":    sorted[0],
		"max":    sorted[len(sorted)-1],
		"count":  float64(len(sorted)),
	}
}

// detectOutliers flags values outside 1.5*IQR of the quartiles.
func detectOutliers(numbers []float64) []string {
	if len(numbers) < 2 {
		return nil
	}

	sorted := append([]float64(nil), numbers...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	var anomalies []string
	for _, n := range numbers {
		if n < lower || n > upper {
			anomalies = append(anomalies, strconv.FormatFloat(n, 'g', -1, 64))
		}
	}
	return anomalies
}

// quantile computes a linearly interpolated quantile of sorted data.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
