package evaluate

import (
	"fmt"
	"math"

	"ghostwriter/app/internal/metrics"
)

// PerformanceScore rates how the pipeline itself behaved during a run.
type PerformanceScore struct {
	Efficiency  float64  `json:"efficiency_score"`
	Reliability float64  `json:"reliability_score"`
	Quality     float64  `json:"quality_score"`
	Overall     float64  `json:"overall_score"`
	Grade       string   `json:"grade"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
}

const (
	performanceEfficiencyWeight  = 0.30
	performanceReliabilityWeight = 0.35
	performanceQualityWeight     = 0.35
)

// EvaluatePerformance scores a metrics snapshot on efficiency, reliability
// and output quality.
func EvaluatePerformance(snapshot *metrics.Snapshot) *PerformanceScore {
	score := &PerformanceScore{
		Strengths:  []string{},
		Weaknesses: []string{},
	}

	score.Efficiency = scoreEfficiency(snapshot, score)
	score.Reliability = scoreReliability(snapshot, score)
	score.Quality = scoreOutputQuality(snapshot, score)

	overall := score.Efficiency*performanceEfficiencyWeight +
		score.Reliability*performanceReliabilityWeight +
		score.Quality*performanceQualityWeight

	score.Efficiency = round2(score.Efficiency)
	score.Reliability = round2(score.Reliability)
	score.Quality = round2(score.Quality)
	score.Overall = round2(overall)
	score.Grade = scoreToGrade(score.Overall)

	return score
}

func scoreEfficiency(snapshot *metrics.Snapshot, out *PerformanceScore) float64 {
	score := 100.0

	duration := snapshot.DurationSeconds
	switch {
	case duration < 30:
		out.Strengths = append(out.Strengths, fmt.Sprintf("Very fast execution (%.1fs)", duration))
	case duration > 90:
		out.Weaknesses = append(out.Weaknesses, fmt.Sprintf("Slow execution (%.1fs)", duration))
		score -= 25
	case duration > 60:
		out.Weaknesses = append(out.Weaknesses, "Execution time above target")
		score -= 15
	}

	totalToolCalls := 0
	for _, agent := range snapshot.Agents {
		totalToolCalls += agent.ToolCalls
	}
	if totalToolCalls > 10 {
		out.Weaknesses = append(out.Weaknesses, fmt.Sprintf("High tool usage (%d calls)", totalToolCalls))
		score -= 15
	} else if totalToolCalls < 3 {
		out.Weaknesses = append(out.Weaknesses, "Very few tool calls - may lack thoroughness")
		score -= 10
	}

	slowTasks := 0
	for _, task := range snapshot.Tasks {
		if task.Duration > 30 {
			slowTasks++
		}
	}
	if slowTasks > 0 {
		out.Weaknesses = append(out.Weaknesses, fmt.Sprintf("%d slow tasks detected", slowTasks))
		score -= 10 * float64(slowTasks)
	}

	return math.Max(0, score)
}

func scoreReliability(snapshot *metrics.Snapshot, out *PerformanceScore) float64 {
	score := 100.0

	totalErrors := 0
	for _, agent := range snapshot.Agents {
		totalErrors += len(agent.Errors)
	}
	if totalErrors == 0 {
		out.Strengths = append(out.Strengths, "Zero errors during execution")
	} else {
		out.Weaknesses = append(out.Weaknesses, fmt.Sprintf("%d errors occurred", totalErrors))
		score -= 20 * float64(totalErrors)
	}

	failedTasks := 0
	for _, task := range snapshot.Tasks {
		if task.Status != "completed" {
			failedTasks++
		}
	}
	if failedTasks > 0 {
		out.Weaknesses = append(out.Weaknesses, fmt.Sprintf("%d tasks failed", failedTasks))
		score -= 30 * float64(failedTasks)
	} else if len(snapshot.Tasks) > 0 {
		out.Strengths = append(out.Strengths, "All tasks completed successfully")
	}

	var durations []float64
	for _, task := range snapshot.Tasks {
		if task.Duration > 0 {
			durations = append(durations, task.Duration)
		}
	}
	if len(durations) > 0 {
		mean := 0.0
		for _, d := range durations {
			mean += d
		}
		mean /= float64(len(durations))

		variance := 0.0
		for _, d := range durations {
			variance += (d - mean) * (d - mean)
		}
		variance /= float64(len(durations))

		if variance > 100 {
			out.Weaknesses = append(out.Weaknesses, "Inconsistent task completion times")
			score -= 10
		}
	}

	return math.Max(0, score)
}

func scoreOutputQuality(snapshot *metrics.Snapshot, out *PerformanceScore) float64 {
	score := 100.0

	substantial := 0
	for _, task := range snapshot.Tasks {
		if task.OutputLength > 0 && task.OutputLength < 50 {
			out.Weaknesses = append(out.Weaknesses, fmt.Sprintf("Task produced very short output (%d chars)", task.OutputLength))
			score -= 15
		}
		if task.OutputLength > 500 {
			substantial++
		}
	}

	if substantial > 0 {
		out.Strengths = append(out.Strengths, fmt.Sprintf("%d tasks with substantial output", substantial))
	}

	return math.Max(0, score)
}
