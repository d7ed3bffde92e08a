package model

import "fmt"

// OptimizationGoal is the hint passed to the optimizer.
type OptimizationGoal string

const (
	GoalWaitingTime     OptimizationGoal = "waiting_time"
	GoalDockUtilization OptimizationGoal = "dock_utilization"
	GoalBalanced        OptimizationGoal = "balanced"
)

// ParseGoal converts s to an OptimizationGoal. An empty string yields GoalBalanced.
func ParseGoal(s string) (OptimizationGoal, error) {
	switch g := OptimizationGoal(s); g {
	case "":
		return GoalBalanced, nil
	case GoalWaitingTime, GoalDockUtilization, GoalBalanced:
		return g, nil
	default:
		return "", fmt.Errorf("unknown optimization goal %q", s)
	}
}
