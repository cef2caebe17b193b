// engine/streak.go
package engine

// StreakState is one user's run streak.
type StreakState struct {
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
	LastRunDate   Date `json:"last_run_date"`
	FreezeCount   int  `json:"freeze_count"`
}

// StreakEngine advances streak state by calendar days.
type StreakEngine struct{}

func NewStreakEngine() *StreakEngine {
	return &StreakEngine{}
}

// Advance returns the state after a run on runDate. prev is nil for a user's
// first run. FreezeCount is carried through untouched.
func (e *StreakEngine) Advance(prev *StreakState, runDate Date) StreakState {
	if prev == nil {
		return StreakState{CurrentStreak: 1, LongestStreak: 1, LastRunDate: runDate}
	}

	next := *prev
	switch runDate.DaysSince(prev.LastRunDate) {
	case 0:
		// another run on the same day
		return next
	case 1:
		next.CurrentStreak++
	default:
		next.CurrentStreak = 1
	}
	if next.LongestStreak < next.CurrentStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.LastRunDate = runDate
	return next
}
