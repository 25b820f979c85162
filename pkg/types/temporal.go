package types

import "time"

// TemporalState tracks interaction cadence.
type TemporalState struct {
	InteractionTimes []time.Time `json:"interaction_timestamps"`
	// DailyPatterns maps hour-of-day ("0".."23") to interaction count.
	// String keys keep the document portable across JSON backends.
	DailyPatterns   map[string]int `json:"daily_patterns"`
	ConsecutiveDays int            `json:"consecutive_days"`
	// LastActiveDate is a calendar date formatted as 2006-01-02, empty if never active.
	LastActiveDate string `json:"last_active_date"`
}

// TemporalSnapshot is the derived view of the temporal state.
type TemporalSnapshot struct {
	ConsecutiveDays  int     `json:"consecutive_days"`
	LastActiveDate   string  `json:"last_active_date"`
	TotalTracked     int     `json:"total_tracked"`
	LateNight        bool    `json:"late_night"`
	UnusualHour      bool    `json:"unusual_hour"`
	MeanGapSeconds   float64 `json:"mean_gap_seconds"`
	AnomalousCadence bool    `json:"anomalous_cadence"`
	MostActiveHour   int     `json:"most_active_hour"`
}
