package reservation

import "time"

// Policy holds the time rules enforced at each transition.
type Policy struct {
	CheckInEarly       time.Duration
	CheckInLate        time.Duration
	ExtendMinRemaining time.Duration
	ExtendMax          time.Duration
	CancelCutoff       time.Duration
	DefaultSession     time.Duration
	MaxSession         time.Duration
	TxMaxAttempts      int
	OpenTime           string
	CloseTime          string
}

func DefaultPolicy() Policy {
	return Policy{
		CheckInEarly:       15 * time.Minute,
		CheckInLate:        5 * time.Minute,
		ExtendMinRemaining: 15 * time.Minute,
		ExtendMax:          2 * time.Hour,
		CancelCutoff:       30 * time.Minute,
		DefaultSession:     2 * time.Hour,
		MaxSession:         4 * time.Hour,
		TxMaxAttempts:      3,
		OpenTime:           "07:00",
		CloseTime:          "21:00",
	}
}
