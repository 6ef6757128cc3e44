package reservation

import "fmt"

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusInUse     Status = "in_use"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// transitions is the complete lifecycle graph. Anything not listed is illegal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusInUse, StatusCancelled},
	StatusInUse:     {StatusCompleted},
	StatusCompleted: {},
	StatusRejected:  {},
	StatusCancelled: {},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Occupies reports whether a reservation in this state holds its room.
// Rejected and cancelled reservations release it; tentative holds do not.
func (s Status) Occupies() bool {
	return s != StatusRejected && s != StatusCancelled
}

func (s Status) String() string { return string(s) }

func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", v)
	}
	return s, nil
}

// releasedStatuses feeds the SQL side of Occupies.
var releasedStatuses = []string{string(StatusRejected), string(StatusCancelled)}
