package domain

import "fmt"

// Status is the lifecycle state of an assignment.
type Status string

const (
	StatusAssigned  Status = "ASSIGNED"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAssigned, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown assignment status %q", s)
	}
}

func (s Status) String() string { return string(s) }
