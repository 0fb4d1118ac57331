package appointments

import (
	"strings"
	"time"
)

// Status is the lifecycle status of an appointment.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// TrackingStatus is the delivery status of the assigned therapist. It only
// ever moves forward through the sequence below.
type TrackingStatus string

const (
	TrackingAssigned  TrackingStatus = "assigned"
	TrackingEnRoute   TrackingStatus = "en_route"
	TrackingArrived   TrackingStatus = "arrived"
	TrackingInSession TrackingStatus = "in_session"
	TrackingCompleted TrackingStatus = "completed"
)

var trackingOrder = map[TrackingStatus]int{
	TrackingAssigned:  0,
	TrackingEnRoute:   1,
	TrackingArrived:   2,
	TrackingInSession: 3,
	TrackingCompleted: 4,
}

// Rank returns the position of the status in the forward sequence, or -1 for
// an unknown status.
func (s TrackingStatus) Rank() int {
	if r, ok := trackingOrder[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether the status is one of the known tracking states.
func (s TrackingStatus) Valid() bool {
	return s.Rank() >= 0
}

// CanAdvanceTo reports whether moving to next is a forward step.
func (s TrackingStatus) CanAdvanceTo(next TrackingStatus) bool {
	return s.Valid() && next.Valid() && next.Rank() == s.Rank()+1
}

// Location is a coordinate pair reported by the tracking feed.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Tracking is the nested sub-record mutated independently of the rest of the
// appointment. Distance is km, string-encoded to one decimal; EstimatedArrival
// is minutes.
type Tracking struct {
	Status           TrackingStatus `json:"status"`
	CurrentLocation  *Location      `json:"currentLocation"`
	EstimatedArrival *int           `json:"estimatedArrival"`
	Distance         *string        `json:"distance"`
	LastUpdate       time.Time      `json:"lastUpdate"`
}

// Appointment is a booking linking a patient, a time and place, and the
// snapshot of the therapist assigned at booking time. The snapshot is
// deliberately denormalized: roster edits never rewrite history.
type Appointment struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Issue   string `json:"issue"`

	TherapistID        string  `json:"therapistId"`
	TherapistName      string  `json:"therapistName"`
	TherapistSpecialty string  `json:"therapistSpecialty"`
	TherapistRating    float64 `json:"therapistRating"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Tracking  Tracking  `json:"tracking"`
}

// NormalizeEmail lower-cases and trims an email address. The result is the
// join key between a user and their appointments; every storage and lookup
// path must use it, or the join breaks silently.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FilterByStatus returns the appointments whose lifecycle status matches.
func FilterByStatus(appts []Appointment, status Status) []Appointment {
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}
