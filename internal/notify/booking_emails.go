package notify

import "fmt"

// BookingDetails carries the appointment fields the emails mention.
type BookingDetails struct {
	PatientName   string
	Email         string
	Date          string
	Time          string
	Address       string
	TherapistName string
	Specialty     string

	// DashboardURL links the dashboard when the public base URL is configured.
	DashboardURL string
}

// ConfirmationEmail renders the booking confirmation message.
func ConfirmationEmail(d BookingDetails) EmailMessage {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour home physiotherapy session is confirmed.\n\n"+
			"Therapist: %s (%s)\nDate: %s\nTime: %s\nAddress: %s\n\n"+
			"You can track your therapist from the dashboard once they are on the way.\n",
		d.PatientName, d.TherapistName, d.Specialty, d.Date, d.Time, d.Address,
	)
	if d.DashboardURL != "" {
		body += fmt.Sprintf("\nManage your bookings: %s\n", d.DashboardURL)
	}
	return EmailMessage{
		To:      d.Email,
		ToName:  d.PatientName,
		Subject: "Your physiotherapy session is booked",
		Body:    body,
	}
}

// CancellationEmail renders the cancellation notice.
func CancellationEmail(d BookingDetails) EmailMessage {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour session with %s on %s at %s has been cancelled.\n\n"+
			"You can book a new session from the dashboard at any time.\n",
		d.PatientName, d.TherapistName, d.Date, d.Time,
	)
	if d.DashboardURL != "" {
		body += fmt.Sprintf("\nBook again: %s\n", d.DashboardURL)
	}
	return EmailMessage{
		To:      d.Email,
		ToName:  d.PatientName,
		Subject: "Your physiotherapy session was cancelled",
		Body:    body,
	}
}
