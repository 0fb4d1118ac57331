package roster

// Therapist is one entry of the fixed home-visit roster. The roster is static
// reference data, not user-editable; appointments snapshot the entry they were
// assigned so later roster edits never rewrite history.
type Therapist struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Specialty string  `json:"specialty"`
	Rating    float64 `json:"rating"`
	Available bool    `json:"available"`
}

// Default returns the built-in six-specialty roster.
func Default() []Therapist {
	return []Therapist{
		{ID: "1", Name: "Dr. Alok Kumar", Specialty: "Orthopedic Physiotherapy", Rating: 4.8, Available: true},
		{ID: "2", Name: "Dr. Swati Singh", Specialty: "Neurological Physiotherapy", Rating: 4.9, Available: true},
		{ID: "3", Name: "Dr. Rajesh Verma", Specialty: "Sports Physiotherapy", Rating: 4.7, Available: true},
		{ID: "4", Name: "Dr. Priyanka Tiwari", Specialty: "Pediatric Physiotherapy", Rating: 4.9, Available: true},
		{ID: "5", Name: "Dr. Manoj Bajpai", Specialty: "Geriatric Physiotherapy", Rating: 4.6, Available: true},
		{ID: "6", Name: "Dr. Sneha Gupta", Specialty: "Cardiopulmonary Physiotherapy", Rating: 4.8, Available: true},
	}
}
