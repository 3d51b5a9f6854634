package models

// PersonaProfile is the static description of an analyst used to frame
// prompts. InitialPosition is filled in during a round table's opening phase.
type PersonaProfile struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Style           string `json:"style"`
	Background      string `json:"background"`
	Biases          string `json:"biases"`
	InitialPosition string `json:"initial_position,omitempty"`
}
