package team

import "fmt"

const (
	ConferenceEast = "East"
	ConferenceWest = "West"
)

// Team is one franchise tracked by the sync pipeline. Rows are created and
// patched only by the reconciliation engine's find-or-create path.
type Team struct {
	ID           int64
	ShortName    string
	FullName     string
	Abbreviation string
	Conference   string
	Division     string
	ExternalID   *int64
}

func (t Team) Validate() error {
	if t.Abbreviation == "" {
		return fmt.Errorf("team abbreviation is required")
	}
	if t.FullName == "" {
		return fmt.Errorf("team full name is required")
	}
	if t.Conference != "" && t.Conference != ConferenceEast && t.Conference != ConferenceWest {
		return fmt.Errorf("team conference must be %s or %s", ConferenceEast, ConferenceWest)
	}
	return nil
}
