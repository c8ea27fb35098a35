package model

import "strconv"

// Station identifies a climate station on the source site.
type Station struct {
	// ID is the site's numeric StationID request parameter.
	ID int `json:"id" yaml:"id"`

	// Name is a human-readable station name.
	Name string `json:"name" yaml:"name"`

	// Location is the label stored alongside every record (e.g. "Winnipeg, MB").
	Location string `json:"location" yaml:"location"`
}

// DefaultStation is Winnipeg Richardson International Airport, the station
// climatecrawl downloads when no other station is configured.
var DefaultStation = Station{
	ID:       27174,
	Name:     "Winnipeg Richardson Int'l A",
	Location: "Winnipeg, MB",
}

// String returns "Name (ID)", or "station ID" when the name is unknown.
func (s Station) String() string {
	if s.Name == "" {
		return "station " + strconv.Itoa(s.ID)
	}
	return s.Name + " (" + strconv.Itoa(s.ID) + ")"
}
