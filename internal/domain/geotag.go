package domain

// Geotag is a place reference embedded in chapter markup, in the positional
// order the markup encodes it.
type Geotag struct {
	ID            int     `json:"id"`
	PlaceName     string  `json:"place_name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ViewLatitude  float64 `json:"view_latitude"`
	ViewLongitude float64 `json:"view_longitude"`
	ViewTilt      float64 `json:"view_tilt"`
	ViewRoll      float64 `json:"view_roll"`
	ViewAltitude  float64 `json:"view_altitude"`
	ViewHeading   float64 `json:"view_heading"`
	Flag          string  `json:"flag,omitempty"` // disambiguates same-named places
}

// DisplayName is the place name with its flag appended when present.
func (g Geotag) DisplayName() string {
	if g.Flag == "" {
		return g.PlaceName
	}
	return g.PlaceName + " " + g.Flag
}
