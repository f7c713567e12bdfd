package model

import "time"

// CalendarEvent is one row of the events calendar.
type CalendarEvent struct {
	// Raw is the datetime exactly as it appeared in the source; it is part of
	// the ledger key.
	Raw         string
	At          time.Time
	Name        string
	Description string
	// Channels holds normalized channel keys.
	Channels []string
}

// Record returns the notification record of this event for a window.
func (e CalendarEvent) Record(windowHours int) NotificationRecord {
	raw := e.Raw
	if raw == "" {
		raw = e.At.Format(EventDatetimeLayout)
	}
	return NotificationRecord{EventDatetime: raw, EventName: e.Name, WindowHours: windowHours}
}

// Quake is an earthquake report.
type Quake struct {
	Magnitude  float64   `json:"magnitude" yaml:"magnitude"`
	Place      string    `json:"place" yaml:"place"`
	Time       time.Time `json:"time" yaml:"time"`
	DepthKm    float64   `json:"depth_km" yaml:"depth_km"`
	DistanceMi *float64  `json:"distance_mi,omitempty" yaml:"distance_mi,omitempty"`
	// Reference names the place distances are measured from.
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// WeatherAlert is an active weather alert.
type WeatherAlert struct {
	Event      string     `json:"event" yaml:"event"`
	Severity   string     `json:"severity" yaml:"severity"`
	Area       string     `json:"area" yaml:"area"`
	Expires    *time.Time `json:"expires,omitempty" yaml:"expires,omitempty"`
	DistanceMi *float64   `json:"distance_mi,omitempty" yaml:"distance_mi,omitempty"`
}

// AllClear announces that no alert is active around a place.
type AllClear struct {
	Place    string  `json:"place" yaml:"place"`
	RadiusMi float64 `json:"radius_mi" yaml:"radius_mi"`
}

// Spot is a SOTA or POTA activation spot.
type Spot struct {
	Program    string    `json:"program" yaml:"program"`
	Reference  string    `json:"reference" yaml:"reference"`
	Callsign   string    `json:"callsign" yaml:"callsign"`
	Mode       string    `json:"mode" yaml:"mode"`
	FreqMHz    *float64  `json:"freq_mhz,omitempty" yaml:"freq_mhz,omitempty"`
	Time       time.Time `json:"time" yaml:"time"`
	DistanceMi float64   `json:"distance_mi" yaml:"distance_mi"`
	Bearing    string    `json:"bearing" yaml:"bearing"`
	Origin     string    `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// WeatherReport is a current conditions and forecast summary for one place.
type WeatherReport struct {
	Label        string   `json:"label" yaml:"label"`
	TempF        *float64 `json:"temp_f,omitempty" yaml:"temp_f,omitempty"`
	FeelsLikeF   *float64 `json:"feels_like_f,omitempty" yaml:"feels_like_f,omitempty"`
	HighF        *float64 `json:"high_f,omitempty" yaml:"high_f,omitempty"`
	LowF         *float64 `json:"low_f,omitempty" yaml:"low_f,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty" yaml:"humidity,omitempty"`
	PrecipChance *float64 `json:"precip_chance,omitempty" yaml:"precip_chance,omitempty"`
	WindMph      *float64 `json:"wind_mph,omitempty" yaml:"wind_mph,omitempty"`
	WindGustMph  *float64 `json:"wind_gust_mph,omitempty" yaml:"wind_gust_mph,omitempty"`
	WindDir      string   `json:"wind_dir,omitempty" yaml:"wind_dir,omitempty"`
	Condition    string   `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// SolarReport holds space weather indices and HF band conditions.
type SolarReport struct {
	SFI        string `json:"sfi" yaml:"sfi"`
	Sunspots   string `json:"sn" yaml:"sn"`
	AIndex     string `json:"aindex" yaml:"aindex"`
	KIndex     string `json:"kindex" yaml:"kindex"`
	XRay       string `json:"xray" yaml:"xray"`
	SolarWind  string `json:"solarwind" yaml:"solarwind"`
	MagField   string `json:"magfield" yaml:"magfield"`
	ProtonFlux string `json:"protonflux" yaml:"protonflux"`
	Updated    string `json:"updated" yaml:"updated"`
	// Bands maps a band pair such as "80m-40m" to its daytime condition word.
	Bands map[string]string `json:"bands,omitempty" yaml:"bands,omitempty"`
}
