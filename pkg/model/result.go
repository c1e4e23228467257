package model

// NameNotFound is used as rider name if no roster entry matches.
const NameNotFound = "Name not found"

// PilotBlock is the part of the normalized document belonging to one rider.
// Start and End are byte offsets, End is exclusive.
type PilotBlock struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"-"`
}

// PilotResult holds the lap times (in seconds) of a rider in document order.
type PilotResult struct {
	Name string    `json:"name"`
	Laps []float64 `json:"laps"`
}

// Pace summarizes a (selected) set of lap times.
type Pace struct {
	Laps    int     `json:"laps"`
	Average float64 `json:"average"`
	Fastest float64 `json:"fastest"`
	Slowest float64 `json:"slowest"`
}

// RiderSummary is a PilotResult enriched with pace information.
type RiderSummary struct {
	PilotResult
	Pace *Pace `json:"pace,omitempty"`
}

// EventKey identifies a race analysis report.
type EventKey struct {
	Season    string `json:"season" validate:"required,numeric,len=4"`
	EventCode string `json:"eventCode" validate:"required,alpha,min=2,max=4"`
}

func (k EventKey) String() string {
	return k.Season + "/" + k.EventCode
}

// Report is the analysis result of one event.
type Report struct {
	Event  EventKey       `json:"event"`
	Riders []RiderSummary `json:"riders"`
}
