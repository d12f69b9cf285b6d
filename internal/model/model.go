package model

import "time"

// Event is a single calendar occurrence as served by the event service.
//
// StartDatetime/EndDatetime are absolute UTC instants. For all-day events
// they carry the day boundaries of the authored span; the time-of-day
// components are not independently meaningful.
type Event struct {
	ID int64 `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`

	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	AllDay        bool      `json:"all_day"`

	// OriginalTimezone is the IANA zone the event was authored in.
	// Display fidelity only; the service filters on UTC instants.
	OriginalTimezone string `json:"original_timezone"`

	Attendees []string `json:"attendees"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventInput is the payload for creating an event. The service assigns
// ID, CreatedAt and UpdatedAt.
type EventInput struct {
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Location         string    `json:"location,omitempty"`
	StartDatetime    time.Time `json:"start_datetime"`
	EndDatetime      time.Time `json:"end_datetime"`
	AllDay           bool      `json:"all_day"`
	OriginalTimezone string    `json:"original_timezone"`
	Attendees        []string  `json:"attendees"`
}

// EventPatch is a partial update; nil fields are left unchanged server-side.
type EventPatch struct {
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	Location         *string    `json:"location,omitempty"`
	StartDatetime    *time.Time `json:"start_datetime,omitempty"`
	EndDatetime      *time.Time `json:"end_datetime,omitempty"`
	AllDay           *bool      `json:"all_day,omitempty"`
	OriginalTimezone *string    `json:"original_timezone,omitempty"`
	Attendees        *[]string  `json:"attendees,omitempty"`
}

// EventPage is one page of a filtered event listing. Events are not
// guaranteed to arrive in any particular order.
type EventPage struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Size   int     `json:"size"`
	Pages  int     `json:"pages"`
}

// EventDraft is the best-effort output of the natural-language drafting
// endpoint. It is treated exactly like user-entered form data and goes
// through the same validation before submission.
type EventDraft struct {
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	StartDatetime *time.Time `json:"start_datetime,omitempty"`
	EndDatetime   *time.Time `json:"end_datetime,omitempty"`
	AllDay        bool       `json:"all_day"`
	Location      string     `json:"location,omitempty"`
	Attendees     []string   `json:"attendees"`

	// Confidence is the extractor's self-reported score in [0, 1].
	Confidence float64 `json:"confidence"`

	// ExtractedEntities is the raw entity map, kept for display.
	ExtractedEntities map[string]any `json:"extracted_entities"`
}
