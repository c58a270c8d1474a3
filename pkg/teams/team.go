// Package teams defines the football team record shared by the upstream
// client, the ingestion pipeline and the store.
package teams

import "time"

// Team is one team as returned by the football-data.org teams endpoint.
// Optional fields are pointers so that JSON null and SQL NULL round-trip.
type Team struct {
	// ID is assigned by the upstream API. The store assigns its own on insert.
	ID int64 `json:"id,omitempty"`

	Name      string  `json:"name"`
	ShortName *string `json:"shortName"`
	TLA       *string `json:"tla"`

	// Crest is the emblem image URI. A team without one is not ingested.
	Crest string `json:"crest"`

	Address     *string    `json:"address"`
	Website     *string    `json:"website"`
	Founded     *int       `json:"founded"`
	ClubColors  *string    `json:"clubColors"`
	Venue       *string    `json:"venue"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// IsValid reports whether the team carries a crest.
func IsValid(t Team) bool {
	return t.Crest != ""
}

// FilterValid returns the valid teams of in, preserving order.
func FilterValid(in []Team) []Team {
	out := make([]Team, 0, len(in))
	for _, t := range in {
		if IsValid(t) {
			out = append(out, t)
		}
	}
	return out
}

// WithoutID returns a copy of t with the upstream identifier cleared.
func (t Team) WithoutID() Team {
	t.ID = 0
	return t
}

// StripIDs clears the upstream identifier of every team.
func StripIDs(in []Team) []Team {
	out := make([]Team, len(in))
	for i, t := range in {
		out[i] = t.WithoutID()
	}
	return out
}
