// Package dto contains the wire types returned by the Chronicle API.
package dto

import "sort"

// ParticipantStats is one entry of the participant stats response.
type ParticipantStats struct {
	ParticipantID    string `json:"participantId"`
	AndroidFirstDate string `json:"androidFirstDate,omitempty"`
	AndroidLastDate  string `json:"androidLastDate,omitempty"`
	IOSFirstDate     string `json:"iosFirstDate,omitempty"`
	IOSLastDate      string `json:"iosLastDate,omitempty"`
}

// StatsResponse is the participant stats payload: a JSON object with one
// opaque key per participant.
type StatsResponse map[string]ParticipantStats

// ParticipantIDs returns the non-empty participant ids in stable
// (sorted key) order.
func (r StatsResponse) ParticipantIDs() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id := r[k].ParticipantID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
