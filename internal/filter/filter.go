// Package filter resolves a raw participant id list plus an
// inclusion/exclusion mode into the concrete set of participants to fetch.
//
// Resolution is a pure function over the participant universe returned by
// the study metadata lookup. Malformed ids are rejected before any network
// call is made.
package filter

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/model"
)

// Participant ids are opaque but must be safe to embed in query strings
// and file names.
var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:@-]*$`)

// Result is the outcome of resolving a filter against a study's
// participant universe.
type Result struct {
	// Participants is the ordered set of ids to fetch, in universe order.
	Participants []string

	// Dropped counts include-mode ids that were not present in the study.
	Dropped int
}

// ParseIDList splits a comma- or newline-separated id list into cleaned
// ids, dropping empty entries.
func ParseIDList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		if id := strings.TrimSpace(f); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Resolve applies f to the participant universe. Exclude mode returns the
// universe minus the listed ids; listed ids unknown to the study are
// ignored. Include mode returns the universe entries that are listed;
// unknown listed ids are dropped with a count, or rejected outright when
// f.Strict is set.
func Resolve(universe []string, f model.ParticipantFilter) (*Result, error) {
	listed := make(map[string]bool, len(f.IDs))
	for _, raw := range f.IDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if !validID.MatchString(id) {
			return nil, goerr.New("malformed participant id in filter",
				goerr.V("id", raw), goerr.T(model.TagInvalidFilter))
		}
		listed[id] = true
	}

	known := make(map[string]bool, len(universe))
	for _, p := range universe {
		known[p] = true
	}

	res := &Result{}

	switch f.Mode {
	case model.FilterExclude:
		for _, p := range universe {
			if !listed[p] {
				res.Participants = append(res.Participants, p)
			}
		}

	case model.FilterInclude:
		for id := range listed {
			if !known[id] {
				if f.Strict {
					return nil, goerr.New("participant id not present in study",
						goerr.V("id", id), goerr.T(model.TagInvalidFilter))
				}
				res.Dropped++
			}
		}
		for _, p := range universe {
			if listed[p] {
				res.Participants = append(res.Participants, p)
			}
		}

	default:
		return nil, goerr.New("unknown filter mode",
			goerr.V("mode", int(f.Mode)), goerr.T(model.TagInvalidFilter))
	}

	return res, nil
}
