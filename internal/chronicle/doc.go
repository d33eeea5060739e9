// Package chronicle talks to the Chronicle research data API.
//
// The package handles two operations:
//
//  1. Looking up the participant universe of a study via the participant
//     stats endpoint
//  2. Fetching one participant's data of one type, with retry/backoff on
//     transient failures
//
// # Participant lookup
//
//	client := chronicle.NewClient(chronicle.DefaultOptions(token))
//	ids, err := client.ListParticipants(ctx, studyID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Data fetch
//
// Fetch downloads the raw payload of one task target:
//
//	data, attempts, err := client.Fetch(ctx, url)
//
// Failures are classified with the tags in the model package: 401/403 is
// an auth failure and never retried, 404 is a per-task not-found, 429 and
// 5xx/transport errors are retried under the client's RetryPolicy with a
// server-provided Retry-After honored as a floor on the next delay.
//
// # Endpoints
//
// Study data types are served from
// /chronicle/v3/study/{study}/participants/data and time-use-diary types
// from /chronicle/v3/time-use-diary/{study}/participants/data. DataURL
// builds the full target for one (participant, data type) pair.
package chronicle
