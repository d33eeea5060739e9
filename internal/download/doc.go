// Package download provides the orchestration logic for bulk-downloading
// Chronicle study data.
//
// # Manager
//
// The Manager coordinates one run end to end:
//
//  1. Fetch the study's participant universe
//  2. Resolve the participant filter
//  3. Plan one task per (participant, data type) pair
//  4. Fetch tasks concurrently under the rate limiter
//  5. Write each payload atomically to its destination
//  6. Clean zero-byte files and archive the study (optional)
//
// # Basic Usage
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	summary, err := manager.Run(ctx, req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Failure Isolation
//
// A failed task never stops the run; its terminal error is recorded in the
// summary and the remaining tasks proceed. The one exception is an
// authorization rejection, which cancels all remaining work: undispatched
// tasks are marked not-attempted and the rejection is returned as the run
// error together with the summary, so every planned task is accounted for
// either way. Caller cancellation is reported the same way, as a
// cancelled-tagged run error alongside the partial summary.
//
// # Concurrency
//
// At most MaxConcurrentDownloads tasks execute at once, and every fetch
// additionally passes through the shared rate limiter before touching the
// network.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
package download
