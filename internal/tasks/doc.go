// Package tasks orchestrates long-running media server operations with real-time progress reporting.
//
// # Engines
//
// Each engine owns one workflow over the [API] interface:
//
//  1. [DedupEngine] : Duplicate detection on smart audio playlists
//     - Parses the playlist's smart filter and strips stale duplicate exclusions
//     - Groups matching tracks and ranks copies by audio quality
//     - Tags losers with the playlist's marker mood and rewrites the filter
//     - [DedupEngine.CleanupStale] removes marker moods whose playlist is gone
//
//  2. [DeleteEngine] : Bulk deletion
//     - Deletes sequentially, recording per-item failures without aborting
//
//  3. [DownloadEngine] : Bulk download to a local destination
//     - Dry-run planning pass computes target paths and bytes to fetch
//     - Skips verified files, resumes partial ones after a prefix check
//     - Records completed files in the sqlite ledger
//
//  4. [UpdateEngine] : Server update check
//     - Defers while sessions are active, otherwise restarts the container
//
//  5. [CollectEngine] : Collections from library subfolders
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Partial Failure
//
// Bulk operations never abort on a single bad item. Failures accumulate in a
// [Summary] and the operation returns shared.ErrPartialFailure so the process
// can exit non-zero after reporting every item.
package tasks
