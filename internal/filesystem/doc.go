/*
Package filesystem provides filesystem operations with automatic retry for NFS
stale file handle errors.

Media libraries are frequently mounted from a NAS. Stat calls during submission
and the final rename that replaces an original file with its converted copy can
hit ESTALE when the export is remounted or the server-side inode changes. Both
operations are retried with exponential backoff; every other error is returned
immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	err := filesystem.RenameWithRetry(tmp, original, filesystem.DefaultRetryConfig())

Metrics are reported through an Observer registered with SetObserver; the
metrics package provides the Prometheus-backed implementation.
*/
package filesystem
