// Package dispatch accepts conversion requests.
//
// A submitted file becomes one job named after its base name. A submitted
// directory is walked recursively and every regular file below it becomes a
// job named by its full path. Jobs are registered as Pending and handed to
// the worker pool; Submit never waits for a conversion.
package dispatch
