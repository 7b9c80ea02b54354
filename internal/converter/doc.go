// Package converter runs a single conversion job.
//
// Run moves a job from Pending through Running to exactly one terminal state,
// decided in order: the file has no video stream (NotAVideoFile), it has no
// audio track in the source codec (NoTargetTracks), ffmpeg failed
// (ConversionFailed, with its diagnostic), or the encode succeeded and the
// result replaced the original (ConversionSucceeded). Anything else,
// including a panic, ends in InternalError. Each terminal transition sends
// one notification.
package converter
