// Package transcoder re-encodes audio tracks with FFmpeg.
//
// BuildPlan turns a stream list and the set of tracks to convert into a Plan:
// every input stream is mapped, everything is stream-copied, and the selected
// audio tracks are re-encoded to the target codec at their original bitrate
// (floored to whole kilobits). Output goes to a sibling temp file named
// "<base>_<codec><ext>"; replacing the original is the caller's job.
//
// A Transcoder runs plans and tracks live ffmpeg processes so Cleanup can kill
// them on shutdown. FFmpeg must be installed and available in the system PATH
// unless an explicit binary path is configured.
package transcoder
