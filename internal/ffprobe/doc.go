// Package ffprobe inspects media files with the ffprobe command-line tool.
//
// A Prober answers the three questions a conversion needs: does the file
// carry video at all, which audio streams are in the source codec (with their
// bitrates), and what is the full stream list to remux. HasVideo swallows
// every probe failure and answers false, so unreadable or non-media files are
// classified rather than reported as errors.
package ffprobe
