// Package memory applies a container-aware Go soft memory limit.
//
// In Kubernetes, expose the container limit through the Downward API:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//
// Only a quarter of the limit goes to the Go heap by default, since ffmpeg
// child processes do the heavy lifting. Override with MEMORY_RATIO, or set
// GOMEMLIMIT directly to bypass the calculation.
package memory
