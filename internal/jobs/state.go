package jobs

// State is the position of a job in the conversion state machine.
type State int

const (
	StatePending State = iota
	StateRunning
	StateNotAVideoFile
	StateNoTargetTracks
	StateConversionFailed
	StateConversionSucceeded
	StateInternalError
)

// AllStates lists every state in declaration order.
var AllStates = []State{
	StatePending,
	StateRunning,
	StateNotAVideoFile,
	StateNoTargetTracks,
	StateConversionFailed,
	StateConversionSucceeded,
	StateInternalError,
}

// IsTerminal reports whether no further transition leaves s.
func (s State) IsTerminal() bool {
	switch s {
	case StateNotAVideoFile, StateNoTargetTracks, StateConversionFailed,
		StateConversionSucceeded, StateInternalError:
		return true
	default:
		return false
	}
}

// Failed reports whether s is a terminal failure.
func (s State) Failed() bool {
	return s == StateConversionFailed || s == StateInternalError
}

// String returns the machine-readable name used in metrics and the API.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateNotAVideoFile:
		return "not_a_video_file"
	case StateNoTargetTracks:
		return "no_target_tracks_found"
	case StateConversionFailed:
		return "conversion_failed"
	case StateConversionSucceeded:
		return "conversion_succeeded"
	case StateInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Label returns the human-readable status text.
func (s State) Label() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateNotAVideoFile:
		return "Failed - Not a video file"
	case StateNoTargetTracks:
		return "Done - No track to convert"
	case StateConversionFailed:
		return "Conversion failed"
	case StateConversionSucceeded:
		return "Done - Conversion succeeded"
	case StateInternalError:
		return "Error"
	default:
		return "Unknown"
	}
}

// StateNames returns String() for every state.
func StateNames() []string {
	names := make([]string, len(AllStates))
	for i, s := range AllStates {
		names[i] = s.String()
	}
	return names
}
