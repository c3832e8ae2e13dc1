package core

// Action represents a semantic control request, abstracted from physical key presses.
// The viewer maps keys to actions and the platform maps actions to clock transitions.
type Action int

const (
	ActionNone    Action = iota
	ActionStart          // S - start an initialized simulation
	ActionToggle         // Space - pause/resume
	ActionRestart        // R - restart with fresh initial velocities
	ActionSave           // W - write the latest snapshot to a state file
	ActionHelp           // ? - toggle full help
	ActionQuit           // Q, Ctrl+C - stop and exit
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionStart:
		return "Start"
	case ActionToggle:
		return "Toggle"
	case ActionRestart:
		return "Restart"
	case ActionSave:
		return "Save"
	case ActionHelp:
		return "Help"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}
