package room

// State holds the physical state of the room actuators.
type State struct {
	CurtainOpen bool
	DoorOpen    bool
	LampOn      bool
	// BuzzerActive is true while the alarm tone is sounding.
	BuzzerActive bool
	// BuzzerPhase is true during the audible half of the intermittent tone.
	BuzzerPhase bool
}
