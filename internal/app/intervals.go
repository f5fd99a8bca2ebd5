package app

import "time"

// Intervals are the polling periods per screen.
type Intervals struct {
	DuelWait   time.Duration
	DuelResult time.Duration
	RoomLobby  time.Duration
	RoomPlay   time.Duration
	RoomResult time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		DuelWait:   1500 * time.Millisecond,
		DuelResult: 2 * time.Second,
		RoomLobby:  1500 * time.Millisecond,
		RoomPlay:   1200 * time.Millisecond,
		RoomResult: 1200 * time.Millisecond,
	}
}
