package event

import "github.com/ghostrun/ghostnet/internal/protocol"

// Server-side events, one per routed client message.

type PlayerJoined struct {
	ClientID uint64
	Movement protocol.Movement
}

type PlayerMoved struct {
	ClientID uint64
	Movement protocol.Movement
}

type PlayerLeft struct {
	ClientID uint64
}

type HighscoreRequested struct {
	ClientID      uint64
	TimeInSeconds uint64
}

// Client-side events.

// LevelFinished fires when the local player crosses the finish line.
type LevelFinished struct {
	ElapsedSeconds uint64
}
