package packet

// Client → server opcodes.
const (
	C_OPCODE_PING              byte = 1
	C_OPCODE_JOIN_GAME         byte = 2
	C_OPCODE_PLAYER_MOVED      byte = 3
	C_OPCODE_REQUEST_HIGHSCORE byte = 4
	C_OPCODE_LEAVE_GAME        byte = 5
)

// Server → client opcodes.
const (
	S_OPCODE_PONG                 byte = 101
	S_OPCODE_UPDATE_MOVED_PLAYERS byte = 102
	S_OPCODE_INFORM_HIGHSCORE     byte = 103
)
