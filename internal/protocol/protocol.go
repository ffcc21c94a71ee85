// Package protocol defines the messages exchanged between ghostnet clients
// and the server and their binary encoding. Every message is a single packet
// payload: one opcode byte followed by little-endian fields.
package protocol

import (
	"errors"
	"fmt"

	"github.com/ghostrun/ghostnet/internal/net/packet"
)

// ErrMalformed is returned for payloads that cannot be decoded.
var ErrMalformed = errors.New("malformed message")

const (
	movementSize     = 16
	playerUpdateSize = 8 + movementSize

	// MaxSnapshotPlayers is the largest snapshot that fits in one frame.
	MaxSnapshotPlayers = (65533 - 3) / playerUpdateSize
)

// Movement is a player's kinematic state as reported by its owner.
type Movement struct {
	VelocityX    float32
	VelocityY    float32
	TranslationX float32
	TranslationY float32
}

// PlayerUpdate is one entry of a snapshot.
type PlayerUpdate struct {
	ID       uint64
	Movement Movement
}

// Snapshot lists the movement of every other connected player.
type Snapshot []PlayerUpdate

// Message is implemented by every protocol message.
type Message interface {
	Opcode() byte
	encode(w *packet.Writer)
}

// Client → server messages.

type Ping struct{}

type JoinGame struct {
	Movement Movement
}

type PlayerMoved struct {
	Movement Movement
}

// RequestPossibleHighscore proposes an elapsed time as the new best time.
type RequestPossibleHighscore struct {
	TimeInSeconds uint64
}

type LeaveGame struct{}

// Server → client messages.

type Pong struct{}

type UpdateMovedPlayers struct {
	Players Snapshot
}

// InformAboutHighscore carries the current record; 0 means no record yet.
type InformAboutHighscore struct {
	TimeInSeconds uint64
}

func (Ping) Opcode() byte                     { return packet.C_OPCODE_PING }
func (JoinGame) Opcode() byte                 { return packet.C_OPCODE_JOIN_GAME }
func (PlayerMoved) Opcode() byte              { return packet.C_OPCODE_PLAYER_MOVED }
func (RequestPossibleHighscore) Opcode() byte { return packet.C_OPCODE_REQUEST_HIGHSCORE }
func (LeaveGame) Opcode() byte                { return packet.C_OPCODE_LEAVE_GAME }
func (Pong) Opcode() byte                     { return packet.S_OPCODE_PONG }
func (UpdateMovedPlayers) Opcode() byte       { return packet.S_OPCODE_UPDATE_MOVED_PLAYERS }
func (InformAboutHighscore) Opcode() byte     { return packet.S_OPCODE_INFORM_HIGHSCORE }

func (Ping) encode(*packet.Writer)      {}
func (LeaveGame) encode(*packet.Writer) {}
func (Pong) encode(*packet.Writer)      {}

func (m JoinGame) encode(w *packet.Writer)    { writeMovement(w, m.Movement) }
func (m PlayerMoved) encode(w *packet.Writer) { writeMovement(w, m.Movement) }

func (m RequestPossibleHighscore) encode(w *packet.Writer) { w.WriteQ(m.TimeInSeconds) }
func (m InformAboutHighscore) encode(w *packet.Writer)     { w.WriteQ(m.TimeInSeconds) }

func (m UpdateMovedPlayers) encode(w *packet.Writer) {
	w.Grow(2 + len(m.Players)*playerUpdateSize)
	w.WriteH(uint16(len(m.Players)))
	for _, p := range m.Players {
		w.WriteQ(p.ID)
		writeMovement(w, p.Movement)
	}
}

// Encode returns the packet payload for m.
func Encode(m Message) []byte {
	w := packet.NewWriterWithOpcode(m.Opcode())
	m.encode(w)
	return w.Bytes()
}

// Decode parses a payload produced by Encode.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload: %w", ErrMalformed)
	}
	r := packet.NewReader(data)
	switch r.Opcode() {
	case packet.C_OPCODE_PING:
		return wrap(Ping{}, ReadEmpty(r))
	case packet.C_OPCODE_JOIN_GAME:
		return wrap(ReadJoinGame(r))
	case packet.C_OPCODE_PLAYER_MOVED:
		return wrap(ReadPlayerMoved(r))
	case packet.C_OPCODE_REQUEST_HIGHSCORE:
		return wrap(ReadRequestPossibleHighscore(r))
	case packet.C_OPCODE_LEAVE_GAME:
		return wrap(LeaveGame{}, ReadEmpty(r))
	case packet.S_OPCODE_PONG:
		return wrap(Pong{}, ReadEmpty(r))
	case packet.S_OPCODE_UPDATE_MOVED_PLAYERS:
		return wrap(ReadUpdateMovedPlayers(r))
	case packet.S_OPCODE_INFORM_HIGHSCORE:
		return wrap(ReadInformAboutHighscore(r))
	default:
		return nil, fmt.Errorf("unknown opcode %d: %w", r.Opcode(), ErrMalformed)
	}
}

func wrap[T Message](m T, err error) (Message, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ReadEmpty validates a message that carries no fields.
func ReadEmpty(r *packet.Reader) error {
	return finish(r)
}

func ReadJoinGame(r *packet.Reader) (JoinGame, error) {
	m := readMovement(r)
	return JoinGame{Movement: m}, finish(r)
}

func ReadPlayerMoved(r *packet.Reader) (PlayerMoved, error) {
	m := readMovement(r)
	return PlayerMoved{Movement: m}, finish(r)
}

func ReadRequestPossibleHighscore(r *packet.Reader) (RequestPossibleHighscore, error) {
	t := r.ReadQ()
	return RequestPossibleHighscore{TimeInSeconds: t}, finish(r)
}

func ReadInformAboutHighscore(r *packet.Reader) (InformAboutHighscore, error) {
	t := r.ReadQ()
	return InformAboutHighscore{TimeInSeconds: t}, finish(r)
}

func ReadUpdateMovedPlayers(r *packet.Reader) (UpdateMovedPlayers, error) {
	n := int(r.ReadH())
	if r.Short() || r.Remaining() != n*playerUpdateSize {
		return UpdateMovedPlayers{}, fmt.Errorf("snapshot of %d players in %d bytes: %w", n, r.Remaining(), ErrMalformed)
	}
	players := make(Snapshot, n)
	for i := range players {
		players[i].ID = r.ReadQ()
		players[i].Movement = readMovement(r)
	}
	return UpdateMovedPlayers{Players: players}, finish(r)
}

func writeMovement(w *packet.Writer, m Movement) {
	w.WriteF(m.VelocityX)
	w.WriteF(m.VelocityY)
	w.WriteF(m.TranslationX)
	w.WriteF(m.TranslationY)
}

func readMovement(r *packet.Reader) Movement {
	return Movement{
		VelocityX:    r.ReadF(),
		VelocityY:    r.ReadF(),
		TranslationX: r.ReadF(),
		TranslationY: r.ReadF(),
	}
}

func finish(r *packet.Reader) error {
	if r.Short() {
		return fmt.Errorf("opcode %d: truncated payload: %w", r.Opcode(), ErrMalformed)
	}
	if n := r.Remaining(); n > 0 {
		return fmt.Errorf("opcode %d: %d trailing bytes: %w", r.Opcode(), n, ErrMalformed)
	}
	return nil
}
