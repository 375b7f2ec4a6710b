package types

// Client -> Server
// join_game_room:
//   payload: area label
//
// start_game:
//   payload: area label

// Server -> Client
// <label>_room_joined:   sent to the joining connection only
// host_start_game:       sent to the connection that sent start_game
// <label>_game_started:  sent to every other member of the channel
// error:                 malformed frame or unknown event

const (
	EventJoinGameRoom  = "join_game_room"
	EventStartGame     = "start_game"
	EventHostStartGame = "host_start_game"
	EventError         = "error"
)

// ClientEvent is a frame sent by a player connection.
type ClientEvent struct {
	Event   string `json:"event"`
	Payload string `json:"payload,omitempty"`
}

// ServerEvent is a frame sent to a player connection.
type ServerEvent struct {
	Event string `json:"event"`
	Error string `json:"error,omitempty"`
}

func RoomJoined(label string) string { return label + "_room_joined" }

func GameStarted(label string) string { return label + "_game_started" }
