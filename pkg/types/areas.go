package types

// AreaDescriptor is the wire shape of one minigame area.
type AreaDescriptor struct {
	Label       string   `json:"label" validate:"required,max=128"`
	HostID      string   `json:"hostID,omitempty" validate:"max=128"`
	PlayersByID []string `json:"playersByID" validate:"max=2,dive,required"`
}

// CreateSessionRequest is the body of POST /minigames.
type CreateSessionRequest struct {
	SessionToken string         `json:"sessionToken" validate:"required"`
	TownID       string         `json:"coveyTownID" validate:"required,max=128"`
	Host         string         `json:"host" validate:"required,max=128"`
	Area         AreaDescriptor `json:"minigameArea" validate:"required"`
}

// JoinAreaRequest is the body of POST /towns/{townID}/minigames/{label}/players.
type JoinAreaRequest struct {
	SessionToken string `json:"sessionToken" validate:"required"`
	PlayerID     string `json:"playerID" validate:"required,max=128"`
}

type AreaResponse struct {
	Area AreaDescriptor `json:"area"`
}

type AreaListResponse struct {
	Areas []AreaDescriptor `json:"areas"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
