package models

// Player is a room member. ID is the websocket session identifier of the
// connection that joined. Stats are mutated only by applying a turn result.
type Player struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	Score         int    `json:"score"`
	ExactHits     int    `json:"exactHits"`
	CorrectHits   int    `json:"correctHits"`
	WrongHits     int    `json:"wrongHits"`
	TotalTimeUsed int    `json:"totalTimeUsed"` // seconds
	IsHost        bool   `json:"isHost"`
}
