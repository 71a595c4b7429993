package models

// MoveRequest defines the structure for a player move request.
type MoveRequest struct {
	Index *int `json:"index" binding:"required,min=0,max=8"`
}
