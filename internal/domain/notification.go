package domain

import "time"

// CraftingNotification is a crafting timer the user asked to be told about
// when it completes.
type CraftingNotification struct {
	ID        string    `json:"id"`
	ItemName  string    `json:"itemName" validate:"required,max=100"`
	Category  string    `json:"category" validate:"required,max=50"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	Quantity  int       `json:"quantity" validate:"min=1"`
	Notified  bool      `json:"notified"`
}

// Due reports whether the timer has elapsed and nobody has been told yet.
func (n *CraftingNotification) Due(now time.Time) bool {
	return !n.Notified && !now.Before(n.EndTime)
}
