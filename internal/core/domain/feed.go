package domain

// FeedItem is the public view of a shared habit.
type FeedItem struct {
	HabitID  string `json:"habit_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Likes    int    `json:"likes"`
	Streak   int    `json:"streak"`
}

// CheerEvent is broadcast to live feed subscribers after a cheer.
type CheerEvent struct {
	Type    string `json:"type"`
	HabitID string `json:"habit_id"`
	Name    string `json:"name"`
	Likes   int    `json:"likes"`
}

const EventCheer = "cheer"

func NewFeedItem(h *Habit, streak int) FeedItem {
	return FeedItem{
		HabitID:  h.ID,
		Name:     h.Name,
		Category: h.Category,
		Color:    h.Color,
		Likes:    h.Likes,
		Streak:   streak,
	}
}
