package domain

import "time"

// ConversationSnapshot es la vista inmutable del estado que consumen la UI y la API.
type ConversationSnapshot struct {
	ID                  string     `json:"id"`
	Messages            []Message  `json:"messages"`
	Draft               string     `json:"draft"`
	Typing              bool       `json:"typing"`
	SelectedDate        *time.Time `json:"selected_date,omitempty"`
	SelectedSlot        string     `json:"selected_slot,omitempty"`
	PendingConfirmation bool       `json:"pending_confirmation"`
	CreatedAt           time.Time  `json:"created_at"`
	LastActivity        time.Time  `json:"last_activity"`
}

// Last devuelve el mensaje mas reciente, si existe.
func (s ConversationSnapshot) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LatestSlots devuelve los horarios del ultimo mensaje con selector.
func (s ConversationSnapshot) LatestSlots() []TimeSlot {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].HasSlotPicker() {
			return s.Messages[i].TimeSlots
		}
	}
	return nil
}
