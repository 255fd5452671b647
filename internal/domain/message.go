package domain

import "time"

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// MessageStatus marca los mensajes que participan en una consulta de calendario.
type MessageStatus string

const (
	StatusNone      MessageStatus = ""
	StatusChecking  MessageStatus = "checking"
	StatusAvailable MessageStatus = "available"
	// StatusUnavailable queda reservado para modelar fallos sin salir del log append-only.
	StatusUnavailable MessageStatus = "unavailable"
)

type Message struct {
	ID        int           `json:"id"`
	Text      string        `json:"text"`
	Sender    Sender        `json:"sender"`
	CreatedAt time.Time     `json:"created_at"`
	Status    MessageStatus `json:"status,omitempty"`
	ShowSlots bool          `json:"show_slots,omitempty"`
	TimeSlots []TimeSlot    `json:"time_slots,omitempty"`
}

func (m Message) FromUser() bool {
	return m.Sender == SenderUser
}

// HasSlotPicker indica si el mensaje debe renderizar botones de horario.
func (m Message) HasSlotPicker() bool {
	return m.ShowSlots && len(m.TimeSlots) > 0
}
