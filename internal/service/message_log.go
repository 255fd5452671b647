package service

import "tailortalk/internal/domain"

// messageLog es el historial append-only de una conversacion.
// Expone Append y ReplaceLast; UpgradeChecking es la unica escritura sobre una
// posicion intermedia y solo toca mensajes en estado checking.
type messageLog struct {
	messages []domain.Message
	nextID   int
}

func newMessageLog() *messageLog {
	return &messageLog{nextID: 1}
}

// Append asigna el siguiente ID del contador y agrega el mensaje al final.
func (l *messageLog) Append(msg domain.Message) domain.Message {
	msg.ID = l.nextID
	l.nextID++
	l.messages = append(l.messages, msg)
	return msg
}

// ReplaceLast reemplaza el ultimo mensaje conservando su ID y fecha de creacion.
func (l *messageLog) ReplaceLast(update func(domain.Message) domain.Message) (domain.Message, bool) {
	if len(l.messages) == 0 {
		return domain.Message{}, false
	}
	last := l.messages[len(l.messages)-1]
	next := update(last)
	next.ID = last.ID
	next.CreatedAt = last.CreatedAt
	l.messages[len(l.messages)-1] = next
	return next, true
}

// UpgradeChecking actualiza en su lugar el mensaje id mientras siga en StatusChecking.
// Conserva ID, remitente y fecha de creacion.
func (l *messageLog) UpgradeChecking(id int, update func(domain.Message) domain.Message) (domain.Message, bool) {
	for i, m := range l.messages {
		if m.ID != id {
			continue
		}
		if m.Status != domain.StatusChecking {
			return domain.Message{}, false
		}
		next := update(m)
		next.ID = m.ID
		next.Sender = m.Sender
		next.CreatedAt = m.CreatedAt
		l.messages[i] = next
		return next, true
	}
	return domain.Message{}, false
}

func (l *messageLog) Last() (domain.Message, bool) {
	if len(l.messages) == 0 {
		return domain.Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

func (l *messageLog) Len() int {
	return len(l.messages)
}

func (l *messageLog) Find(id int) (domain.Message, bool) {
	for _, m := range l.messages {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Message{}, false
}

// Copy devuelve una copia superficial; los mensajes son inmutables una vez agregados.
func (l *messageLog) Copy() []domain.Message {
	out := make([]domain.Message, len(l.messages))
	copy(out, l.messages)
	return out
}
