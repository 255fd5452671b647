package service

import (
	"strings"

	"tailortalk/internal/domain"
)

const (
	replyTomorrow = "I can help you schedule for tomorrow. What time works best for you? I see you have availability between 10 AM - 11:30 AM and 2 PM - 5 PM."
	replyFriday   = "Let me check your availability for this Friday. You have several open slots. Would any of these times work for you?"
	replyAskTime  = "I'd be happy to help you schedule an appointment. Could you please specify when you'd like to schedule it? For example, 'tomorrow afternoon' or 'next Friday'."
	replyChecking = "Great! Let me check if you're free at 3:30 PM..."
	replyBooked   = "✅ Your appointment has been scheduled successfully! You'll receive a calendar invite shortly."
	replyFallback = "I'm here to help you schedule appointments. Let me know when you'd like to book a time, and I'll check your availability."

	replyCheckingAvailable = "You're available! Would you like me to book this appointment for you?"
)

// FollowUp describe un segundo paso diferido que la respuesta pide al simulador.
type FollowUp int

const (
	FollowUpNone FollowUp = iota
	// FollowUpCalendarCheck convierte el mensaje "checking" en "available" y levanta la confirmacion.
	FollowUpCalendarCheck
)

// Reply es la respuesta enlatada elegida por el dispatcher.
type Reply struct {
	Rule         string
	Text         string
	Status       domain.MessageStatus
	TimeSlots    []domain.TimeSlot
	Day          OfferedDay
	FollowUp     FollowUp
	ClearPending bool
}

// Rule empareja texto en minusculas y el flag de confirmacion pendiente con una respuesta.
type Rule struct {
	Name  string
	Match func(text string, pending bool) bool
	Build func() Reply
}

// Dispatcher evalua las reglas en orden fijo; gana la primera que coincide.
type Dispatcher struct {
	rules []Rule
}

func NewDispatcher(rules ...Rule) *Dispatcher {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Dispatcher{rules: rules}
}

// DefaultRules arma la tabla de reglas del asistente. El orden importa.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "schedule_tomorrow",
			Match: func(text string, _ bool) bool {
				return wantsScheduling(text) && strings.Contains(text, "tomorrow")
			},
			Build: func() Reply {
				return Reply{Text: replyTomorrow, TimeSlots: TomorrowSlots(), Day: OfferedDayTomorrow}
			},
		},
		{
			Name: "schedule_friday",
			Match: func(text string, _ bool) bool {
				return wantsScheduling(text) && strings.Contains(text, "friday")
			},
			Build: func() Reply {
				return Reply{Text: replyFriday, TimeSlots: FridaySlots(), Day: OfferedDayFriday}
			},
		},
		{
			Name: "schedule_ask_time",
			Match: func(text string, _ bool) bool {
				return wantsScheduling(text)
			},
			Build: func() Reply {
				return Reply{Text: replyAskTime}
			},
		},
		{
			Name: "calendar_check",
			Match: func(text string, _ bool) bool {
				return strings.Contains(text, "3:30")
			},
			Build: func() Reply {
				return Reply{Text: replyChecking, Status: domain.StatusChecking, FollowUp: FollowUpCalendarCheck}
			},
		},
		{
			Name: "confirm_booking",
			Match: func(text string, pending bool) bool {
				return pending && strings.Contains(text, "yes")
			},
			Build: func() Reply {
				return Reply{Text: replyBooked, ClearPending: true}
			},
		},
		{
			Name:  "fallback",
			Match: func(string, bool) bool { return true },
			Build: func() Reply {
				return Reply{Text: replyFallback}
			},
		},
	}
}

func wantsScheduling(text string) bool {
	return strings.Contains(text, "schedule") ||
		strings.Contains(text, "book") ||
		strings.Contains(text, "appointment")
}

// Dispatch devuelve la respuesta de la primera regla que coincide.
// Sin ninguna coincidencia (tabla sin fallback) cae en el texto generico.
func (d *Dispatcher) Dispatch(text string, pending bool) Reply {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range d.rules {
		if rule.Match(normalized, pending) {
			reply := rule.Build()
			reply.Rule = rule.Name
			return reply
		}
	}
	return Reply{Rule: "fallback", Text: replyFallback}
}
