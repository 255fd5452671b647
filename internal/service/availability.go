package service

import (
	"time"

	"tailortalk/internal/domain"
)

// Etiquetas fijas de 9:00 AM a 5:00 PM; los patrones de disponibilidad se alinean por indice.
var slotLabels = []string{
	"9:00 AM",
	"10:00 AM",
	"11:00 AM",
	"12:00 PM",
	"1:00 PM",
	"2:00 PM",
	"3:00 PM",
	"4:00 PM",
	"5:00 PM",
}

var (
	tomorrowAvailability = []bool{false, true, true, false, false, true, true, true, false}
	fridayAvailability   = []bool{true, true, false, false, false, true, true, false, true}
)

// OfferedDay identifica el dia al que se refiere una lista de horarios ofrecida.
type OfferedDay string

const (
	OfferedDayNone     OfferedDay = ""
	OfferedDayTomorrow OfferedDay = "tomorrow"
	OfferedDayFriday   OfferedDay = "friday"
)

// TomorrowSlots devuelve una copia nueva en cada llamada para que ningun mensaje comparta backing array.
func TomorrowSlots() []domain.TimeSlot {
	return buildSlots(tomorrowAvailability)
}

func FridaySlots() []domain.TimeSlot {
	return buildSlots(fridayAvailability)
}

func buildSlots(pattern []bool) []domain.TimeSlot {
	slots := make([]domain.TimeSlot, len(slotLabels))
	for i, label := range slotLabels {
		slots[i] = domain.TimeSlot{Time: label, Available: pattern[i]}
	}
	return slots
}

// Resolve traduce el dia ofrecido a una fecha de calendario relativa a now.
// "friday" es el viernes de esta semana, o hoy si ya es viernes.
func (d OfferedDay) Resolve(now time.Time) (time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch d {
	case OfferedDayTomorrow:
		return day.AddDate(0, 0, 1), true
	case OfferedDayFriday:
		offset := (int(time.Friday) - int(day.Weekday()) + 7) % 7
		return day.AddDate(0, 0, offset), true
	default:
		return time.Time{}, false
	}
}
