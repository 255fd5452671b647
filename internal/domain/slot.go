package domain

// TimeSlot es solo dato de presentacion: no hay fecha real detras.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// FindSlot busca un horario por su etiqueta exacta.
func FindSlot(slots []TimeSlot, label string) (TimeSlot, bool) {
	for _, s := range slots {
		if s.Time == label {
			return s, true
		}
	}
	return TimeSlot{}, false
}
