// Package render dibuja el widget de chat a partir de un snapshot. No guarda estado:
// cada llamada lee todo del snapshot recibido.
package render

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tailortalk/internal/domain"
)

const (
	Title          = "TailorTalk"
	CalendarBadge  = "● Connected to Calendar"
	Placeholder    = "Type your scheduling request..."
	FooterHint     = "Ask me to schedule an appointment, check availability, or book a meeting"
	CardTitle      = "Confirm Appointment"
	CardBody       = "Would you like to confirm this appointment?"
	CheckingLabel  = "Checking calendar"
	SlotsLabel     = "Available time slots:"
	MicGlyph       = "🎤"
	SendGlyph      = "➤"
	typingDots     = "● ● ●"
	availableMark  = "✓"
	unavailableMrk = "✗"
)

// Options ajusta el layout; FocusedSlot es la etiqueta con foco de teclado en el selector mas reciente.
type Options struct {
	Width       int
	FocusedSlot string
}

var (
	titleAccent = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	titleRest   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	badgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	dateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	userBubble = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("26")).
			Padding(0, 1)
	assistantBubble = lipgloss.NewStyle().
			Foreground(lipgloss.Color("236")).
			Background(lipgloss.Color("255")).
			Padding(0, 1)
	timestampStyle = lipgloss.NewStyle().Faint(true)
	checkingStyle  = lipgloss.NewStyle().Italic(true)

	slotAvailable = lipgloss.NewStyle().
			Foreground(lipgloss.Color("22")).
			Background(lipgloss.Color("194")).
			Padding(0, 1)
	slotUnavailable = lipgloss.NewStyle().
			Foreground(lipgloss.Color("88")).
			Background(lipgloss.Color("224")).
			Faint(true).
			Padding(0, 1)
	slotSelected = lipgloss.NewStyle().Underline(true).Bold(true)
	slotFocused  = lipgloss.NewStyle().Reverse(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(1, 4).
			Align(lipgloss.Center)
	cancelButton  = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("250")).Foreground(lipgloss.Color("236"))
	confirmButton = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("26")).Foreground(lipgloss.Color("231"))

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(0, 1)
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// FormatTime usa hora:minuto, p.ej. "03:04 PM".
func FormatTime(t time.Time) string {
	return t.Local().Format("03:04 PM")
}

// FormatDate usa dia de semana, mes, dia y año, p.ej. "Mon, Oct 19, 2026".
func FormatDate(t time.Time) string {
	return t.Local().Format("Mon, Jan 2, 2006")
}

func (o Options) width() int {
	if o.Width <= 0 {
		return 80
	}
	return o.Width
}

// Header es la barra superior con el nombre, el badge de calendario y la fecha.
func Header(now time.Time, width int) string {
	left := titleAccent.Render("Tailor") + titleRest.Render("Talk")
	right := badgeStyle.Render(CalendarBadge) + "  " + dateStyle.Render(FormatDate(now))
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// Transcript dibuja todos los mensajes y, si corresponde, el indicador de escritura.
func Transcript(snap domain.ConversationSnapshot, opts Options) string {
	width := opts.width()
	latestPicker := latestPickerID(snap)

	var b strings.Builder
	for i, msg := range snap.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		focus := ""
		if msg.ID == latestPicker {
			focus = opts.FocusedSlot
		}
		b.WriteString(Message(msg, snap.SelectedSlot, focus, width))
	}
	if snap.Typing {
		b.WriteString("\n\n")
		b.WriteString(TypingIndicator())
	}
	return b.String()
}

// Message dibuja una burbuja: usuario a la derecha, asistente a la izquierda.
func Message(msg domain.Message, selectedSlot, focusedSlot string, width int) string {
	maxBubble := width * 4 / 5
	if maxBubble < 20 {
		maxBubble = width
	}

	style := assistantBubble
	if msg.FromUser() {
		style = userBubble
	}

	var body strings.Builder
	body.WriteString(msg.Text)
	if msg.Status == domain.StatusChecking {
		body.WriteString("\n")
		body.WriteString(checkingStyle.Render(CheckingLabel + " " + typingDots))
	}
	if msg.HasSlotPicker() {
		body.WriteString("\n")
		body.WriteString(SlotPicker(msg.TimeSlots, selectedSlot, focusedSlot, maxBubble-2))
	}
	body.WriteString("\n")
	body.WriteString(timestampStyle.Render(FormatTime(msg.CreatedAt)))

	bubble := style.Width(maxBubble).Render(body.String())
	if msg.FromUser() {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, bubble)
}

// SlotPicker dibuja los botones de horario; los no disponibles salen atenuados.
func SlotPicker(slots []domain.TimeSlot, selectedSlot, focusedSlot string, width int) string {
	var rows []string
	var row []string
	rowWidth := 0
	for _, slot := range slots {
		button := SlotButton(slot, slot.Time == selectedSlot, slot.Time == focusedSlot)
		w := lipgloss.Width(button) + 1
		if rowWidth > 0 && width > 0 && rowWidth+w > width {
			rows = append(rows, strings.Join(row, " "))
			row, rowWidth = nil, 0
		}
		row = append(row, button)
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, strings.Join(row, " "))
	}
	return SlotsLabel + "\n" + strings.Join(rows, "\n")
}

func SlotButton(slot domain.TimeSlot, selected, focused bool) string {
	style := slotUnavailable
	mark := unavailableMrk
	if slot.Available {
		style = slotAvailable
		mark = availableMark
	}
	if selected {
		style = style.Inherit(slotSelected)
	}
	if focused && slot.Available {
		style = style.Inherit(slotFocused)
	}
	return style.Render(slot.Time + " " + mark)
}

func TypingIndicator() string {
	return assistantBubble.Render(typingDots)
}

// ConfirmationCard es la tarjeta modal de confirmacion.
func ConfirmationCard(width int) string {
	buttons := cancelButton.Render("Cancel [n]") + "   " + confirmButton.Render("Confirm [y]")
	card := cardStyle.Render("📅 " + CardTitle + "\n" + CardBody + "\n\n" + buttons)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
}

// InputBar envuelve el campo de texto con el boton de enviar y el microfono decorativo.
func InputBar(field string, width int) string {
	inner := field + "  " + SendGlyph + "  " + MicGlyph
	bar := inputStyle.Width(width - 2).Render(inner)
	hint := lipgloss.PlaceHorizontal(width, lipgloss.Center, hintStyle.Render(FooterHint))
	return bar + "\n" + hint
}

// View compone la pantalla completa sin input interactivo: util para la API y para logs.
// La tarjeta aparece si y solo si hay confirmacion pendiente.
func View(snap domain.ConversationSnapshot, now time.Time, opts Options) string {
	width := opts.width()
	parts := []string{
		Header(now, width),
		Transcript(snap, opts),
	}
	if snap.PendingConfirmation {
		parts = append(parts, ConfirmationCard(width))
	}
	draft := snap.Draft
	if draft == "" {
		draft = Placeholder
	}
	parts = append(parts, InputBar(draft, width))
	return strings.Join(parts, "\n\n")
}

func latestPickerID(snap domain.ConversationSnapshot) int {
	for i := len(snap.Messages) - 1; i >= 0; i-- {
		if snap.Messages[i].HasSlotPicker() {
			return snap.Messages[i].ID
		}
	}
	return 0
}
