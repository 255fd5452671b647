package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tailortalk/internal/domain"
)

const (
	greetingText     = "Hi there! I'm your TailorTalk scheduling assistant. How can I help you schedule today?"
	acceptText       = "Yes, please book it."
	slotCheckingText = "Great! Let me check if you're free at %s..."
	slotAvailText    = "You're available at %s! Would you like me to book this appointment for you?"
)

var ErrUnknownDeliveryPolicy = errors.New("unknown delivery policy")

// DeliveryPolicy decide que pasa con respuestas diferidas que se solapan.
type DeliveryPolicy string

const (
	// PolicySerialize ejecuta los trabajos diferidos de a uno, en orden de llegada.
	PolicySerialize DeliveryPolicy = "serialize"
	// PolicyInterleave arranca cada trabajo al instante; las respuestas pueden cruzarse.
	PolicyInterleave DeliveryPolicy = "interleave"
	// PolicyCancel descarta los trabajos pendientes cuando llega nueva entrada del usuario.
	PolicyCancel DeliveryPolicy = "cancel"
)

func ParseDeliveryPolicy(raw string) (DeliveryPolicy, error) {
	switch p := DeliveryPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PolicySerialize, nil
	case PolicySerialize, PolicyInterleave, PolicyCancel:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDeliveryPolicy, raw)
	}
}

// Delays son las latencias artificiales del simulador.
type Delays struct {
	Thinking time.Duration
	Calendar time.Duration
	SlotAck  time.Duration
	Booking  time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Thinking: 1500 * time.Millisecond,
		Calendar: 2 * time.Second,
		SlotAck:  500 * time.Millisecond,
		Booking:  1500 * time.Millisecond,
	}
}

// ConversationOptions agrupa las dependencias de una conversacion. Los campos vacios toman defaults.
type ConversationOptions struct {
	Delays     Delays
	Policy     DeliveryPolicy
	Scheduler  Scheduler
	Dispatcher *Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

func (o ConversationOptions) withDefaults() ConversationOptions {
	if o.Delays == (Delays{}) {
		o.Delays = DefaultDelays()
	}
	if o.Policy == "" {
		o.Policy = PolicySerialize
	}
	if o.Scheduler == nil {
		o.Scheduler = NewRealScheduler()
	}
	if o.Dispatcher == nil {
		o.Dispatcher = NewDispatcher()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// step es un paso diferido de un trabajo. run corre con el lock tomado.
type step struct {
	delay  time.Duration
	typing bool
	run    func(j *job)
}

// job es la cadena de pasos diferidos disparada por una accion del usuario.
type job struct {
	name       string
	generation uint64
	steps      []step
	timer      Timer
	done       bool
	// typingHeld indica que el indicador ya se encendio al encolar el trabajo.
	typingHeld bool
}

// Conversation es el controlador de una sesion de chat: dueño del log, los flags
// transitorios y los trabajos diferidos. Toda transicion corre bajo mu.
type Conversation struct {
	mu sync.Mutex

	id     string
	opts   ConversationOptions
	logger *zap.Logger

	log          *messageLog
	draft        string
	thinking     int
	selectedDate *time.Time
	selectedSlot string
	pending      bool
	createdAt    time.Time
	lastActivity time.Time
	closed       bool

	generation uint64
	queue      []*job
	active     map[*job]struct{}

	subs    map[int]chan domain.ConversationSnapshot
	nextSub int
}

// NewConversation crea la conversacion con el saludo inicial del asistente.
func NewConversation(opts ConversationOptions) *Conversation {
	opts = opts.withDefaults()
	id := uuid.NewString()
	now := opts.Now().UTC()
	c := &Conversation{
		id:           id,
		opts:         opts,
		logger:       opts.Logger.With(zap.String("conversation_id", id)),
		log:          newMessageLog(),
		createdAt:    now,
		lastActivity: now,
		active:       make(map[*job]struct{}),
		subs:         make(map[int]chan domain.ConversationSnapshot),
	}
	c.log.Append(domain.Message{
		Text:      greetingText,
		Sender:    domain.SenderAssistant,
		CreatedAt: now,
	})
	return c
}

func (c *Conversation) ID() string {
	return c.id
}

// Snapshot devuelve una copia del estado actual.
func (c *Conversation) Snapshot() domain.ConversationSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) snapshotLocked() domain.ConversationSnapshot {
	snap := domain.ConversationSnapshot{
		ID:                  c.id,
		Messages:            c.log.Copy(),
		Draft:               c.draft,
		Typing:              c.thinking > 0,
		SelectedSlot:        c.selectedSlot,
		PendingConfirmation: c.pending,
		CreatedAt:           c.createdAt,
		LastActivity:        c.lastActivity,
	}
	if c.selectedDate != nil {
		d := *c.selectedDate
		snap.SelectedDate = &d
	}
	return snap
}

// LastActivity se usa para expirar conversaciones inactivas.
func (c *Conversation) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

func (c *Conversation) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SetDraft actualiza el texto en edicion del input.
func (c *Conversation) SetDraft(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConversationClosed
	}
	if c.draft == text {
		return nil
	}
	c.draft = text
	c.notifyLocked()
	return nil
}

// Submit envia el borrador actual, como el boton de enviar o Enter.
func (c *Conversation) Submit() (bool, error) {
	c.mu.Lock()
	text := c.draft
	c.mu.Unlock()
	return c.Send(text)
}

// Send agrega el mensaje del usuario y programa la respuesta del asistente.
// Texto vacio o solo espacios se ignora sin error y devuelve false.
func (c *Conversation) Send(text string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrConversationClosed
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, nil
	}

	c.userInputLocked()
	c.log.Append(domain.Message{
		Text:      text,
		Sender:    domain.SenderUser,
		CreatedAt: c.nowLocked(),
	})
	c.draft = ""

	c.enqueueLocked(&job{
		name: "reply",
		steps: []step{{
			delay:  c.opts.Delays.Thinking,
			typing: true,
			run: func(j *job) {
				c.deliverReplyLocked(j, trimmed)
			},
		}},
	})
	c.notifyLocked()
	return true, nil
}

func (c *Conversation) deliverReplyLocked(j *job, text string) {
	reply := c.opts.Dispatcher.Dispatch(text, c.pending)
	c.logger.Debug("rule matched", zap.String("rule", reply.Rule))

	msg := c.log.Append(domain.Message{
		Text:      reply.Text,
		Sender:    domain.SenderAssistant,
		CreatedAt: c.nowLocked(),
		Status:    reply.Status,
		ShowSlots: len(reply.TimeSlots) > 0,
		TimeSlots: reply.TimeSlots,
	})

	if date, ok := reply.Day.Resolve(c.opts.Now()); ok {
		c.selectedDate = &date
	}
	if reply.ClearPending {
		c.pending = false
	}
	if reply.FollowUp == FollowUpCalendarCheck {
		checkingID := msg.ID
		j.steps = append(j.steps, step{
			delay: c.opts.Delays.Calendar,
			run: func(*job) {
				c.completeCalendarCheckLocked(checkingID)
			},
		})
	}
}

// completeCalendarCheckLocked convierte el mensaje "checking" en "available" en su lugar,
// aunque el usuario haya escrito algo mientras tanto.
func (c *Conversation) completeCalendarCheckLocked(checkingID int) {
	upgrade := func(m domain.Message) domain.Message {
		m.Text = replyCheckingAvailable
		m.Status = domain.StatusAvailable
		m.ShowSlots = false
		m.TimeSlots = nil
		return m
	}
	var ok bool
	if last, found := c.log.Last(); found && last.ID == checkingID {
		_, ok = c.log.ReplaceLast(upgrade)
	} else {
		_, ok = c.log.UpgradeChecking(checkingID, upgrade)
	}
	if !ok {
		c.logger.Warn("checking message not found", zap.Int("message_id", checkingID))
		return
	}
	c.pending = true
}

// ClickSlot elige un horario del selector. messageID 0 significa el selector mas reciente.
// Horarios no disponibles o desconocidos se ignoran y devuelven false.
func (c *Conversation) ClickSlot(messageID int, label string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrConversationClosed
	}
	slot, ok := c.findSlotLocked(messageID, label)
	if !ok || !slot.Available {
		return false, nil
	}

	c.userInputLocked()
	c.selectedSlot = slot.Time
	at := slot.Time
	c.enqueueLocked(&job{
		name: "slot_check",
		steps: []step{
			{
				delay: c.opts.Delays.SlotAck,
				run: func(*job) {
					c.log.Append(domain.Message{
						Text:      fmt.Sprintf(slotCheckingText, at),
						Sender:    domain.SenderAssistant,
						CreatedAt: c.nowLocked(),
						Status:    domain.StatusChecking,
					})
				},
			},
			{
				delay: c.opts.Delays.Calendar,
				run: func(*job) {
					c.log.Append(domain.Message{
						Text:      fmt.Sprintf(slotAvailText, at),
						Sender:    domain.SenderAssistant,
						CreatedAt: c.nowLocked(),
						Status:    domain.StatusAvailable,
					})
					c.pending = true
				},
			},
		},
	})
	c.notifyLocked()
	return true, nil
}

func (c *Conversation) findSlotLocked(messageID int, label string) (domain.TimeSlot, bool) {
	label = strings.TrimSpace(label)
	if messageID != 0 {
		msg, ok := c.log.Find(messageID)
		if !ok || !msg.HasSlotPicker() {
			return domain.TimeSlot{}, false
		}
		return domain.FindSlot(msg.TimeSlots, label)
	}
	snap := domain.ConversationSnapshot{Messages: c.log.messages}
	return domain.FindSlot(snap.LatestSlots(), label)
}

// Accept confirma la cita desde la tarjeta. Sin tarjeta visible no hace nada.
func (c *Conversation) Accept() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrConversationClosed
	}
	if !c.pending {
		return false, nil
	}

	c.userInputLocked()
	c.log.Append(domain.Message{
		Text:      acceptText,
		Sender:    domain.SenderUser,
		CreatedAt: c.nowLocked(),
	})
	c.pending = false
	c.enqueueLocked(&job{
		name: "booking",
		steps: []step{{
			delay: c.opts.Delays.Booking,
			run: func(*job) {
				c.log.Append(domain.Message{
					Text:      replyBooked,
					Sender:    domain.SenderAssistant,
					CreatedAt: c.nowLocked(),
				})
			},
		}},
	})
	c.notifyLocked()
	return true, nil
}

// Decline cierra la tarjeta de confirmacion sin agregar mensajes.
func (c *Conversation) Decline() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrConversationClosed
	}
	if !c.pending {
		return false, nil
	}
	c.pending = false
	c.lastActivity = c.nowLocked()
	c.notifyLocked()
	return true, nil
}

// Subscribe entrega un snapshot en cada mutacion. El canal tiene buffer 1 y
// conserva solo el ultimo estado, asi un consumidor lento nunca bloquea.
func (c *Conversation) Subscribe() (<-chan domain.ConversationSnapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan domain.ConversationSnapshot, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	key := c.nextSub
	c.nextSub++
	c.subs[key] = ch
	ch <- c.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[key]; ok {
				delete(c.subs, key)
				close(sub)
			}
		})
	}
}

// Close detiene los timers pendientes y cierra los canales de suscripcion.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancelJobsLocked()
	for key, ch := range c.subs {
		delete(c.subs, key)
		close(ch)
	}
	c.logger.Info("conversation closed", zap.Int("messages", c.log.Len()))
}

func (c *Conversation) nowLocked() time.Time {
	return c.opts.Now().UTC()
}

// userInputLocked registra actividad y, con PolicyCancel, descarta trabajos pendientes.
func (c *Conversation) userInputLocked() {
	c.lastActivity = c.nowLocked()
	if c.opts.Policy == PolicyCancel {
		c.cancelJobsLocked()
	}
}

func (c *Conversation) cancelJobsLocked() {
	c.generation++
	for j := range c.active {
		if j.timer != nil {
			j.timer.Stop()
		}
		j.done = true
	}
	c.active = make(map[*job]struct{})
	c.queue = nil
	c.thinking = 0
}

func (c *Conversation) enqueueLocked(j *job) {
	j.generation = c.generation
	if c.opts.Policy == PolicyInterleave {
		c.startLocked(j)
		return
	}
	c.queue = append(c.queue, j)
	if len(c.queue) == 1 {
		c.startLocked(j)
		return
	}
	// En espera detras de otro trabajo el usuario igual ve que el asistente escribe.
	if len(j.steps) > 0 && j.steps[0].typing {
		c.thinking++
		j.typingHeld = true
	}
}

func (c *Conversation) startLocked(j *job) {
	c.active[j] = struct{}{}
	c.armLocked(j)
}

func (c *Conversation) armLocked(j *job) {
	if len(j.steps) == 0 {
		c.finishLocked(j)
		return
	}
	s := j.steps[0]
	if s.typing && !j.typingHeld {
		c.thinking++
	}
	j.typingHeld = false
	j.timer = c.opts.Scheduler.AfterFunc(s.delay, func() {
		c.fire(j)
	})
}

func (c *Conversation) fire(j *job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || j.done || j.generation != c.generation || len(j.steps) == 0 {
		return
	}
	s := j.steps[0]
	j.steps = j.steps[1:]
	if s.typing {
		c.thinking--
	}
	s.run(j)
	c.armLocked(j)
	c.notifyLocked()
}

func (c *Conversation) finishLocked(j *job) {
	j.done = true
	delete(c.active, j)
	if c.opts.Policy == PolicyInterleave {
		return
	}
	if len(c.queue) > 0 && c.queue[0] == j {
		c.queue = c.queue[1:]
		if len(c.queue) > 0 {
			c.startLocked(c.queue[0])
		}
	}
}

func (c *Conversation) notifyLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
