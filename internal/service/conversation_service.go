package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ConversationService mantiene en memoria las conversaciones abiertas. No hay persistencia:
// una conversacion vive hasta que se borra o queda inactiva mas de ttl.
type ConversationService struct {
	mu     sync.Mutex
	items  map[string]*Conversation
	opts   ConversationOptions
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

var (
	ErrConversationServiceNotConfigured = errors.New("conversation service not configured")
	ErrConversationNotFound             = errors.New("conversation not found")
	ErrConversationClosed               = errors.New("conversation closed")
)

func NewConversationService(logger *zap.Logger, opts ConversationOptions, ttl time.Duration) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = logger
	opts = opts.withDefaults()
	return &ConversationService{
		items:  make(map[string]*Conversation),
		opts:   opts,
		ttl:    ttl,
		now:    opts.Now,
		logger: logger,
	}
}

func (s *ConversationService) Create(ctx context.Context) (*Conversation, error) {
	if s == nil || s.items == nil {
		return nil, ErrConversationServiceNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conv := NewConversation(s.opts)

	s.mu.Lock()
	s.items[conv.ID()] = conv
	s.mu.Unlock()

	s.logger.Info("conversation created", zap.String("conversation_id", conv.ID()))
	return conv, nil
}

// Get devuelve la conversacion; si expiro la cierra y responde ErrConversationNotFound.
func (s *ConversationService) Get(ctx context.Context, id string) (*Conversation, error) {
	if s == nil || s.items == nil {
		return nil, ErrConversationServiceNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)

	s.mu.Lock()
	conv, ok := s.items[id]
	if ok && s.expiredLocked(conv) {
		delete(s.items, id)
		s.mu.Unlock()
		conv.Close()
		return nil, ErrConversationNotFound
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *ConversationService) Delete(ctx context.Context, id string) error {
	if s == nil || s.items == nil {
		return ErrConversationServiceNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)

	s.mu.Lock()
	conv, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if !ok {
		return ErrConversationNotFound
	}
	conv.Close()
	return nil
}

// Sweep cierra y elimina las conversaciones inactivas. Devuelve cuantas removio.
func (s *ConversationService) Sweep() int {
	if s == nil || s.items == nil {
		return 0
	}
	var expired []*Conversation

	s.mu.Lock()
	for id, conv := range s.items {
		if s.expiredLocked(conv) {
			delete(s.items, id)
			expired = append(expired, conv)
		}
	}
	s.mu.Unlock()

	for _, conv := range expired {
		conv.Close()
	}
	if len(expired) > 0 {
		s.logger.Info("expired conversations removed", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Len cuenta las conversaciones registradas.
func (s *ConversationService) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close cierra todas las conversaciones, usado al apagar el servidor.
func (s *ConversationService) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*Conversation)
	s.mu.Unlock()

	for _, conv := range items {
		conv.Close()
	}
}

func (s *ConversationService) expiredLocked(conv *Conversation) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().UTC().After(conv.LastActivity().Add(s.ttl))
}
