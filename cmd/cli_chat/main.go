package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tailortalk/internal/config"
	"tailortalk/internal/render"
	"tailortalk/internal/service"
	"tailortalk/internal/tui"
)

func main() {
	plain := flag.Bool("plain", false, "modo linea a linea sin pantalla completa")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	policy, err := service.ParseDeliveryPolicy(cfg.DeliveryPolicy)
	if err != nil {
		log.Fatal(err)
	}

	conv := service.NewConversation(service.ConversationOptions{
		Delays: service.Delays{
			Thinking: cfg.ThinkingDelay,
			Calendar: cfg.CalendarDelay,
			SlotAck:  cfg.SlotAckDelay,
			Booking:  cfg.BookingDelay,
		},
		Policy: policy,
		Logger: logger,
	})
	defer conv.Close()

	logger.Info("conversation started", zap.String("conversation_id", conv.ID()))

	if *plain {
		runPlain(conv, logger)
		return
	}

	program := tea.NewProgram(tui.New(conv, logger, time.Now), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("tui: %v", err)
	}
}

// newLogger escribe a archivo para no ensuciar la terminal; sin archivo no loguea.
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

// runPlain es el modo REPL: cada snapshot se imprime completo.
// "/slot 2:00 PM" elige un horario; "y" y "n" responden la tarjeta de confirmacion.
func runPlain(conv *service.Conversation, logger *zap.Logger) {
	updates, unsubscribe := conv.Subscribe()
	defer unsubscribe()

	go func() {
		for snap := range updates {
			fmt.Println(render.View(snap, time.Now(), render.Options{Width: 80}))
			fmt.Println(strings.Repeat("-", 80))
		}
	}()

	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		pending := conv.Snapshot().PendingConfirmation

		var accepted bool
		switch {
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/slot "):
			accepted, err = conv.ClickSlot(0, strings.TrimSpace(strings.TrimPrefix(line, "/slot ")))
		case pending && strings.EqualFold(line, "y"):
			accepted, err = conv.Accept()
		case pending && strings.EqualFold(line, "n"):
			accepted, err = conv.Decline()
		default:
			accepted, err = conv.Send(line)
		}
		if err != nil {
			logger.Warn("input failed", zap.Error(err))
			return
		}
		if !accepted {
			logger.Debug("input ignored", zap.String("input", line))
		}
	}
}
