package service

import (
	"testing"
	"time"

	"tailortalk/internal/domain"
)

func TestMessageLogUpgradeChecking(t *testing.T) {
	created := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	log := newMessageLog()
	checking := log.Append(domain.Message{Text: "checking", Sender: domain.SenderAssistant, CreatedAt: created, Status: domain.StatusChecking})
	log.Append(domain.Message{Text: "thanks", Sender: domain.SenderUser})

	toAvailable := func(m domain.Message) domain.Message {
		m.Text = "available"
		m.Status = domain.StatusAvailable
		m.ID = 99
		m.Sender = domain.SenderUser
		return m
	}

	got, ok := log.UpgradeChecking(checking.ID, toAvailable)
	if !ok {
		t.Fatalf("expected upgrade of message %d", checking.ID)
	}
	if got.ID != checking.ID || got.Sender != domain.SenderAssistant || !got.CreatedAt.Equal(created) {
		t.Fatalf("upgrade must keep identity fields, got %+v", got)
	}
	if stored, _ := log.Find(checking.ID); stored.Status != domain.StatusAvailable || stored.Text != "available" {
		t.Fatalf("expected stored message upgraded, got %+v", stored)
	}
	if last, _ := log.Last(); last.Text != "thanks" || log.Len() != 2 {
		t.Fatalf("other messages must stay untouched")
	}

	if _, ok := log.UpgradeChecking(checking.ID, toAvailable); ok {
		t.Fatalf("already upgraded message must be rejected")
	}
	if _, ok := log.UpgradeChecking(2, toAvailable); ok {
		t.Fatalf("message without checking status must be rejected")
	}
	if _, ok := log.UpgradeChecking(42, toAvailable); ok {
		t.Fatalf("unknown id must be rejected")
	}
}

func TestMessageLogAppendAndReplaceLast(t *testing.T) {
	log := newMessageLog()
	if _, ok := log.ReplaceLast(func(m domain.Message) domain.Message { return m }); ok {
		t.Fatalf("replace on empty log must fail")
	}
	first := log.Append(domain.Message{Text: "a"})
	second := log.Append(domain.Message{Text: "b"})
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	got, ok := log.ReplaceLast(func(m domain.Message) domain.Message {
		m.Text = "c"
		m.ID = 7
		return m
	})
	if !ok || got.ID != 2 || got.Text != "c" {
		t.Fatalf("expected last replaced keeping id, got %+v", got)
	}
}
