package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ChatApology replaces the assistant reply whenever a follow-up fails.
const ChatApology = "I'm sorry, I encountered an error. Please try again."

// Chat answers follow-up questions about a session's plan. Every question is
// answered against the plan alone; earlier turns are not sent.
type Chat struct {
	generator TextGenerator
	logger    *slog.Logger
}

func NewChat(generator TextGenerator, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chat{generator: generator, logger: logger}
}

func BuildChatPrompt(plan, question string) string {
	return fmt.Sprintf("You are a travel assistant. Based on this trip plan:\n\n%s\n\nUser question: %s\n\nProvide a helpful response.", plan, question)
}

// Ask is a no-op for a blank question. Otherwise the user message is appended
// at once and the turn resolves with either the reply or ChatApology.
func (c *Chat) Ask(ctx context.Context, s *Session, creds CredentialProvider, question string) (ViewState, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return s.Snapshot(), nil
	}

	turn, err := s.beginChat(question)
	if err != nil {
		return s.Snapshot(), err
	}

	reply, err := c.answer(ctx, creds, turn.plan, turn.question)
	if err != nil {
		c.logger.ErrorContext(ctx, "Chat follow-up failed",
			slog.String("session_id", s.ID()),
			slog.String("vendor", c.generator.Name()),
			slog.Any("error", err))
		reply = ChatApology
	}
	turn.resolve(reply)

	return s.Snapshot(), nil
}

func (c *Chat) answer(ctx context.Context, creds CredentialProvider, plan, question string) (string, error) {
	key, err := requireKey(ctx, creds, c.generator.KeyName())
	if err != nil {
		return "", err
	}
	return c.generator.Generate(ctx, key, BuildChatPrompt(plan, question))
}
