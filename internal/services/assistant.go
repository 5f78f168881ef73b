package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

const assistantSystemPrompt = "You are a personal-finance assistant. Answer using only the " +
	"financial context provided with each question. Be concise and concrete; " +
	"if the context cannot answer the question, say so."

type vertexGenerator interface {
	GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error)
}

type assistantMessageStore interface {
	SaveMessage(ctx context.Context, uid, sessionID string, msg models.AssistantMessage) error
	ListMessages(ctx context.Context, uid, sessionID string, limit int) ([]models.AssistantMessage, error)
}

type assistantService struct {
	vertex   vertexGenerator
	messages assistantMessageStore
	clockNow func() time.Time
}

func NewAssistantService(vertex vertexGenerator, messages assistantMessageStore) *assistantService {
	return &assistantService{
		vertex:   vertex,
		messages: messages,
		clockNow: time.Now,
	}
}

// Ask answers one question grounded in the caller-supplied financial
// context. The context is serialized verbatim; no further prompt shaping
// happens here.
func (s *assistantService) Ask(ctx context.Context, uid, sessionID, question string, fctx dto.FinancialContext) (dto.AssistantAskResponse, string, error) {
	out := dto.AssistantAskResponse{}
	if question == "" {
		return out, sessionID, errs.NewValidationError("question is required")
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	log := logger.FromContext(ctx)
	now := s.clockNow()

	if err := s.messages.SaveMessage(ctx, uid, sessionID, models.AssistantMessage{
		Role:      "user",
		Content:   question,
		CreatedAt: now,
	}); err != nil {
		log.Warn("failed to save user message", "error", err)
	}

	contextJSON, err := json.Marshal(fctx)
	if err != nil {
		return out, sessionID, err
	}

	resp, err := s.vertex.GenerateContent(ctx, dto.VertexGenerateRequest{
		System:      assistantSystemPrompt,
		UserMessage: "Financial context:\n" + string(contextJSON) + "\n\nQuestion: " + question,
	})
	if err != nil {
		return out, sessionID, err
	}

	if err := s.messages.SaveMessage(ctx, uid, sessionID, models.AssistantMessage{
		Role:      "assistant",
		Content:   resp.Text,
		CreatedAt: s.clockNow(),
	}); err != nil {
		log.Warn("failed to save assistant message", "error", err)
	}

	out.Answer = resp.Text
	return out, sessionID, nil
}

// History returns the newest messages first.
func (s *assistantService) History(ctx context.Context, uid, sessionID string, limit int) ([]models.AssistantMessage, error) {
	if sessionID == "" {
		return nil, errs.NewValidationError("sessionId is required")
	}
	return s.messages.ListMessages(ctx, uid, sessionID, limit)
}
