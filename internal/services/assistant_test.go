package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/pkg/helpers"
)

type fakeVertex struct {
	lastReq dto.VertexGenerateRequest
	text    string
	err     error
}

func (f *fakeVertex) GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error) {
	f.lastReq = req
	return dto.VertexGenerateResponse{Text: f.text}, f.err
}

type fakeMessageStore struct {
	saved   []models.AssistantMessage
	saveErr error
	listed  []models.AssistantMessage
}

func (f *fakeMessageStore) SaveMessage(ctx context.Context, uid, sessionID string, msg models.AssistantMessage) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, msg)
	return nil
}

func (f *fakeMessageStore) ListMessages(ctx context.Context, uid, sessionID string, limit int) ([]models.AssistantMessage, error) {
	return f.listed, nil
}

func TestAssistantAsk(t *testing.T) {
	vertex := &fakeVertex{text: "You spent $75.50 on groceries."}
	store := &fakeMessageStore{}
	svc := NewAssistantService(vertex, store)
	svc.clockNow = func() time.Time { return testNow }

	fctx := dto.FinancialContext{TotalBalance: 750.00, TopCategory: "Groceries", TopCategoryAmount: 75.50}

	resp, sessionID, err := svc.Ask(helpers.TestCtx(), "uid-1", "", "How much did I spend on groceries?", fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != vertex.text {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if sessionID == "" {
		t.Fatal("a session id must be minted when none is given")
	}

	if !strings.Contains(vertex.lastReq.UserMessage, "Groceries") {
		t.Fatal("financial context must be serialized into the prompt")
	}
	if !strings.Contains(vertex.lastReq.UserMessage, "How much did I spend on groceries?") {
		t.Fatal("question must reach the model")
	}

	if len(store.saved) != 2 || store.saved[0].Role != "user" || store.saved[1].Role != "assistant" {
		t.Fatalf("expected user then assistant message saved, got %+v", store.saved)
	}
}

func TestAssistantAskEmptyQuestion(t *testing.T) {
	svc := NewAssistantService(&fakeVertex{}, &fakeMessageStore{})
	_, _, err := svc.Ask(helpers.TestCtx(), "uid-1", "s1", "", dto.FinancialContext{})
	if _, ok := err.(*errs.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T (%v)", err, err)
	}
}

func TestAssistantAskModelFailure(t *testing.T) {
	vertex := &fakeVertex{err: errors.New("vertex unavailable")}
	store := &fakeMessageStore{}
	svc := NewAssistantService(vertex, store)

	_, _, err := svc.Ask(helpers.TestCtx(), "uid-1", "s1", "anything", dto.FinancialContext{})
	if err == nil {
		t.Fatal("model failure must surface")
	}
	if len(store.saved) != 1 {
		t.Fatalf("only the user message should be saved on failure, got %d", len(store.saved))
	}
}

func TestAssistantAskKeepsSessionID(t *testing.T) {
	svc := NewAssistantService(&fakeVertex{text: "ok"}, &fakeMessageStore{})
	_, sessionID, err := svc.Ask(helpers.TestCtx(), "uid-1", "session-42", "hi", dto.FinancialContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sessionID != "session-42" {
		t.Fatalf("session id must be preserved, got %q", sessionID)
	}
}

func TestAssistantHistoryRequiresSession(t *testing.T) {
	svc := NewAssistantService(&fakeVertex{}, &fakeMessageStore{})
	_, err := svc.History(helpers.TestCtx(), "uid-1", "", 10)
	if _, ok := err.(*errs.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T (%v)", err, err)
	}
}
