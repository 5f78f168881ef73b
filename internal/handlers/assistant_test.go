package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/models"
)

type fakeContextSvc struct {
	fctx dto.FinancialContext
}

func (f *fakeContextSvc) BuildContext(snap dto.Snapshot) dto.FinancialContext { return f.fctx }

type fakeAssistantSvc struct {
	answer  string
	err     error
	gotAsk  struct {
		uid, sessionID, question string
		fctx                     dto.FinancialContext
	}
	history []models.AssistantMessage
}

func (f *fakeAssistantSvc) Ask(ctx context.Context, uid, sessionID, question string, fctx dto.FinancialContext) (dto.AssistantAskResponse, string, error) {
	f.gotAsk.uid = uid
	f.gotAsk.sessionID = sessionID
	f.gotAsk.question = question
	f.gotAsk.fctx = fctx
	if sessionID == "" {
		sessionID = "minted-session"
	}
	return dto.AssistantAskResponse{Answer: f.answer}, sessionID, f.err
}

func (f *fakeAssistantSvc) History(ctx context.Context, uid, sessionID string, limit int) ([]models.AssistantMessage, error) {
	return f.history, f.err
}

func newTestAssistantHandler(session *fakeSession, svc *fakeAssistantSvc, fctx dto.FinancialContext) *assistantHandlers {
	deps := testDeps(session)
	deps.ContextSvc = &fakeContextSvc{fctx: fctx}
	deps.AssistantSvc = svc
	return NewAssistantHandlers(deps)
}

func TestAskHandler(t *testing.T) {
	svc := &fakeAssistantSvc{answer: "You spent $75.50 on groceries."}
	fctx := dto.FinancialContext{TopCategory: "Groceries", TopCategoryAmount: 75.50}
	h := newTestAssistantHandler(&fakeSession{}, svc, fctx)

	rr := doRequest(h.AssistantRoutes(), http.MethodPost, "/ask",
		dto.AssistantAskRequest{Question: "How much on groceries?"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	if svc.gotAsk.uid != "uid-123" || svc.gotAsk.question != "How much on groceries?" {
		t.Fatalf("ask not forwarded: %+v", svc.gotAsk)
	}
	if svc.gotAsk.fctx.TopCategory != "Groceries" {
		t.Fatal("financial context must be built from the session snapshot")
	}

	var envelope struct {
		Data struct {
			Answer    string `json:"answer"`
			SessionID string `json:"sessionId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if envelope.Data.Answer != svc.answer || envelope.Data.SessionID != "minted-session" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestAskHandlerEmptyQuestion(t *testing.T) {
	svc := &fakeAssistantSvc{err: errs.NewValidationError("question is required")}
	h := newTestAssistantHandler(&fakeSession{}, svc, dto.FinancialContext{})

	rr := doRequest(h.AssistantRoutes(), http.MethodPost, "/ask", dto.AssistantAskRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestHistoryHandler(t *testing.T) {
	svc := &fakeAssistantSvc{history: []models.AssistantMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}}
	h := newTestAssistantHandler(&fakeSession{}, svc, dto.FinancialContext{})

	rr := doRequest(h.AssistantRoutes(), http.MethodGet, "/history?sessionId=s1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var envelope struct {
		Data []models.AssistantMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("unexpected history: %+v", envelope.Data)
	}
}

func TestHistoryHandlerBadLimit(t *testing.T) {
	h := newTestAssistantHandler(&fakeSession{}, &fakeAssistantSvc{}, dto.FinancialContext{})
	rr := doRequest(h.AssistantRoutes(), http.MethodGet, "/history?sessionId=s1&limit=zero", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
