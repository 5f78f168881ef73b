package dto

type AssistantAskRequest struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
}

type AssistantAskResponse struct {
	Answer string `json:"answer"`
}
