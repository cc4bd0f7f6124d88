package smsgateway

// SendRequest — тело запроса на отправку SMS.
type SendRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
}

// SendResponse — ответ шлюза на отправку SMS.
type SendResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}
