package provider

// PaymentResult is the normalized outcome of CreatePayment and ConfirmPayment.
type PaymentResult struct {
	Success           bool   `json:"success"`
	ProviderPaymentID string `json:"provider_payment_id,omitempty"`
	// ClientSecret is handed to the browser to finish payment client-side.
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"status,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	// RedirectURL is set by gateways with a hosted payment page.
	RedirectURL  string                 `json:"redirect_url,omitempty"`
	ProviderData map[string]interface{} `json:"provider_data,omitempty"`
}

// RefundResult is the normalized outcome of CreateRefund.
type RefundResult struct {
	Success          bool   `json:"success"`
	ProviderRefundID string `json:"provider_refund_id,omitempty"`
	// Amount is in minor currency units.
	Amount       *int64 `json:"amount,omitempty"`
	Status       string `json:"status,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// WebhookResult is the normalized outcome of HandleWebhook.
type WebhookResult struct {
	Success   bool   `json:"success"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	// PaymentID is the host payment id echoed back through gateway metadata:
	// int64 when numeric, the raw string otherwise, nil when absent.
	PaymentID interface{} `json:"payment_id,omitempty"`
	// ShouldRetry tells the gateway to redeliver (transient failure).
	ShouldRetry  bool   `json:"should_retry"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func PaymentFailed(msg string) *PaymentResult {
	return &PaymentResult{Success: false, ErrorMessage: msg}
}

func RefundFailed(msg string) *RefundResult {
	return &RefundResult{Success: false, ErrorMessage: msg}
}

func WebhookFailed(msg string, retry bool) *WebhookResult {
	return &WebhookResult{Success: false, ErrorMessage: msg, ShouldRetry: retry}
}
