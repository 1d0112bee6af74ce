package toss

import "time"

// Payment is the subset of the Toss Payment object the adapter reads.
type Payment struct {
	PaymentKey         string                 `json:"paymentKey"`
	OrderID            string                 `json:"orderId"`
	OrderName          string                 `json:"orderName"`
	Status             string                 `json:"status"`
	Method             string                 `json:"method"`
	TotalAmount        int64                  `json:"totalAmount"`
	BalanceAmount      int64                  `json:"balanceAmount"`
	LastTransactionKey string                 `json:"lastTransactionKey"`
	ApprovedAt         string                 `json:"approvedAt"`
	Metadata           map[string]interface{} `json:"metadata"`
	Checkout           *struct {
		URL string `json:"url"`
	} `json:"checkout"`
	Cancels []Cancel `json:"cancels"`
}

type Cancel struct {
	TransactionKey string `json:"transactionKey"`
	CancelReason   string `json:"cancelReason"`
	CancelAmount   int64  `json:"cancelAmount"`
	CancelStatus   string `json:"cancelStatus"`
	CanceledAt     string `json:"canceledAt"`
}

// WebhookPayload is the PAYMENT_STATUS_CHANGED delivery body.
type WebhookPayload struct {
	EventType string  `json:"eventType"`
	CreatedAt string  `json:"createdAt"`
	Data      Payment `json:"data"`
}

type IssueBillingKeyRequest struct {
	AuthKey     string `json:"authKey"`
	CustomerKey string `json:"customerKey"`
}

type IssueBillingKeyResponse struct {
	MID             string `json:"mId"`
	CustomerKey     string `json:"customerKey"`
	AuthenticatedAt string `json:"authenticatedAt"`
	Method          string `json:"method"`
	BillingKey      string `json:"billingKey"`
	CardCompany     string `json:"cardCompany"`
	CardNumber      string `json:"cardNumber"`
}

type ChargeBillingKeyRequest struct {
	BillingKey    string `json:"-"`
	CustomerKey   string `json:"customerKey"`
	Amount        int64  `json:"amount"`
	OrderID       string `json:"orderId"`
	OrderName     string `json:"orderName"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

type ChargeBillingKeyResponse struct {
	PaymentKey     string
	OrderID        string
	Status         string
	Amount         int64
	TransactionKey string
	ApprovedAt     *time.Time
}
