package domain

type OrderDrafted struct {
	Code          string `json:"code"`
	CustomerID    int64  `json:"customer_id"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

type OrderConfirmed struct {
	Code       string `json:"code"`
	CustomerID int64  `json:"customer_id"`
	TotalCents int64  `json:"total_cents"`
}

type PaymentApproved struct {
	Code       string `json:"code"`
	ExternalID string `json:"external_id"`
}
