package models

type CheckoutRequest struct {
	Plan PlanType `json:"plan" validate:"required,oneof=single pack"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type PaymentVerification struct {
	Paid        bool     `json:"paid"`
	SessionID   string   `json:"session_id"`
	Email       string   `json:"email"`
	Plan        PlanType `json:"plan"`
	FilmsTotal  int      `json:"films_total"`
	AmountTotal int64    `json:"amount_total"`
	Currency    string   `json:"currency"`
}
