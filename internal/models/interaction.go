package models

import "time"

// How an outbound reply was produced.
const (
	ResponseTypeFAQ        = "faq"
	ResponseTypePerplexity = "perplexity"
)

// Interaction is one inbound/outbound exchange with a customer.
// Records are append-only; the retention job purges old ones.
type Interaction struct {
	ID            int64     `json:"id"`
	CustomerPhone string    `json:"cliente_phone"`
	Inbound       string    `json:"testo_cliente"`
	Outbound      string    `json:"testo_risposta"`
	ResponseType  string    `json:"tipo_risposta"`
	CreatedAt     time.Time `json:"data_messaggio"`
}
