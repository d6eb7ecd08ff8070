package models

import (
	"strings"
	"time"
)

// Customer sectors. The sector scopes which FAQ entries apply and which
// win-back offers a customer receives.
const (
	SectorFinance   = "finanza"
	SectorSport     = "sport"
	SectorCoworking = "coworking"
	SectorGeneric   = "generico"
)

// Customer lifecycle states.
const (
	StatusActive   = "attivo"
	StatusInactive = "inattivo"
	StatusBlocked  = "blocked"
)

// Customer represents a WhatsApp contact known to the bot
type Customer struct {
	ID              int64     `json:"id"`
	Phone           string    `json:"phone"`
	Name            string    `json:"nome"`
	Company         string    `json:"azienda"`
	Sector          string    `json:"settore"`
	Email           string    `json:"email"`
	Tags            []string  `json:"etichette"`
	Notes           string    `json:"note"`
	MessageCount    int       `json:"numero_messaggi"`
	Status          string    `json:"stato"`
	CreatedAt       time.Time `json:"data_creazione"`
	LastInteraction time.Time `json:"ultima_interazione"`
}

// NormalizePhone returns the canonical form of a phone identifier:
// a leading "+" followed by digits. Meta delivers wa_id without the plus.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}
