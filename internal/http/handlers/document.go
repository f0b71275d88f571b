package handlers

import (
	"time"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

// featureUsageDTO is one feature's metering state as presented to clients.
type featureUsageDTO struct {
	Feature   string     `json:"feature"`
	Premium   bool       `json:"premium"`
	Used      int        `json:"used"`
	Limit     int        `json:"limit"`
	LastReset *time.Time `json:"last_reset,omitempty"`
}

// accountDocument is the live account snapshot: returned by /v1/me and
// pushed over the watch stream after every state change.
type accountDocument struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	DisplayName string            `json:"display_name"`
	Locale      string            `json:"locale"`
	Plan        string            `json:"plan"`
	Status      string            `json:"subscription_status"`
	Usage       []featureUsageDTO `json:"usage"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func buildAccountDocument(account *domain.Account, usage []domain.UsageRecord, limit int) accountDocument {
	doc := accountDocument{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Locale:      account.Locale,
		Plan:        account.Subscription.Plan,
		Status:      string(account.Subscription.Status),
		UpdatedAt:   account.UpdatedAt,
	}
	for _, rec := range usage {
		dto := featureUsageDTO{
			Feature: string(rec.Feature),
			Premium: rec.Feature.Premium(),
			Used:    rec.Count,
			Limit:   limit,
		}
		if !rec.LastReset.IsZero() {
			t := rec.LastReset
			dto.LastReset = &t
		}
		doc.Usage = append(doc.Usage, dto)
	}
	return doc
}
