package utils

import (
	"fmt"
	"log"

	"github.com/keighl/postmark"

	"go-storefront/models"
)

// Mailer sends transactional mail. Checkout uses it for order confirmations.
type Mailer interface {
	SendOrderConfirmation(toEmail string, order models.Order) error
}

// PostmarkMailer sends mail through Postmark.
type PostmarkMailer struct {
	client *postmark.Client
	sender string
}

// NewPostmarkMailer creates a Mailer backed by Postmark.
func NewPostmarkMailer(apiToken, sender string) *PostmarkMailer {
	return &PostmarkMailer{
		client: postmark.NewClient(apiToken, ""),
		sender: sender,
	}
}

// SendOrderConfirmation emails the customer that their order was placed.
func (m *PostmarkMailer) SendOrderConfirmation(toEmail string, order models.Order) error {
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Thank you for your purchase! Your order (ID: %s) has been placed successfully.<br><br>Total Amount: <strong>$%.2f</strong><br><br>Thank you for shopping with us!",
		order.ID.Hex(),
		float64(order.AmountCents)/100,
	)

	_, err := m.client.SendEmail(postmark.Email{
		From:     m.sender,
		To:       toEmail,
		Subject:  "Order Confirmation",
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopMailer is used when no mail credentials are configured.
type NoopMailer struct{}

func (NoopMailer) SendOrderConfirmation(toEmail string, order models.Order) error {
	log.Printf("mail disabled: skipping order confirmation for %s (order %s)", toEmail, order.ID.Hex())
	return nil
}
