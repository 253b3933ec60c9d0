package resume

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Payment is the checkout proof returned by the payment gateway
type Payment struct {
	OrderID   string `json:"orderId" validate:"max=100"`
	PaymentID string `json:"paymentId" validate:"max=100"`
	Signature string `json:"signature" validate:"max=200"`
}

// Signature returns hex(HMAC-SHA256(secret, orderID|paymentID))
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment reports whether p was signed with secret. A missing proof or
// an unset secret never verifies.
func VerifyPayment(secret string, p *Payment) bool {
	if p == nil || secret == "" || p.OrderID == "" || p.PaymentID == "" || p.Signature == "" {
		return false
	}
	expected := Signature(secret, p.OrderID, p.PaymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(p.Signature)))
}
