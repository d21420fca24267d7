// Package payment talks to the hosted payment provider used for online checkout.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUpstream wraps every failure to obtain a captured payment.
var ErrUpstream = errors.New("payment upstream")

const CurrencyINR = "INR"

type Request struct {
	Amount   int64 // minor units (paise)
	Currency string
	Receipt  string
	Name     string
	Contact  string
}

// Result is the proof of a captured payment. The server checks Signature
// against its own key before trusting it.
type Result struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

type Gateway interface {
	Pay(ctx context.Context, req Request) (*Result, error)
}

// MinorUnits converts a rupee amount to paise, rounding half away from zero.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Sign is the provider's signature scheme: hex HMAC-SHA256 of "orderId|paymentId".
func Sign(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func Verify(secret string, r Result) bool {
	if secret == "" || r.GatewayOrderID == "" || r.PaymentID == "" || r.Signature == "" {
		return false
	}
	want := Sign(secret, r.GatewayOrderID, r.PaymentID)
	return hmac.Equal([]byte(want), []byte(r.Signature))
}
