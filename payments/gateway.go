package payments

//go:generate mockgen -source=gateway.go -destination=mocks/mock_gateway.go -package=mocks

import "context"

// Gateway abstracts the external payment provider. The booking flow only
// consumes the outcome of signature verification, never the algorithm.
type Gateway interface {
	// CreateOrder registers an order for amount (major currency units) and returns the provider order id
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error)
	// VerifySignature reports whether signature was issued by the provider for orderID/paymentID
	VerifySignature(orderID, paymentID, signature string) bool
	// KeyID is the public key handed to checkout clients
	KeyID() string
}
