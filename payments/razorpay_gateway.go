package payments

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/razorpay/razorpay-go"
	rzputils "github.com/razorpay/razorpay-go/utils"
	"go.uber.org/zap"

	"boltnexus/config"
	"boltnexus/utils"
)

var ErrGatewayNotConfigured = errors.New("razorpay gateway not configured")

type RazorpayGateway struct {
	client   *razorpay.Client
	keyID    string
	secret   string
	mockMode bool
}

// NewRazorpayGateway builds a live gateway, or a simulated one when mock is set.
// Simulated orders get synthetic ids and every signature is accepted. A live
// gateway needs real credentials; the placeholder key is refused.
func NewRazorpayGateway(keyID, secret string, mock bool) (*RazorpayGateway, error) {
	log := utils.GetLoggerWith(utils.LoggerNamePayment)

	if mock {
		log.Warn("Payment gateway running in mock mode")
		return &RazorpayGateway{keyID: keyID, secret: secret, mockMode: true}, nil
	}

	if keyID == "" || secret == "" || keyID == config.PlaceholderRazorpayKeyID {
		return nil, ErrGatewayNotConfigured
	}

	log.Info("Razorpay client initialized", zap.String("key_id", keyID))
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, secret),
		keyID:  keyID,
		secret: secret,
	}, nil
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (string, error) {
	log := utils.GetLoggerWith(utils.LoggerNamePayment)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if g.mockMode {
		orderID := fmt.Sprintf("order_%s_%s", receipt, uuid.NewString()[:8])
		log.Info("Mock order created", zap.String("order_id", orderID), zap.Float64("amount", amount))
		return orderID, nil
	}

	if g.client == nil {
		return "", ErrGatewayNotConfigured
	}

	// Razorpay takes the smallest currency unit
	data := map[string]interface{}{
		"amount":   int64(math.Round(amount * 100)),
		"currency": currency,
		"receipt":  receipt,
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		log.Error("Razorpay order creation error", zap.Error(err))
		return "", fmt.Errorf("create razorpay order: %w", err)
	}

	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return "", errors.New("razorpay order response has no id")
	}

	log.Info("Razorpay order created", zap.String("order_id", orderID), zap.String("receipt", receipt))
	return orderID, nil
}

func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if g.mockMode {
		return true
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return rzputils.VerifyPaymentSignature(params, signature, g.secret)
}
