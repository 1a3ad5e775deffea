package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-storefront/models"
)

func addToCart(t *testing.T, ts *testServer, token string, itemID, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		rec := ts.do(t, http.MethodPost, "/addtocart", token, models.CartItemRequest{ItemID: itemID}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func createIntent(t *testing.T, ts *testServer, token string, amount int64) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/create-payment-intent", token,
		models.PaymentIntentRequest{Amount: amount}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ClientSecret string `json:"clientSecret"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.ClientSecret)
	return resp.ClientSecret
}

func TestCreatePaymentIntentComputesCartTotal(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, 1, "tee", 10)
	token := ts.signup(t, "alice", "alice@example.com", "hunter22")
	addToCart(t, ts, token, 1, 3)

	// The client-supplied amount is ignored for authenticated checkouts:
	// the charge is qty 3 × price 10.00 = 3000 cents, from live state.
	secret := createIntent(t, ts, token, 999)
	assert.Equal(t, "pi_1_secret", secret)

	require.Len(t, ts.payments.created, 1)
	assert.Equal(t, int64(3000), ts.payments.created[0].Amount)
	assert.Equal(t, "usd", ts.payments.created[0].Currency)
	assert.NotEmpty(t, ts.payments.created[0].IdempotencyKey)
}

func TestCreatePaymentIntentSkipsMissingProducts(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, 1, "tee", 10)
	token := ts.signup(t, "alice", "alice@example.com", "hunter22")
	addToCart(t, ts, token, 1, 2)
	addToCart(t, ts, token, 99, 1) // not in the catalog

	createIntent(t, ts, token, 0)
	require.Len(t, ts.payments.created, 1)
	assert.Equal(t, int64(2000), ts.payments.created[0].Amount)
}

func TestCreatePaymentIntentRelaysAmountWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	createIntent(t, ts, "", 4200)
	require.Len(t, ts.payments.created, 1)
	assert.Equal(t, int64(4200), ts.payments.created[0].Amount)
}

func TestCreatePaymentIntentZeroAmountPermitted(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "alice", "alice@example.com", "hunter22")

	// Empty cart: a zero-amount intent request is still accepted.
	createIntent(t, ts, token, 0)
	require.Len(t, ts.payments.created, 1)
	assert.Equal(t, int64(0), ts.payments.created[0].Amount)
}

func TestCreatePaymentIntentNegativeAmountRejected(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/create-payment-intent", "",
		models.PaymentIntentRequest{Amount: -100}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.payments.created)
}

func TestCreatePaymentIntentInvalidTokenRejected(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/create-payment-intent", "garbage",
		models.PaymentIntentRequest{Amount: 100}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.payments.created)
}

func TestConfirmPaymentSucceeded(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, 1, "tee", 10)
	token := ts.signup(t, "alice", "alice@example.com", "hunter22")
	addToCart(t, ts, token, 1, 3)

	createIntent(t, ts, token, 0)
	ts.payments.succeed("pi_1")

	rec := ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool         `json:"success"`
		Order   models.Order `json:"order"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, models.OrderStatusSucceeded, resp.Order.Status)
	assert.Equal(t, int64(3000), resp.Order.AmountCents)
	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, 1, resp.Order.Items[0].ProductID)
	assert.Equal(t, 3, resp.Order.Items[0].Quantity)

	// The cart is cleared once the order is placed.
	rec = ts.do(t, http.MethodPost, "/getcart", token, struct{}{}, nil)
	var cart map[string]int
	decodeBody(t, rec, &cart)
	assert.Empty(t, cart)

	// Confirmation mail went out to the customer.
	require.Len(t, ts.mailer.sent, 1)
	assert.Equal(t, "alice@example.com", ts.mailer.sent[0].To)
	assert.Equal(t, int64(3000), ts.mailer.sent[0].Order.AmountCents)
}

func TestConfirmPaymentFailed(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, 1, "tee", 10)
	token := ts.signup(t, "alice", "alice@example.com", "hunter22")
	addToCart(t, ts, token, 1, 2)

	createIntent(t, ts, token, 0)
	ts.payments.fail("pi_1", "Your card was declined.")

	rec := ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Order   models.Order `json:"order"`
	}
	decodeBody(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "Your card was declined.", resp.Message)
	assert.Equal(t, models.OrderStatusFailed, resp.Order.Status)

	// The cart is untouched so the user can retry with a new intent.
	rec = ts.do(t, http.MethodPost, "/getcart", token, struct{}{}, nil)
	var cart map[string]int
	decodeBody(t, rec, &cart)
	assert.Equal(t, 2, cart["1"])
	assert.Empty(t, ts.mailer.sent)

	// Retrying opens a fresh intent that can still succeed.
	createIntent(t, ts, token, 0)
	ts.payments.succeed("pi_2")
	rec = ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_2"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
}

func TestConfirmPaymentReplayDoesNotRepeatSideEffects(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, 1, "tee", 10)
	token := ts.signup(t, "alice", "alice@example.com", "hunter22")
	addToCart(t, ts, token, 1, 3)

	createIntent(t, ts, token, 0)
	ts.payments.succeed("pi_1")

	rec := ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The user starts a new basket after the order went through.
	addToCart(t, ts, token, 1, 3)

	// A retried confirmation of the settled order reports the stored
	// outcome and repeats none of the side effects.
	rec = ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool         `json:"success"`
		Order   models.Order `json:"order"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, models.OrderStatusSucceeded, resp.Order.Status)

	// The new basket survives the replay.
	rec = ts.do(t, http.MethodPost, "/getcart", token, struct{}{}, nil)
	var cart map[string]int
	decodeBody(t, rec, &cart)
	assert.Equal(t, 3, cart["1"])

	// Only one confirmation mail ever went out.
	assert.Len(t, ts.mailer.sent, 1)
}

func TestConfirmPaymentReplayAfterFailureStaysFailed(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, 1, "tee", 10)
	token := ts.signup(t, "alice", "alice@example.com", "hunter22")
	addToCart(t, ts, token, 1, 2)

	createIntent(t, ts, token, 0)
	ts.payments.fail("pi_1", "Your card was declined.")

	rec := ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Failed is terminal: even if the processor later reports success for
	// the same intent, the settled order keeps its outcome. Retrying goes
	// through a fresh intent.
	ts.payments.succeed("pi_1")
	rec = ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Order   models.Order `json:"order"`
	}
	decodeBody(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, models.OrderStatusFailed, resp.Order.Status)
	assert.Equal(t, "Your card was declined.", resp.Message)
	assert.Empty(t, ts.mailer.sent)
}

func TestConfirmPaymentInFlightStatusKeepsOrderPending(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, 1, "tee", 10)
	token := ts.signup(t, "alice", "alice@example.com", "hunter22")
	addToCart(t, ts, token, 1, 2)

	createIntent(t, ts, token, 0)
	ts.payments.setStatus("pi_1", "processing")

	rec := ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		Order   models.Order `json:"order"`
	}
	decodeBody(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "payment is still processing", resp.Message)
	assert.Equal(t, models.OrderStatusPending, resp.Order.Status)

	// Nothing settled: the cart is intact and no mail went out.
	rec = ts.do(t, http.MethodPost, "/getcart", token, struct{}{}, nil)
	var cart map[string]int
	decodeBody(t, rec, &cart)
	assert.Equal(t, 2, cart["1"])
	assert.Empty(t, ts.mailer.sent)

	// Once the processor settles, the same intent still confirms.
	ts.payments.succeed("pi_1")
	rec = ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, models.OrderStatusSucceeded, resp.Order.Status)
	assert.Len(t, ts.mailer.sent, 1)
}

func TestConfirmPaymentUnknownIntent(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signup(t, "alice", "alice@example.com", "hunter22")

	rec := ts.do(t, http.MethodPost, "/confirmpayment", token,
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_unknown"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmPaymentRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/confirmpayment", "",
		models.ConfirmPaymentRequest{PaymentIntentID: "pi_1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
