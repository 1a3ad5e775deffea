package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"go-storefront/controllers"
	"go-storefront/models"
	"go-storefront/payment"
	"go-storefront/routes"
	"go-storefront/storage"
)

// fakePayments is a scripted payment.Client. CreateIntent hands out
// sequential intent ids and records what it was asked for; GetIntent serves
// whatever status the test scripted via succeed/fail.
type fakePayments struct {
	mu      sync.Mutex
	n       int
	created []createdIntent
	intents map[string]*payment.Intent
}

type createdIntent struct {
	Amount         int64
	Currency       string
	IdempotencyKey string
}

func newFakePayments() *fakePayments {
	return &fakePayments{intents: map[string]*payment.Intent{}}
}

func (f *fakePayments) CreateIntent(_ context.Context, amountCents int64, currency, idempotencyKey string) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.n++
	id := fmt.Sprintf("pi_%d", f.n)
	f.created = append(f.created, createdIntent{amountCents, currency, idempotencyKey})
	intent := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
	}
	f.intents[id] = intent
	return intent, nil
}

func (f *fakePayments) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	intent, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	copied := *intent
	return &copied, nil
}

func (f *fakePayments) succeed(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[id].Status = payment.StatusSucceeded
}

func (f *fakePayments) setStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[id].Status = status
}

func (f *fakePayments) fail(id, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[id].Status = "requires_payment_method"
	f.intents[id].Message = message
}

// recordMailer captures order-confirmation sends.
type recordMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To    string
	Order models.Order
}

func (m *recordMailer) SendOrderConfirmation(toEmail string, order models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: toEmail, Order: order})
	return nil
}

// testServer wires the real router and controllers over the in-memory store.
type testServer struct {
	store    *storage.MemoryStore
	payments *fakePayments
	mailer   *recordMailer
	router   *mux.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := storage.NewMemoryStore()
	payments := newFakePayments()
	mailer := &recordMailer{}

	uploads, err := controllers.NewUploadController(t.TempDir())
	require.NoError(t, err)

	router := mux.NewRouter()
	routes.RegisterRoutes(router,
		controllers.NewUserController(store),
		controllers.NewProductController(store),
		controllers.NewCartController(store),
		controllers.NewCheckoutController(store, payments, mailer),
		uploads,
	)

	return &testServer{
		store:    store,
		payments: payments,
		mailer:   mailer,
		router:   router,
	}
}

// do performs a JSON request against the router. token and headers are
// optional.
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "http://example.com"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("auth-token", token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// signup registers a user and returns their session token.
func (ts *testServer) signup(t *testing.T, username, email, password string) string {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/signup", "", models.SignupRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// seedProduct inserts a product directly into the store.
func (ts *testServer) seedProduct(t *testing.T, id int, name string, newPrice float64) {
	t.Helper()

	require.NoError(t, ts.store.InsertProduct(context.Background(), &models.Product{
		ID:        id,
		Name:      name,
		Image:     name + ".png",
		Category:  "test",
		NewPrice:  newPrice,
		OldPrice:  newPrice,
		Available: true,
	}))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}
