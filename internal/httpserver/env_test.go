package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/akruglov/shopfront/internal/db"
	"github.com/akruglov/shopfront/internal/httpserver"
	"github.com/akruglov/shopfront/internal/models"
	"github.com/akruglov/shopfront/internal/repo"
	authsvc "github.com/akruglov/shopfront/internal/service/auth"
	cartsvc "github.com/akruglov/shopfront/internal/service/cart"
	"github.com/akruglov/shopfront/internal/service/checkout"
	"github.com/akruglov/shopfront/internal/service/token"
	"github.com/akruglov/shopfront/internal/stripe"
)

// memPublisher records events instead of talking to a broker.
type memPublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *memPublisher) Publish(_ context.Context, topic, _ string, event map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := map[string]any{"_topic": topic}
	for k, v := range event {
		e[k] = v
	}
	p.events = append(p.events, e)
	return nil
}

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	Store  *repo.GormRepo
	Events *memPublisher
}

const defaultSessionURL = "https://pay.example/cs_test_1"

func defaultStripeHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"id":"cs_test_1","url":%q}`, defaultSessionURL)
}

func newTestEnv(t *testing.T, stripeHandler http.HandlerFunc) *testEnv {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	if stripeHandler == nil {
		stripeHandler = defaultStripeHandler
	}
	stripeSrv := httptest.NewServer(stripeHandler)
	t.Cleanup(stripeSrv.Close)

	store := repo.New(gdb)
	pub := &memPublisher{}
	tokens := &token.Service{Repo: store, JWTSecret: []byte("access-secret"), RefreshSecret: []byte("refresh-secret")}
	authService := &authsvc.Service{Repo: store, Events: pub}
	cartService := &cartsvc.Service{Repo: store, Events: pub}
	bridge := &checkout.Bridge{
		Repo:       store,
		Client:     stripe.NewClient("sk_test_123", stripeSrv.URL),
		SuccessURL: "http://shop.example/success",
		CancelURL:  "http://shop.example/checkout",
	}

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		Auth:     &httpserver.AuthHTTP{Svc: authService, Tokens: tokens},
		Products: &httpserver.ProductHTTP{Repo: store},
		Cart:     &httpserver.CartHTTP{Svc: cartService},
		Checkout: &httpserver.CheckoutHTTP{Bridge: bridge, CartSvc: cartService, Repo: store},
		Tokens:   tokens,
	})

	return &testEnv{T: t, E: e, Store: store, Events: pub}
}

func (env *testEnv) do(method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func responseCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	res := http.Response{Header: rec.Header()}
	return res.Cookies()
}

func sessionCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, ck := range responseCookies(rec) {
		if (ck.Name == token.AccessCookie || ck.Name == token.RefreshCookie) && ck.Value != "" {
			out = append(out, ck)
		}
	}
	return out
}

// signup registers a fresh account and returns its session cookies.
func (env *testEnv) signup(email string) []*http.Cookie {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/register", map[string]string{
		"email":    email,
		"password": "pw",
		"name":     "A",
	})
	require.Equal(env.T, http.StatusSeeOther, rec.Code)

	cks := sessionCookies(rec)
	require.Len(env.T, cks, 2)
	return cks
}

func (env *testEnv) seedProduct(name string, price float64, priceRef string) models.Product {
	env.T.Helper()
	p := models.Product{Name: name, Description: name, Price: price, ImgURL: name + ".png", PriceRef: priceRef}
	require.NoError(env.T, env.Store.DB.Create(&p).Error)
	return p
}
