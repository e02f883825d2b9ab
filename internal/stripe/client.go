package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrExternalService marks any failure of the payment processor call so the
// edge can replace it with a generic message instead of leaking the cause.
var ErrExternalService = errors.New("payment processor error")

// Client talks to the hosted checkout-session API over plain HTTP. Raw card
// data never passes through here; the processor's page handles it.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// LineItem identifies a processor-side price and how many units of it. The
// processor resolves the amount itself; nothing is recomputed locally.
type LineItem struct {
	PriceRef string
	Quantity uint
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession requests a single-payment hosted session for the
// given line items. The returned session URL is where the client must be
// redirected.
func (c *Client) CreateCheckoutSession(ctx context.Context, items []LineItem, successURL, cancelURL string) (*Session, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: api key is empty", ErrExternalService)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Add("payment_method_types[]", "card")
	for i, item := range items {
		form.Set(fmt.Sprintf("line_items[%d][price]", i), item.PriceRef)
		form.Set(fmt.Sprintf("line_items[%d][quantity]", i), strconv.FormatUint(uint64(item.Quantity), 10))
	}
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrExternalService, res.StatusCode, strings.TrimSpace(string(body)))
	}

	var session Session
	if err := json.NewDecoder(res.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrExternalService, err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("%w: session has no url", ErrExternalService)
	}
	return &session, nil
}
