// Package gateway implements the payment gateway port over the
// processor's checkout-session HTTP API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/config"
)

type HTTPGatewayClient struct {
	baseURL    string
	secretKey  string
	successURL string
	cancelURL  string
	httpClient *http.Client
}

func NewGatewayClient(cfg config.GatewayConfig) *HTTPGatewayClient {
	return &HTTPGatewayClient{
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *HTTPGatewayClient) CreateCheckoutSession(ctx context.Context, req application.CreateSessionRequest) (*application.CheckoutSession, error) {
	url := fmt.Sprintf("%s/v1/checkout/sessions", c.baseURL)

	wireReq := createSessionRequest{
		Mode: "payment",
		LineItems: []lineItem{{
			Quantity: 1,
			PriceData: priceData{
				Currency:   req.Currency,
				UnitAmount: req.AmountCents,
				ProductData: productData{
					Name: fmt.Sprintf("You are paying for: %s", req.ProductName),
				},
			},
		}},
		CustomerEmail: req.CustomerEmail,
		Metadata: sessionMetadata{
			BookID:  req.BookID,
			OrderID: req.OrderID,
		},
		SuccessURL: c.successURL,
		CancelURL:  c.cancelURL,
	}

	resp, err := sendRequest[createSessionRequest, checkoutSessionResponse](c, ctx, http.MethodPost, url, &wireReq)
	if err != nil {
		return nil, err
	}

	return resp.toSession(), nil
}

func (c *HTTPGatewayClient) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*application.CheckoutSession, error) {
	url := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, sessionID)

	resp, err := sendRequest[any, checkoutSessionResponse](c, ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	return resp.toSession(), nil
}

func sendRequest[Req any, Resp any](c *HTTPGatewayClient, ctx context.Context, method, url string, reqBody *Req) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var gwErrResp GatewayErrorResponse
		if err := json.Unmarshal(body, &gwErrResp); err != nil {
			return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &GatewayError{
			Code:       gwErrResp.Err,
			Message:    gwErrResp.Message,
			StatusCode: resp.StatusCode,
		}
	}

	var gwResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&gwResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &gwResp, nil
}
