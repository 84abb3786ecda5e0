package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yeremiapane/canteen-app/models"
)

// APIClient implements OrderService and PaymentService over the order
// service's HTTP API.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (a *APIClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (string, error) {
	var resp struct {
		OrderID string `json:"order_id"`
	}
	if err := a.do(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return "", err
	}
	return resp.OrderID, nil
}

func (a *APIClient) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := a.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (a *APIClient) ListOpenOrders(ctx context.Context, canteenID string) ([]models.Order, error) {
	var orders []models.Order
	if err := a.do(ctx, http.MethodGet, "/canteens/"+canteenID+"/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (a *APIClient) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	body := map[string]string{"status": status}
	var order models.Order
	if err := a.do(ctx, http.MethodPatch, "/orders/"+orderID+"/status", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (a *APIClient) CreateCODPayment(ctx context.Context, orderID string) error {
	return a.do(ctx, http.MethodPost, "/orders/"+orderID+"/payments/cod", nil, nil)
}

func (a *APIClient) CreateGatewayOrder(ctx context.Context, orderID, method string) (*GatewayOrder, error) {
	body := map[string]string{"method": method}
	var gatewayOrder GatewayOrder
	if err := a.do(ctx, http.MethodPost, "/orders/"+orderID+"/payments/gateway", body, &gatewayOrder); err != nil {
		return nil, err
	}
	return &gatewayOrder, nil
}

func (a *APIClient) VerifyGatewayPayment(ctx context.Context, result GatewayResult) error {
	return a.do(ctx, http.MethodPost, "/payments/verify", result, nil)
}

// do runs one request and unpacks the {status,message,data} envelope.
// 402 responses surface as ErrPaymentVerification so callers can tell a
// rejected payment from a transport failure.
func (a *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		Status  bool            `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("malformed response (%d): %s", resp.StatusCode, string(payload))
	}

	if resp.StatusCode == http.StatusPaymentRequired {
		return fmt.Errorf("%w: %s", ErrPaymentVerification, envelope.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s failed (%d): %s", method, path, resp.StatusCode, envelope.Message)
	}

	if out != nil && envelope.Data != nil {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}
