package services

import (
	"bytes"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayConfig holds payment gateway credentials and environment.
type GatewayConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	BaseURL      string // overrides the environment URL when set (tests)
}

// GatewayService talks to the external payment gateway: creating charges
// for gateway-mediated orders and verifying signed payment results.
type GatewayService struct {
	config     *GatewayConfig
	httpClient *http.Client
}

func NewGatewayService(config *GatewayConfig) *GatewayService {
	return &GatewayService{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (gs *GatewayService) ValidateConfig() error {
	if gs.config.ServerKey == "" {
		return fmt.Errorf("GATEWAY_SERVER_KEY is not set")
	}
	if gs.config.ClientKey == "" {
		return fmt.Errorf("GATEWAY_CLIENT_KEY is not set")
	}
	return nil
}

// ChargeResponse is the gateway's answer to a charge request.
type ChargeResponse struct {
	TransactionID string `json:"transaction_id"`
	OrderID       string `json:"order_id"`
	GrossAmount   string `json:"gross_amount"`
	Status        string `json:"transaction_status"`
	ExpiryTime    string `json:"expiry_time"`
}

// CreateCharge registers a pending charge for an order and returns the
// gateway-side reference the payment widget needs.
func (gs *GatewayService) CreateCharge(orderID string, amount float64) (*ChargeResponse, error) {
	url := fmt.Sprintf("%s/v2/charge", gs.baseURL())

	payload := map[string]interface{}{
		"payment_type": "upi",
		"transaction_details": map[string]interface{}{
			"order_id":     orderID,
			"gross_amount": int64(amount),
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", gs.authHeader())

	resp, err := gs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway API error: %s", string(body))
	}

	var chargeResp ChargeResponse
	if err := json.Unmarshal(body, &chargeResp); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %v", err)
	}

	return &chargeResp, nil
}

// CheckTransactionStatus fetches the gateway's view of a charge.
func (gs *GatewayService) CheckTransactionStatus(gatewayRef string) (string, error) {
	url := fmt.Sprintf("%s/v2/%s/status", gs.baseURL(), gatewayRef)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", gs.authHeader())

	resp, err := gs.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway API error: %s", string(body))
	}

	var statusResp struct {
		TransactionStatus string `json:"transaction_status"`
	}
	if err := json.Unmarshal(body, &statusResp); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %v", err)
	}

	return gs.mapTransactionStatus(statusResp.TransactionStatus), nil
}

// ValidateSignature checks the sha512 signature on a widget result:
// sha512(orderID + statusCode + grossAmount + serverKey).
func (gs *GatewayService) ValidateSignature(orderID, statusCode, grossAmount, signature string) bool {
	signatureString := fmt.Sprintf("%s%s%s%s", orderID, statusCode, grossAmount, gs.config.ServerKey)
	hash := sha512.New()
	hash.Write([]byte(signatureString))
	calculatedSignature := hex.EncodeToString(hash.Sum(nil))
	return calculatedSignature == signature
}

func (gs *GatewayService) mapTransactionStatus(status string) string {
	switch status {
	case "capture", "settlement":
		return "success"
	case "pending", "authorize":
		return "pending"
	case "deny", "cancel", "expire", "failure":
		return "failed"
	default:
		return "unknown"
	}
}

func (gs *GatewayService) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(gs.config.ServerKey+":"))
}

func (gs *GatewayService) baseURL() string {
	if gs.config.BaseURL != "" {
		return gs.config.BaseURL
	}
	if gs.config.IsProduction {
		return "https://api.gateway.example.com"
	}
	return "https://api.sandbox.gateway.example.com"
}
