package Controllers_test

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/yeremiapane/canteen-app/controllers"
	"github.com/yeremiapane/canteen-app/models"
	"github.com/yeremiapane/canteen-app/services"
	"github.com/yeremiapane/canteen-app/utils"
)

const testServerKey = "test-server-key"

func fakeGatewayServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction_id":"txn-123","transaction_status":"pending"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupPaymentRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	gateway := services.NewGatewayService(&services.GatewayConfig{
		ServerKey: testServerKey,
		ClientKey: "test-client-key",
		BaseURL:   fakeGatewayServer(t).URL,
	})
	machine := services.NewStatusMachine(db, nil)
	paymentCtrl := controllers.NewPaymentController(db, machine, gateway)

	router.POST("/orders/:order_id/payments/cod", paymentCtrl.CreateCODPayment)
	router.POST("/orders/:order_id/payments/gateway", paymentCtrl.CreateGatewayOrder)
	router.POST("/payments/verify", paymentCtrl.VerifyGatewayPayment)
	return router
}

func signResult(orderID, statusCode, grossAmount string) string {
	hash := sha512.Sum512([]byte(orderID + statusCode + grossAmount + testServerKey))
	return hex.EncodeToString(hash[:])
}

func TestCODPaymentPlacesOrder(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupPaymentRouter(t, db)

	order := seedTestOrder(t, db, "C1", models.OrderStatusPaymentPending, time.Now())

	w, _ := doJSON(t, router, "POST", "/orders/"+order.ID+"/payments/cod", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var stored models.Order
	db.First(&stored, "id = ?", order.ID)
	assert.Equal(t, models.OrderStatusPlaced, stored.Status)
	assert.Equal(t, models.PaymentMethodCOD, stored.PaymentMethod)
	assert.Equal(t, models.PaymentStatePayOnPickup, stored.PaymentState)

	// Confirming the same order twice is rejected.
	w, _ = doJSON(t, router, "POST", "/orders/"+order.ID+"/payments/cod", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGatewayHandshakeHappyPath(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupPaymentRouter(t, db)

	order := seedTestOrder(t, db, "C1", models.OrderStatusPaymentPending, time.Now())

	// Step 1: register the charge and receive the gateway reference.
	w, resp := doJSON(t, router, "POST", "/orders/"+order.ID+"/payments/gateway",
		map[string]string{"method": "upi"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var gw struct {
		GatewayRef string  `json:"gateway_ref"`
		Amount     float64 `json:"amount"`
		Currency   string  `json:"currency"`
	}
	assert.NoError(t, json.Unmarshal(resp.Data, &gw))
	assert.Equal(t, "txn-123", gw.GatewayRef)
	assert.Equal(t, order.Total, gw.Amount)
	assert.Equal(t, "INR", gw.Currency)

	// The order stays payment_pending until verification.
	var pending models.Order
	db.First(&pending, "id = ?", order.ID)
	assert.Equal(t, models.OrderStatusPaymentPending, pending.Status)

	// Step 3: submit the signed widget result.
	gross := fmt.Sprintf("%.0f", order.Total)
	w, _ = doJSON(t, router, "POST", "/payments/verify", map[string]string{
		"order_id":     order.ID,
		"gateway_ref":  gw.GatewayRef,
		"status_code":  "200",
		"gross_amount": gross,
		"signature":    signResult(order.ID, "200", gross),
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var placed models.Order
	db.First(&placed, "id = ?", order.ID)
	assert.Equal(t, models.OrderStatusPlaced, placed.Status)
	assert.Equal(t, models.PaymentMethodUPI, placed.PaymentMethod)
	assert.Equal(t, models.PaymentStatePaid, placed.PaymentState)
}

func TestVerifyRejectsTamperedResults(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupPaymentRouter(t, db)

	order := seedTestOrder(t, db, "C1", models.OrderStatusPaymentPending, time.Now())

	w, _ := doJSON(t, router, "POST", "/orders/"+order.ID+"/payments/gateway",
		map[string]string{"method": "card"})
	assert.Equal(t, http.StatusCreated, w.Code)

	gross := fmt.Sprintf("%.0f", order.Total)
	tests := []struct {
		name   string
		result map[string]string
	}{
		{
			name: "signature mismatch",
			result: map[string]string{
				"order_id":     order.ID,
				"gateway_ref":  "txn-123",
				"status_code":  "200",
				"gross_amount": gross,
				"signature":    "forged",
			},
		},
		{
			name: "unknown gateway reference",
			result: map[string]string{
				"order_id":     order.ID,
				"gateway_ref":  "txn-somebody-else",
				"status_code":  "200",
				"gross_amount": gross,
				"signature":    signResult(order.ID, "200", gross),
			},
		},
		{
			name: "gateway reported failure",
			result: map[string]string{
				"order_id":     order.ID,
				"gateway_ref":  "txn-123",
				"status_code":  "402",
				"gross_amount": gross,
				"signature":    signResult(order.ID, "402", gross),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, router, "POST", "/payments/verify", tt.result)
			assert.Equal(t, http.StatusPaymentRequired, w.Code)

			var stored models.Order
			db.First(&stored, "id = ?", order.ID)
			assert.Equal(t, models.OrderStatusPaymentPending, stored.Status)
			assert.Equal(t, models.PaymentStatePending, stored.PaymentState)
		})
	}
}

func TestGatewayOrderRequiresPaymentPending(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupPaymentRouter(t, db)

	order := seedTestOrder(t, db, "C1", models.OrderStatusPlaced, time.Now())

	w, _ := doJSON(t, router, "POST", "/orders/"+order.ID+"/payments/gateway",
		map[string]string{"method": "upi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
