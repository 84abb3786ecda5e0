package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/canteen-app/controllers"
	"github.com/yeremiapane/canteen-app/models"
	"github.com/yeremiapane/canteen-app/services"
	"github.com/yeremiapane/canteen-app/utils"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestDBForOrders(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatal(err)
	}
	return db
}

func setupOrderRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	machine := services.NewStatusMachine(db, nil)
	orderCtrl := controllers.NewOrderController(db, machine)

	router.POST("/orders", orderCtrl.CreateOrder)
	router.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	router.GET("/canteens/:canteen_id/orders", orderCtrl.GetCanteenOrders)
	router.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp envelope
	if w.Body.Len() > 0 {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func orderPayload(canteenID string, pickup time.Time, promo string) map[string]interface{} {
	return map[string]interface{}{
		"canteen_id": canteenID,
		"buyer_id":   "buyer-1",
		"items": []map[string]interface{}{
			{"item_id": "dosa", "name": "Masala Dosa", "unit_price": 50.0, "quantity": 2, "canteen_id": canteenID},
			{"item_id": "chai", "name": "Chai", "unit_price": 30.0, "quantity": 1, "canteen_id": canteenID},
		},
		"pickup_time": pickup.Format(time.RFC3339),
		"note":        "less spicy",
		"promo_code":  promo,
	}
}

func seedTestOrder(t *testing.T, db *gorm.DB, canteenID, status string, createdAt time.Time) models.Order {
	t.Helper()
	order := models.Order{
		ID:           uuid.NewString(),
		CanteenID:    canteenID,
		BuyerID:      "buyer-1",
		Status:       status,
		Version:      1,
		PickupTime:   createdAt.Add(30 * time.Minute),
		Total:        130,
		PaymentState: models.PaymentStatePending,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatal(err)
	}
	return order
}

func TestCreateAndGetOrder(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	payload := orderPayload("C1", time.Now().Add(30*time.Minute), "CANTEEN10")
	w, resp := doJSON(t, router, "POST", "/orders", payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		OrderID string `json:"order_id"`
	}
	assert.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.NotEmpty(t, created.OrderID)

	w, resp = doJSON(t, router, "GET", "/orders/"+created.OrderID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var order models.Order
	assert.NoError(t, json.Unmarshal(resp.Data, &order))
	assert.Equal(t, models.OrderStatusPaymentPending, order.Status)
	assert.Equal(t, 130.0, order.Subtotal)
	assert.Equal(t, 10.0, order.Discount)
	assert.Equal(t, 120.0, order.Total)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "Masala Dosa", order.Items[0].NameAtPurchase)
	assert.Equal(t, 50.0, order.Items[0].PriceAtPurchase)
}

func TestCreateOrderRejectsInvalidSubmissions(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	pickup := time.Now().Add(30 * time.Minute)

	mixed := orderPayload("C1", pickup, "")
	mixed["items"].([]map[string]interface{})[1]["canteen_id"] = "C2"

	tooSoon := orderPayload("C1", time.Now().Add(5*time.Minute), "")
	badPromo := orderPayload("C1", pickup, "NOTACODE")
	empty := orderPayload("C1", pickup, "")
	empty["items"] = []map[string]interface{}{}

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"mixed canteens", mixed},
		{"pickup too soon", tooSoon},
		{"unknown promo", badPromo},
		{"empty cart", empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, router, "POST", "/orders", tt.payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(0), count, "rejected submissions must not persist orders")
}

func TestGetCanteenOrdersReturnsOpenOrdersOldestFirst(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	base := time.Now().Add(-time.Hour)
	second := seedTestOrder(t, db, "C1", models.OrderStatusPreparing, base.Add(10*time.Minute))
	first := seedTestOrder(t, db, "C1", models.OrderStatusPlaced, base)
	seedTestOrder(t, db, "C1", models.OrderStatusPaymentPending, base)
	seedTestOrder(t, db, "C1", models.OrderStatusCompleted, base)
	seedTestOrder(t, db, "C2", models.OrderStatusPlaced, base)

	w, resp := doJSON(t, router, "GET", "/canteens/C1/orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var orders []models.Order
	assert.NoError(t, json.Unmarshal(resp.Data, &orders))
	assert.Len(t, orders, 2)
	assert.Equal(t, first.ID, orders[0].ID)
	assert.Equal(t, second.ID, orders[1].ID)
}

func TestUpdateOrderStatus(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	order := seedTestOrder(t, db, "C1", models.OrderStatusPlaced, time.Now())

	w, resp := doJSON(t, router, "PATCH", "/orders/"+order.ID+"/status",
		map[string]string{"status": models.OrderStatusPreparing})
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Order
	assert.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.Equal(t, models.OrderStatusPreparing, updated.Status)
	assert.Equal(t, uint(2), updated.Version)
}

func TestUpdateOrderStatusRejectsInvalidRequests(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForOrders(t)
	router := setupOrderRouter(db)

	ready := seedTestOrder(t, db, "C1", models.OrderStatusReady, time.Now())

	tests := []struct {
		name     string
		orderID  string
		status   string
		wantCode int
	}{
		{"unknown order", uuid.NewString(), models.OrderStatusPreparing, http.StatusNotFound},
		{"placed is not requestable", ready.ID, models.OrderStatusPlaced, http.StatusBadRequest},
		{"regression rejected", ready.ID, models.OrderStatusPreparing, http.StatusBadRequest},
		{"ready cannot cancel", ready.ID, models.OrderStatusCancelled, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, router, "PATCH", "/orders/"+tt.orderID+"/status",
				map[string]string{"status": tt.status})
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}

	var stored models.Order
	db.First(&stored, "id = ?", ready.ID)
	assert.Equal(t, models.OrderStatusReady, stored.Status)
}
