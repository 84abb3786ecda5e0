package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/canteen-app/models"
	"github.com/yeremiapane/canteen-app/services"
	"github.com/yeremiapane/canteen-app/utils"
)

type OrderController struct {
	DB      *gorm.DB
	Machine *services.StatusMachine
}

func NewOrderController(db *gorm.DB, machine *services.StatusMachine) *OrderController {
	return &OrderController{DB: db, Machine: machine}
}

// CreateOrder -> validate the submitted cart and persist the order with
// purchase-time item snapshots. The order starts in payment_pending; it
// is announced to the canteen's room only once a payment path places it.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	type ItemReq struct {
		ItemID    string  `json:"item_id" binding:"required"`
		Name      string  `json:"name" binding:"required"`
		UnitPrice float64 `json:"unit_price"`
		Quantity  int     `json:"quantity" binding:"required,min=1"`
		CanteenID string  `json:"canteen_id" binding:"required"`
	}

	type ReqBody struct {
		CanteenID  string    `json:"canteen_id" binding:"required"`
		BuyerID    string    `json:"buyer_id" binding:"required"`
		Items      []ItemReq `json:"items" binding:"required"`
		PickupTime time.Time `json:"pickup_time" binding:"required"`
		Note       string    `json:"note"`
		PromoCode  string    `json:"promo_code"`
	}

	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if len(body.Items) == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("cart is empty"))
		return
	}

	subtotal := 0.0
	for _, item := range body.Items {
		if item.CanteenID != body.CanteenID {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("cart contains items from more than one canteen"))
			return
		}
		subtotal += item.UnitPrice * float64(item.Quantity)
	}

	if body.PickupTime.Before(time.Now().Add(services.MinPickupLead)) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("pickup time must be at least 10 minutes from now"))
		return
	}

	discount, err := services.EvaluatePromo(body.PromoCode, subtotal)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order := models.Order{
		ID:           uuid.NewString(),
		CanteenID:    body.CanteenID,
		BuyerID:      body.BuyerID,
		Status:       models.OrderStatusPaymentPending,
		Version:      1,
		PickupTime:   body.PickupTime,
		Note:         body.Note,
		Subtotal:     subtotal,
		Discount:     discount,
		Total:        subtotal - discount,
		PaymentState: models.PaymentStatePending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	tx := oc.DB.Begin()
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	for _, item := range body.Items {
		orderItem := models.OrderItem{
			OrderID:         order.ID,
			ItemID:          item.ItemID,
			NameAtPurchase:  item.Name,
			PriceAtPurchase: item.UnitPrice,
			Quantity:        item.Quantity,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			tx.Rollback()
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order %s created for canteen %s, total %s",
		order.ID, order.CanteenID, utils.FormatCurrencyINR(order.Total))

	utils.RespondJSON(c, http.StatusCreated, "Order created", gin.H{"order_id": order.ID})
}

// GetOrderByID -> detail of one order, items included
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID := c.Param("order_id")

	var order models.Order
	if err := oc.DB.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetCanteenOrders -> a canteen's open orders, oldest first. This is the
// vendor console's seed fetch and its catch-up fetch after a reconnect.
func (oc *OrderController) GetCanteenOrders(c *gin.Context) {
	canteenID := c.Param("canteen_id")

	var orders []models.Order
	if err := oc.DB.Preload("Items").
		Where("canteen_id = ? AND status IN ?", canteenID,
			[]string{models.OrderStatusPlaced, models.OrderStatusPreparing, models.OrderStatusReady}).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Canteen open orders", orders)
}

// UpdateOrderStatus -> vendor transition command. The target is a
// request, not a write: the state machine decides validity, and of two
// conflicting concurrent commands exactly one wins.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	type ReqBody struct {
		Status string `json:"status" binding:"required"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	switch body.Status {
	case models.OrderStatusPreparing, models.OrderStatusReady,
		models.OrderStatusCompleted, models.OrderStatusCancelled:
	default:
		// placed/payment_pending are reached through the payment
		// handshake, never through a vendor command.
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("status %q cannot be requested", body.Status))
		return
	}

	order, err := oc.Machine.Transition(orderID, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.RespondError(c, http.StatusNotFound, err)
		case errors.Is(err, services.ErrInvalidTransition):
			utils.RespondError(c, http.StatusBadRequest, err)
		case errors.Is(err, services.ErrTransitionConflict):
			utils.RespondError(c, http.StatusConflict, err)
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}
