package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/canteen-app/models"
	"github.com/yeremiapane/canteen-app/services"
	"github.com/yeremiapane/canteen-app/utils"
)

type PaymentController struct {
	DB      *gorm.DB
	Machine *services.StatusMachine
	Gateway *services.GatewayService
}

func NewPaymentController(db *gorm.DB, machine *services.StatusMachine, gateway *services.GatewayService) *PaymentController {
	return &PaymentController{DB: db, Machine: machine, Gateway: gateway}
}

// CreateCODPayment -> pay-on-pickup confirmation. A single request: the
// order moves payment_pending -> placed with a pay-later marker.
func (pc *PaymentController) CreateCODPayment(c *gin.Context) {
	orderID := c.Param("order_id")

	order, err := pc.Machine.ConfirmPayment(orderID, models.PaymentMethodCOD, models.PaymentStatePayOnPickup)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %s confirmed for pay on pickup", order.ID)
	utils.RespondJSON(c, http.StatusCreated, "Order placed, pay on pickup", order)
}

// CreateGatewayOrder -> step 1 of the gateway handshake: register a
// charge with the gateway and hand back the reference the payment widget
// needs. The order stays payment_pending.
func (pc *PaymentController) CreateGatewayOrder(c *gin.Context) {
	orderID := c.Param("order_id")

	type ReqBody struct {
		Method string `json:"method" binding:"required,oneof=upi card"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	if err := pc.DB.First(&order, "id = ?", orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if order.Status != models.OrderStatusPaymentPending {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("order is not awaiting payment"))
		return
	}

	charge, err := pc.Gateway.CreateCharge(order.ID, order.Total)
	if err != nil {
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}

	gatewayRef := charge.TransactionID
	if gatewayRef == "" {
		gatewayRef = uuid.NewString()
	}

	updates := map[string]interface{}{
		"payment_method": body.Method,
		"gateway_ref":    gatewayRef,
	}
	if err := pc.DB.Model(&order).Updates(updates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Gateway order created", gin.H{
		"gateway_ref": gatewayRef,
		"amount":      order.Total,
		"currency":    "INR",
	})
}

// VerifyGatewayPayment -> step 3 of the handshake: check the signed
// widget result. Only a valid signature with a success status moves the
// order out of payment_pending; anything else is a 402 and no state
// changes.
func (pc *PaymentController) VerifyGatewayPayment(c *gin.Context) {
	type ReqBody struct {
		OrderID     string `json:"order_id" binding:"required"`
		GatewayRef  string `json:"gateway_ref" binding:"required"`
		StatusCode  string `json:"status_code" binding:"required"`
		GrossAmount string `json:"gross_amount" binding:"required"`
		Signature   string `json:"signature" binding:"required"`
	}
	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	if err := pc.DB.First(&order, "id = ?", body.OrderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if order.GatewayRef == "" || order.GatewayRef != body.GatewayRef {
		utils.RespondError(c, http.StatusPaymentRequired, fmt.Errorf("payment verification failed: unknown gateway reference"))
		return
	}

	if !pc.Gateway.ValidateSignature(body.OrderID, body.StatusCode, body.GrossAmount, body.Signature) {
		utils.RespondError(c, http.StatusPaymentRequired, fmt.Errorf("payment verification failed: signature mismatch"))
		return
	}

	if body.StatusCode != "200" {
		utils.RespondError(c, http.StatusPaymentRequired, fmt.Errorf("payment verification failed: gateway status %s", body.StatusCode))
		return
	}

	placed, err := pc.Machine.ConfirmPayment(order.ID, order.PaymentMethod, models.PaymentStatePaid)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %s payment verified via gateway ref %s", placed.ID, body.GatewayRef)
	utils.RespondJSON(c, http.StatusOK, "Payment verified", placed)
}

func respondTransitionError(c *gin.Context, err error) {
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
}
