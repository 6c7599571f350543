package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/movila/flashback-backend/internal/models"
	"github.com/movila/flashback-backend/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// GetOrders lists the user's orders along with the total films still
// available across active ones.
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("User not authenticated"))
	}

	orders, err := h.orderService.GetUserOrders(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	available, err := h.orderService.TotalFilmsAvailable(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(err.Error()))
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"orders":          orders,
		"films_available": available,
	}, "Orders retrieved"))
}
