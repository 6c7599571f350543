package service

import (
	"github.com/movila/flashback-backend/internal/models"
)

type OrderService struct {
	orderRepo OrderRepository
}

func NewOrderService(orderRepo OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

func (s *OrderService) GetUserOrders(userID uint) ([]models.Order, error) {
	return s.orderRepo.GetUserOrders(userID)
}

// TotalFilmsAvailable sums the unused quota across the user's active orders.
func (s *OrderService) TotalFilmsAvailable(userID uint) (int, error) {
	orders, err := s.orderRepo.GetActiveOrders(userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, order := range orders {
		total += order.FilmsRemaining()
	}
	return total, nil
}
