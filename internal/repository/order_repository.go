package repository

import (
	"github.com/movila/flashback-backend/internal/models"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetBySessionID(sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("stripe_session_id = ?", sessionID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetUserOrders(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) GetActiveOrders(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("user_id = ? AND status = ?", userID, models.OrderStatusActive).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ConsumeFilm increments films_used by one in a single guarded statement.
// The WHERE clause refuses the update once the quota is exhausted, so
// films_used can never exceed films_total. Returns gorm.ErrRecordNotFound
// when no order qualifies.
func (r *OrderRepository) ConsumeFilm(orderID uint) error {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND films_used < films_total", orderID).
		Updates(map[string]interface{}{
			"films_used": gorm.Expr("films_used + 1"),
			"status":     gorm.Expr("CASE WHEN films_used + 1 >= films_total THEN 'completed' ELSE 'active' END"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
