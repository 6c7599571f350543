package service

import (
	"errors"

	"github.com/movila/flashback-backend/internal/models"
	"github.com/stripe/stripe-go/v74"
)

// ErrForbidden is returned when a caller touches a resource they do not own.
var ErrForbidden = errors.New("forbidden")

// Repository interfaces are declared on the consumer side so services can be
// tested with in-memory fakes; the gorm repositories satisfy them.

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}

type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetBySessionID(sessionID string) (*models.Order, error)
	GetUserOrders(userID uint) ([]models.Order, error)
	GetActiveOrders(userID uint) ([]models.Order, error)
	ConsumeFilm(orderID uint) error
}

type FilmRepository interface {
	Create(film *models.Film) error
	GetByID(id uint) (*models.Film, error)
	GetOpenFilm(orderID uint) (*models.Film, error)
	GetUserFilms(userID uint) ([]models.Film, error)
	Update(film *models.Film) error
	MarkCompleted(filmID uint, outputFile string) error
}

type LoginTokenRepository interface {
	Create(token *models.LoginToken) error
	GetByID(id uint) (*models.LoginToken, error)
	MarkUsed(id uint) error
}

// CheckoutGateway is the slice of the Stripe API this system relies on.
type CheckoutGateway interface {
	CreateCheckoutSession(priceID string, metadata map[string]string) (*stripe.CheckoutSession, error)
	GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error)
}

type Mailer interface {
	SendMagicLinkEmail(email, link string) error
	SendFilmReadyEmail(email, name string) error
}

// RenderWorker starts an external render job for a film. The worker pulls
// the ordered photos from storage on its own and reports back via callback.
type RenderWorker interface {
	LaunchRender(filmID string) (string, error)
}

// FilmDispatcher hands a submitted film to the render worker.
type FilmDispatcher interface {
	Dispatch(film *models.Film) (string, error)
}

// Notifier delivers the "film is ready" email.
type Notifier interface {
	NotifyReady(film *models.Film) error
}
