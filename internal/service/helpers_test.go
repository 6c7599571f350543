package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/movila/flashback-backend/internal/models"
	"github.com/movila/flashback-backend/pkg/storage"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*models.User{}}
}

func (r *fakeUserRepo) Create(user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	r.nextID++
	user.ID = r.nextID
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeOrderRepo struct {
	orders  map[uint]*models.Order
	nextID  uint
	consume int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uint]*models.Order{}}
}

func (r *fakeOrderRepo) Create(order *models.Order) error {
	for _, existing := range r.orders {
		if existing.StripeSessionID == order.StripeSessionID {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	r.nextID++
	order.ID = r.nextID
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) GetByID(id uint) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) GetBySessionID(sessionID string) (*models.Order, error) {
	for _, order := range r.orders {
		if order.StripeSessionID == sessionID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) GetUserOrders(userID uint) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) GetActiveOrders(userID uint) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID && order.Status == models.OrderStatusActive {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) ConsumeFilm(orderID uint) error {
	order, ok := r.orders[orderID]
	if !ok || order.FilmsUsed >= order.FilmsTotal {
		return gorm.ErrRecordNotFound
	}
	order.FilmsUsed++
	if order.FilmsUsed >= order.FilmsTotal {
		order.Status = models.OrderStatusCompleted
	}
	r.consume++
	return nil
}

type fakeFilmRepo struct {
	films  map[uint]*models.Film
	nextID uint
}

func newFakeFilmRepo() *fakeFilmRepo {
	return &fakeFilmRepo{films: map[uint]*models.Film{}}
}

func (r *fakeFilmRepo) Create(film *models.Film) error {
	for _, existing := range r.films {
		if existing.OrderID == film.OrderID && existing.Status.Open() {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	r.nextID++
	film.ID = r.nextID
	if film.Status == "" {
		film.Status = models.FilmStatusPendingUpload
	}
	film.CreatedAt = time.Now()
	copied := *film
	r.films[film.ID] = &copied
	return nil
}

func (r *fakeFilmRepo) GetByID(id uint) (*models.Film, error) {
	film, ok := r.films[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *film
	return &copied, nil
}

func (r *fakeFilmRepo) GetOpenFilm(orderID uint) (*models.Film, error) {
	var latest *models.Film
	for _, film := range r.films {
		if film.OrderID != orderID || !film.Status.Open() {
			continue
		}
		if latest == nil || film.ID > latest.ID {
			latest = film
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeFilmRepo) GetUserFilms(userID uint) ([]models.Film, error) {
	var films []models.Film
	for _, film := range r.films {
		if film.UserID == userID {
			films = append(films, *film)
		}
	}
	return films, nil
}

func (r *fakeFilmRepo) Update(film *models.Film) error {
	if _, ok := r.films[film.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *film
	r.films[film.ID] = &copied
	return nil
}

func (r *fakeFilmRepo) MarkCompleted(filmID uint, outputFile string) error {
	film, ok := r.films[filmID]
	if !ok || film.Status == models.FilmStatusCompleted {
		return gorm.ErrRecordNotFound
	}
	film.Status = models.FilmStatusCompleted
	film.OutputFile = outputFile
	return nil
}

type fakeTokenRepo struct {
	tokens map[uint]*models.LoginToken
	nextID uint
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[uint]*models.LoginToken{}}
}

func (r *fakeTokenRepo) Create(token *models.LoginToken) error {
	r.nextID++
	token.ID = r.nextID
	copied := *token
	r.tokens[token.ID] = &copied
	return nil
}

func (r *fakeTokenRepo) GetByID(id uint) (*models.LoginToken, error) {
	token, ok := r.tokens[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *fakeTokenRepo) MarkUsed(id uint) error {
	token, ok := r.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	token.UsedAt = &now
	return nil
}

// fakeStorage is an in-memory stand-in for the R2 bucket.
type fakeStorage struct {
	objects  map[string]int64
	failKeys map[string]bool
	presigns []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:  map[string]int64{},
		failKeys: map[string]bool{},
	}
}

func (s *fakeStorage) Upload(key string, reader io.Reader) error {
	if s.failKeys[key] {
		return errors.New("storage unavailable")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.objects[key] = int64(len(data))
	return nil
}

func (s *fakeStorage) Delete(key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) Move(srcKey, dstKey string) error {
	size, ok := s.objects[srcKey]
	if !ok {
		return errors.New("no such key: " + srcKey)
	}
	delete(s.objects, srcKey)
	s.objects[dstKey] = size
	return nil
}

func (s *fakeStorage) List(prefix string) ([]storage.Object, error) {
	var objects []storage.Object
	for key, size := range s.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, storage.Object{Key: key, Size: size})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *fakeStorage) PresignGet(key string, expiry time.Duration) (string, error) {
	if _, ok := s.objects[key]; !ok {
		return "", errors.New("no such key: " + key)
	}
	s.presigns = append(s.presigns, key)
	return fmt.Sprintf("https://signed.example/%s?expires=%d", key, int64(expiry.Seconds())), nil
}

type fakeMailer struct {
	magicLinks []string
	readyTo    []string
	sendErr    error
}

func (m *fakeMailer) SendMagicLinkEmail(email, link string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.magicLinks = append(m.magicLinks, link)
	return nil
}

func (m *fakeMailer) SendFilmReadyEmail(email, name string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.readyTo = append(m.readyTo, email)
	return nil
}

type fakeWorker struct {
	launched []string
	err      error
}

func (w *fakeWorker) LaunchRender(filmID string) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.launched = append(w.launched, filmID)
	return "machine-1", nil
}

type fakeDispatcher struct {
	dispatched []uint
	err        error
}

func (d *fakeDispatcher) Dispatch(film *models.Film) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.dispatched = append(d.dispatched, film.ID)
	return "machine-1", nil
}

type fakeNotifier struct {
	notified []uint
	err      error
}

func (n *fakeNotifier) NotifyReady(film *models.Film) error {
	if n.err != nil {
		return n.err
	}
	n.notified = append(n.notified, film.ID)
	return nil
}

type fakeGateway struct {
	sessions map[string]*stripe.CheckoutSession
	created  []map[string]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*stripe.CheckoutSession{}}
}

func (g *fakeGateway) CreateCheckoutSession(priceID string, metadata map[string]string) (*stripe.CheckoutSession, error) {
	g.created = append(g.created, metadata)
	return &stripe.CheckoutSession{
		ID:  "cs_test_new",
		URL: "https://checkout.stripe.com/pay/cs_test_new",
	}, nil
}

func (g *fakeGateway) GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error) {
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}
	return session, nil
}

func paidSession(id, email, plan string, filmsTotal int) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            id,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: email,
		},
		Metadata: map[string]string{
			"plan":        plan,
			"films_total": fmt.Sprintf("%d", filmsTotal),
		},
		AmountTotal: 2900,
		Currency:    stripe.CurrencyUSD,
	}
}

// multipartFiles builds real multipart file headers for upload tests.
func multipartFiles(names []string, contentType string) ([]*multipart.FileHeader, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, name := range names {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="photos"; filename="%s"`, name))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write([]byte("image-bytes-" + name)); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		return nil, err
	}
	return form.File["photos"], nil
}
