package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/movila/flashback-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// brokenOpenFilmRepo fails open-film lookups with a non-not-found error.
type brokenOpenFilmRepo struct {
	*fakeFilmRepo
	err error
}

func (r *brokenOpenFilmRepo) GetOpenFilm(orderID uint) (*models.Film, error) {
	return nil, r.err
}

func newFilmFixture(t *testing.T) (*FilmService, *fakeFilmRepo, *fakeOrderRepo, *fakeStorage, *fakeDispatcher) {
	t.Helper()
	filmRepo := newFakeFilmRepo()
	orderRepo := newFakeOrderRepo()
	store := newFakeStorage()
	dispatcher := &fakeDispatcher{}
	svc := NewFilmService(filmRepo, orderRepo, store, dispatcher, zap.NewNop())
	return svc, filmRepo, orderRepo, store, dispatcher
}

func seedOrder(t *testing.T, orderRepo *fakeOrderRepo, userID uint, filmsTotal int) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:          userID,
		StripeSessionID: fmt.Sprintf("cs_test_%d_%d", userID, orderRepo.nextID+1),
		Plan:            models.PlanSingle,
		FilmsTotal:      filmsTotal,
		Status:          models.OrderStatusActive,
	}
	require.NoError(t, orderRepo.Create(order))
	return order
}

func seedPhotos(t *testing.T, store *fakeStorage, filmID uint, names ...string) {
	t.Helper()
	for _, name := range names {
		key := fmt.Sprintf("films/%d/%s", filmID, name)
		store.objects[key] = 1024
	}
}

func TestResumeOrCreateFilm(t *testing.T) {
	t.Run("creates a film when order has quota", func(t *testing.T) {
		svc, _, orderRepo, _, _ := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 1)

		film, err := svc.ResumeOrCreateFilm(1, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, film.OrderID)
		assert.Equal(t, uint(1), film.UserID)
		assert.Equal(t, models.FilmStatusPendingUpload, film.Status)
	})

	t.Run("returns the existing open film instead of a new one", func(t *testing.T) {
		svc, _, orderRepo, _, _ := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 3)

		first, err := svc.ResumeOrCreateFilm(1, order.ID)
		require.NoError(t, err)

		second, err := svc.ResumeOrCreateFilm(1, order.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("rejects other users' orders", func(t *testing.T) {
		svc, _, orderRepo, _, _ := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 1)

		_, err := svc.ResumeOrCreateFilm(2, order.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("surfaces lookup failures instead of creating a film", func(t *testing.T) {
		svc, filmRepo, orderRepo, store, _ := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 1)
		lookupErr := errors.New("connection refused")
		svc = NewFilmService(&brokenOpenFilmRepo{filmRepo, lookupErr}, orderRepo, store, &fakeDispatcher{}, zap.NewNop())

		_, err := svc.ResumeOrCreateFilm(1, order.ID)
		assert.ErrorIs(t, err, lookupErr)
		assert.Empty(t, filmRepo.films)
	})

	t.Run("rejects an exhausted order", func(t *testing.T) {
		svc, _, orderRepo, _, _ := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 1)
		orderRepo.orders[order.ID].FilmsUsed = 1
		orderRepo.orders[order.ID].Status = models.OrderStatusCompleted

		_, err := svc.ResumeOrCreateFilm(1, order.ID)
		assert.ErrorIs(t, err, ErrNoFilmsRemaining)
	})
}

func TestUploadPhotos(t *testing.T) {
	t.Run("stores photos and moves the film to uploading", func(t *testing.T) {
		svc, _, orderRepo, store, _ := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 1)
		film, err := svc.ResumeOrCreateFilm(1, order.ID)
		require.NoError(t, err)

		files, err := multipartFiles([]string{"a.jpg", "b.jpg", "c.jpg"}, "image/jpeg")
		require.NoError(t, err)

		updated, err := svc.UploadPhotos(film.ID, 1, files)
		require.NoError(t, err)
		assert.Equal(t, 3, updated.PhotosCount)
		assert.Equal(t, models.FilmStatusUploading, updated.Status)

		objects, err := store.List(fmt.Sprintf("films/%d/", film.ID))
		require.NoError(t, err)
		assert.Len(t, objects, 3)
	})

	t.Run("drops files beyond the photo cap", func(t *testing.T) {
		svc, _, orderRepo, store, _ := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 1)
		film, err := svc.ResumeOrCreateFilm(1, order.ID)
		require.NoError(t, err)

		var names []string
		for i := 0; i < MaxPhotos+5; i++ {
			names = append(names, fmt.Sprintf("photo-%02d.jpg", i))
		}
		files, err := multipartFiles(names, "image/jpeg")
		require.NoError(t, err)

		updated, err := svc.UploadPhotos(film.ID, 1, files)
		require.NoError(t, err)
		assert.Equal(t, MaxPhotos, updated.PhotosCount)

		objects, err := store.List(fmt.Sprintf("films/%d/", film.ID))
		require.NoError(t, err)
		assert.Len(t, objects, MaxPhotos)
	})

	t.Run("skips unsupported content types without failing the batch", func(t *testing.T) {
		svc, _, orderRepo, _, _ := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 1)
		film, err := svc.ResumeOrCreateFilm(1, order.ID)
		require.NoError(t, err)

		good, err := multipartFiles([]string{"a.jpg"}, "image/jpeg")
		require.NoError(t, err)
		bad, err := multipartFiles([]string{"b.pdf"}, "application/pdf")
		require.NoError(t, err)

		updated, err := svc.UploadPhotos(film.ID, 1, append(good, bad...))
		require.NoError(t, err)
		assert.Equal(t, 1, updated.PhotosCount)
	})

	t.Run("rejects a closed film", func(t *testing.T) {
		svc, filmRepo, orderRepo, _, _ := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 1)
		film, err := svc.ResumeOrCreateFilm(1, order.ID)
		require.NoError(t, err)
		filmRepo.films[film.ID].Status = models.FilmStatusProcessing

		files, err := multipartFiles([]string{"a.jpg"}, "image/jpeg")
		require.NoError(t, err)

		_, err = svc.UploadPhotos(film.ID, 1, files)
		assert.ErrorIs(t, err, ErrFilmNotOpen)
	})
}

func TestListPhotos(t *testing.T) {
	svc, _, orderRepo, store, _ := newFilmFixture(t)
	order := seedOrder(t, orderRepo, 1, 1)
	film, err := svc.ResumeOrCreateFilm(1, order.ID)
	require.NoError(t, err)
	seedPhotos(t, store, film.ID, "100_0.jpg", "200_1.jpg")

	photos, err := svc.ListPhotos(film.ID, 1)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "100_0.jpg", photos[0].Name)
	assert.Contains(t, photos[0].URL, "https://signed.example/")

	_, err = svc.ListPhotos(film.ID, 2)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeletePhoto(t *testing.T) {
	svc, _, orderRepo, store, _ := newFilmFixture(t)
	order := seedOrder(t, orderRepo, 1, 1)
	film, err := svc.ResumeOrCreateFilm(1, order.ID)
	require.NoError(t, err)
	seedPhotos(t, store, film.ID, "100_0.jpg", "200_1.jpg")

	t.Run("removes the object and refreshes the count", func(t *testing.T) {
		updated, err := svc.DeletePhoto(film.ID, 1, "100_0.jpg")
		require.NoError(t, err)
		assert.Equal(t, 1, updated.PhotosCount)
		_, exists := store.objects[fmt.Sprintf("films/%d/100_0.jpg", film.ID)]
		assert.False(t, exists)
	})

	t.Run("rejects traversal in the photo name", func(t *testing.T) {
		for _, name := range []string{"", "../secret", "a/b.jpg"} {
			_, err := svc.DeletePhoto(film.ID, 1, name)
			assert.ErrorIs(t, err, ErrInvalidPhotoName)
		}
	})
}

func TestSubmitFilm(t *testing.T) {
	ordered := []string{"500_4.jpg", "100_0.jpg", "300_2.jpg", "200_1.jpg", "400_3.jpg"}

	setup := func(t *testing.T) (*FilmService, *fakeFilmRepo, *fakeOrderRepo, *fakeStorage, *fakeDispatcher, *models.Film, *models.Order) {
		svc, filmRepo, orderRepo, store, dispatcher := newFilmFixture(t)
		order := seedOrder(t, orderRepo, 1, 2)
		film, err := svc.ResumeOrCreateFilm(1, order.ID)
		require.NoError(t, err)
		seedPhotos(t, store, film.ID, ordered...)
		return svc, filmRepo, orderRepo, store, dispatcher, film, order
	}

	t.Run("renames photos to positional keys and dispatches", func(t *testing.T) {
		svc, _, orderRepo, store, dispatcher, film, order := setup(t)

		updated, err := svc.SubmitFilm(film.ID, 1, ordered)
		require.NoError(t, err)
		assert.Equal(t, models.FilmStatusProcessing, updated.Status)
		assert.Equal(t, len(ordered), updated.PhotosCount)

		// The caller's order, not lexical order, decides the final names.
		prefix := fmt.Sprintf("films/%d/", film.ID)
		for i := range ordered {
			_, exists := store.objects[fmt.Sprintf("%s%d.jpg", prefix, i+1)]
			assert.True(t, exists, "missing canonical photo %d", i+1)
		}

		assert.Equal(t, []uint{film.ID}, dispatcher.dispatched)
		assert.Equal(t, 1, orderRepo.orders[order.ID].FilmsUsed)
		assert.Equal(t, models.OrderStatusActive, orderRepo.orders[order.ID].Status)
	})

	t.Run("consumes the last film and completes the order", func(t *testing.T) {
		svc, _, orderRepo, _, _, film, order := setup(t)
		orderRepo.orders[order.ID].FilmsUsed = 1

		_, err := svc.SubmitFilm(film.ID, 1, ordered)
		require.NoError(t, err)
		assert.Equal(t, 2, orderRepo.orders[order.ID].FilmsUsed)
		assert.Equal(t, models.OrderStatusCompleted, orderRepo.orders[order.ID].Status)
	})

	t.Run("rejects too few photos", func(t *testing.T) {
		svc, _, _, _, _, film, _ := setup(t)
		_, err := svc.SubmitFilm(film.ID, 1, ordered[:MinPhotos-1])
		assert.ErrorIs(t, err, ErrInsufficientPhotos)
	})

	t.Run("rejects too many photos", func(t *testing.T) {
		svc, _, _, _, _, film, _ := setup(t)
		var names []string
		for i := 0; i <= MaxPhotos; i++ {
			names = append(names, fmt.Sprintf("%d.jpg", i))
		}
		_, err := svc.SubmitFilm(film.ID, 1, names)
		assert.ErrorIs(t, err, ErrTooManyPhotos)
	})

	t.Run("rejects a second submit for the same film", func(t *testing.T) {
		svc, _, orderRepo, _, dispatcher, film, order := setup(t)

		_, err := svc.SubmitFilm(film.ID, 1, ordered)
		require.NoError(t, err)

		_, err = svc.SubmitFilm(film.ID, 1, ordered)
		assert.ErrorIs(t, err, ErrFilmNotOpen)
		assert.Equal(t, 1, orderRepo.orders[order.ID].FilmsUsed)
		assert.Len(t, dispatcher.dispatched, 1)
	})

	t.Run("keeps the film processing when dispatch fails", func(t *testing.T) {
		svc, filmRepo, _, _, dispatcher, film, _ := setup(t)
		dispatcher.err = ErrWorkerUnavailable

		updated, err := svc.SubmitFilm(film.ID, 1, ordered)
		require.NoError(t, err)
		assert.Equal(t, models.FilmStatusProcessing, updated.Status)
		assert.Equal(t, models.FilmStatusProcessing, filmRepo.films[film.ID].Status)
	})
}
