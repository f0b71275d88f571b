package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
	"github.com/isabelleeeesv/tiktok-genius-app/pkg/archive"
)

type favoriteCreateRequest struct {
	Feature string `json:"feature"`
	Product string `json:"product"`
	Content string `json:"content"`
}

type favoriteDTO struct {
	ID        string    `json:"id"`
	Feature   string    `json:"feature"`
	Product   string    `json:"product"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoritesCreate saves a generation result. Favorites are a subscriber
// feature; free accounts are refused.
func (a *App) FavoritesCreate(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireSubscriber(w, r)
	if !ok {
		return
	}
	var req favoriteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	feature, ok := domain.ParseFeature(req.Feature)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown feature")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "content is required")
		return
	}
	fav, err := a.Favorites.Create(r.Context(), &domain.Favorite{
		AccountID: account.ID,
		Feature:   feature,
		Product:   strings.TrimSpace(req.Product),
		Content:   content,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("create favorite failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "favorite store unreachable")
		return
	}
	a.json(w, http.StatusCreated, toFavoriteDTO(*fav))
}

// FavoritesList returns the caller's saved results, newest first.
func (a *App) FavoritesList(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireSubscriber(w, r)
	if !ok {
		return
	}
	favs, err := a.Favorites.ListByAccount(r.Context(), account.ID, 50)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list favorites failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "favorite store unreachable")
		return
	}
	items := make([]favoriteDTO, 0, len(favs))
	for _, f := range favs {
		items = append(items, toFavoriteDTO(f))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// FavoritesDelete removes one saved result owned by the caller.
func (a *App) FavoritesDelete(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireSubscriber(w, r)
	if !ok {
		return
	}
	favoriteID := chi.URLParam(r, "id")
	if favoriteID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	if err := a.Favorites.Delete(r.Context(), account.ID, favoriteID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "favorite not found")
			return
		}
		a.Logger.Error().Err(err).Msg("delete favorite failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "favorite store unreachable")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// FavoritesExport streams the caller's saved results as a zip of text files.
func (a *App) FavoritesExport(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireSubscriber(w, r)
	if !ok {
		return
	}
	favs, err := a.Favorites.ListByAccount(r.Context(), account.ID, 200)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list favorites failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "favorite store unreachable")
		return
	}
	if len(favs) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "nothing saved yet")
		return
	}
	entries := make([]archive.Entry, 0, len(favs))
	for i, f := range favs {
		entries = append(entries, archive.Entry{
			Name: fmt.Sprintf("%03d-%s.txt", i+1, f.Feature),
			Body: []byte(f.Content + "\n"),
		})
	}
	data, err := archive.Build(entries)
	if err != nil {
		a.Logger.Error().Err(err).Msg("build favorites archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="favorites.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *App) requireSubscriber(w http.ResponseWriter, r *http.Request) (*domain.Account, bool) {
	account, ok := a.requireAccount(w, r)
	if !ok {
		return nil, false
	}
	if !account.Subscription.Active() {
		a.error(w, http.StatusForbidden, "subscription_required", domain.ErrSubscriptionOnly.Error())
		return nil, false
	}
	return account, true
}

func toFavoriteDTO(f domain.Favorite) favoriteDTO {
	return favoriteDTO{
		ID:        f.ID,
		Feature:   string(f.Feature),
		Product:   f.Product,
		Content:   f.Content,
		CreatedAt: f.CreatedAt,
	}
}
