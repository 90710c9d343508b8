package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/apperr"
	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/service"
)

// StoreAPI is the store management behind /api/admin/stores, /api/stores
// and the owner dashboard.
type StoreAPI interface {
	Create(ctx context.Context, in service.CreateStoreInput) (uint64, error)
	List(ctx context.Context, f model.StoreFilter) ([]model.StoreView, error)
	Get(ctx context.Context, id uint64) (*model.StoreView, error)
	Update(ctx context.Context, id uint64, in service.UpdateStoreInput) error
	Delete(ctx context.Context, id uint64) error
	ListForUser(ctx context.Context, userID uint64, f model.StoreFilter) ([]model.UserStoreView, error)
	OwnerDashboard(ctx context.Context, ownerID uint64) (*model.OwnerDashboard, error)
}

// AdminStoreHandler serves store CRUD.
type AdminStoreHandler struct {
	Stores StoreAPI
}

func NewAdminStoreHandler(stores StoreAPI) *AdminStoreHandler {
	return &AdminStoreHandler{Stores: stores}
}

// storeReq keeps owner_id raw so that an explicit null can be told apart
// from an absent field.
type storeReq struct {
	Name    *string         `json:"name"`
	Email   *string         `json:"email"`
	Address *string         `json:"address"`
	OwnerID json.RawMessage `json:"owner_id"`
}

// ownerID decodes owner_id: nil when absent, 0 when null.
func (r storeReq) ownerID() (*uint64, error) {
	raw := strings.TrimSpace(string(r.OwnerID))
	if raw == "" {
		return nil, nil
	}
	var id uint64
	if raw != "null" {
		if err := json.Unmarshal(r.OwnerID, &id); err != nil {
			return nil, apperr.Validation("Provided owner_id is not a valid store owner user.")
		}
	}
	return &id, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Create adds a store.
func (h *AdminStoreHandler) Create(c echo.Context) error {
	var req storeReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	owner, err := req.ownerID()
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Stores.Create(ctx, service.CreateStoreInput{
		Name:    deref(req.Name),
		Email:   deref(req.Email),
		Address: deref(req.Address),
		OwnerID: owner,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Store added successfully!", "storeId": id})
}

// List returns stores with their live average rating.
func (h *AdminStoreHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stores, err := h.Stores.List(ctx, storeFilter(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stores)
}

// Get returns one store.
func (h *AdminStoreHandler) Get(c echo.Context) error {
	id, err := pathID(c, "store")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Stores.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Update applies a partial store update; "owner_id": null detaches the owner.
func (h *AdminStoreHandler) Update(c echo.Context) error {
	id, err := pathID(c, "store")
	if err != nil {
		return fail(c, err)
	}
	var req storeReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	owner, err := req.ownerID()
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Stores.Update(ctx, id, service.UpdateStoreInput{
		Name:    trimmed(req.Name),
		Email:   trimmed(req.Email),
		Address: trimmed(req.Address),
		OwnerID: owner,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, msg{Message: "Store updated successfully."})
}

// Delete removes a store and its ratings.
func (h *AdminStoreHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "store")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Stores.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, msg{Message: "Store deleted successfully."})
}

func storeFilter(c echo.Context) model.StoreFilter {
	sort, desc := sortOrder(c)
	return model.StoreFilter{
		Name:    strings.TrimSpace(c.QueryParam("name")),
		Email:   strings.TrimSpace(c.QueryParam("email")),
		Address: strings.TrimSpace(c.QueryParam("address")),
		Sort:    sort,
		Desc:    desc,
	}
}
