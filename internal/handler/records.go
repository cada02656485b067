// internal/handler/records.go
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/finance"
	"paycheck-tracker/internal/middleware"
	"paycheck-tracker/internal/storage"
	"strings"

	"github.com/gin-gonic/gin"
)

// request is a JSON body that converts to a record of type T.
type request[T any] interface {
	toDomain(id string) (T, error)
}

// resource serves the CRUD routes of one collection.
type resource[R request[T], T any] struct {
	collection domain.Collection
	list       storage.ListFunc[T]
	add        func(ctx context.Context, userID string, rec T) (*T, error)
	update     func(ctx context.Context, userID string, rec T) (*T, error)
	svc        *finance.Service
}

type RecordHandler struct {
	svc   *finance.Service
	store storage.RecordStorage
}

func NewRecordHandler(svc *finance.Service, store storage.RecordStorage) *RecordHandler {
	return &RecordHandler{svc: svc, store: store}
}

// Register mounts the routes of every collection on g.
func (h *RecordHandler) Register(g *gin.RouterGroup) {
	mount(g.Group("/paychecks"), resource[PaycheckRequest, domain.Paycheck]{
		collection: domain.Paychecks,
		list:       h.store.ListPaychecks,
		add:        h.svc.AddPaycheck,
		update:     h.svc.UpdatePaycheck,
		svc:        h.svc,
	})
	mount(g.Group("/expenses"), resource[ExpenseRequest, domain.Expense]{
		collection: domain.Expenses,
		list:       h.store.ListExpenses,
		add:        h.svc.AddExpense,
		update:     h.svc.UpdateExpense,
		svc:        h.svc,
	})
	mount(g.Group("/fixed-expenses"), resource[FixedExpenseRequest, domain.FixedExpense]{
		collection: domain.FixedExpenses,
		list:       h.store.ListFixedExpenses,
		add:        h.svc.AddFixedExpense,
		update:     h.svc.UpdateFixedExpense,
		svc:        h.svc,
	})
	mount(g.Group("/credit-cards"), resource[CreditCardRequest, domain.CreditCard]{
		collection: domain.CreditCards,
		list:       h.store.ListCreditCards,
		add:        h.svc.AddCreditCard,
		update:     h.svc.UpdateCreditCard,
		svc:        h.svc,
	})

	savings := g.Group("/savings")
	// registered before /:id so "current" is not taken for an id
	savings.PUT("/current", h.SetCurrentSavings)
	mount(savings, resource[SavingRequest, domain.Saving]{
		collection: domain.Savings,
		list:       h.store.ListSavings,
		add:        h.svc.AddSaving,
		update:     h.svc.UpdateSaving,
		svc:        h.svc,
	})
}

func mount[R request[T], T any](g *gin.RouterGroup, r resource[R, T]) {
	g.GET("", r.List)
	g.POST("", r.Create)
	g.DELETE("", r.DeleteBatch)
	g.PUT("/:id", r.Update)
	g.DELETE("/:id", r.Delete)
}

func userID(c *gin.Context) (string, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user_id missing"})
	}
	return id, ok
}

// bind decodes and validates the body and converts it to a record.
func bind[R request[T], T any](c *gin.Context, id string) (T, bool) {
	var req R
	var zero T
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return zero, false
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return zero, false
	}
	rec, err := req.toDomain(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return zero, false
	}
	return rec, true
}

func (r resource[R, T]) List(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	records, err := r.list(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "List failed", "user_id", uid, "collection", r.collection)
		return
	}
	if records == nil {
		records = []T{}
	}
	c.JSON(http.StatusOK, records)
}

func (r resource[R, T]) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	rec, ok := bind[R, T](c, "")
	if !ok {
		return
	}
	created, err := r.add(c.Request.Context(), uid, rec)
	if err != nil {
		respondError(c, err, "Create failed", "user_id", uid, "collection", r.collection)
		return
	}
	slog.Info("Record created", "user_id", uid, "collection", r.collection)
	c.JSON(http.StatusCreated, created)
}

func (r resource[R, T]) Update(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	rec, ok := bind[R, T](c, c.Param("id"))
	if !ok {
		return
	}
	updated, err := r.update(c.Request.Context(), uid, rec)
	if err != nil {
		respondError(c, err, "Update failed", "user_id", uid, "collection", r.collection, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (r resource[R, T]) Delete(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := r.svc.Delete(c.Request.Context(), uid, r.collection, c.Param("id")); err != nil {
		respondError(c, err, "Delete failed", "user_id", uid, "collection", r.collection, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteBatch deletes every ?id= given. Ids that fail are listed in the
// response; the others stay deleted.
func (r resource[R, T]) DeleteBatch(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ids := c.QueryArray("id")
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one id query param required"})
		return
	}

	err := r.svc.DeleteMany(c.Request.Context(), uid, r.collection, ids)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": len(ids)})
		return
	}

	var failed []string
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			failed = append(failed, e.Error())
		}
	} else {
		failed = strings.Split(err.Error(), "\n")
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Batch delete failed", "error", err, "user_id", uid, "collection", r.collection)
	}
	c.JSON(status, gin.H{"error": "some records could not be deleted", "failed": failed})
}

// SetCurrentSavings godoc
// @Summary Overwrite the current savings balance
// @Param request body SetSavingsRequest true "Balance"
// @Success 200 {object} domain.Saving
// @Router /api/v1/savings/current [put]
func (h *RecordHandler) SetCurrentSavings(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req SetSavingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := finance.ParseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saving, err := h.svc.SetSavings(c.Request.Context(), uid, amount)
	if err != nil {
		respondError(c, err, "SetSavings failed", "user_id", uid)
		return
	}
	c.JSON(http.StatusOK, saving)
}
