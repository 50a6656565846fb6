package api

import (
	"context"
	"strconv"
	"strings"
	"time"

	"clarity/middleware"
	"clarity/models"
	"clarity/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionStore is the ledger persistence the transaction handlers need
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	Get(ctx context.Context, userID, id uint) (*models.Transaction, error)
	List(ctx context.Context, userID uint, filter store.TransactionFilter) ([]models.Transaction, error)
	Update(ctx context.Context, userID, id uint, patch models.TransactionPatch) (*models.Transaction, error)
	Delete(ctx context.Context, userID, id uint) (*models.Transaction, error)
	Summarize(ctx context.Context, userID uint, filter store.TransactionFilter) (store.Summary, error)
	Categories(ctx context.Context, userID uint) ([]string, error)
}

// TransactionHandler serves the caller's ledger
type TransactionHandler struct {
	transactions TransactionStore
}

// NewTransactionHandler creates the transaction handler
func NewTransactionHandler(transactions TransactionStore) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// TransactionRequest is the body of create and update. On update every
// field is optional and omitted fields keep their stored value.
type TransactionRequest struct {
	Type        *string          `json:"type" example:"expense" enums:"income,expense"`
	Kind        *string          `json:"kind,omitempty" swaggerignore:"true"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"number" example:"12.50"`
	Category    *string          `json:"category" example:"Food"`
	Description *string          `json:"description" example:"lunch"`
	Date        *string          `json:"date" example:"2024-01-15"`
}

// patch converts the body into a partial update, parsing the date
func (r TransactionRequest) patch() (models.TransactionPatch, error) {
	p := models.TransactionPatch{
		Type:        r.Type,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
	}
	if p.Type == nil {
		p.Type = r.Kind
	}
	if r.Date != nil {
		d, err := parseDate("date", *r.Date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	return p, nil
}

// required reports the first field a create body is missing
func (r TransactionRequest) required() error {
	switch {
	case r.Type == nil && r.Kind == nil:
		return &models.ValidationError{Field: "type", Message: "type is required"}
	case r.Amount == nil:
		return &models.ValidationError{Field: "amount", Message: "amount is required"}
	case r.Category == nil:
		return &models.ValidationError{Field: "category", Message: "category is required"}
	case r.Date == nil:
		return &models.ValidationError{Field: "date", Message: "date is required"}
	}
	return nil
}

// TransactionResponse is a transaction as the client renders it
type TransactionResponse struct {
	ID          uint      `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Type:        t.Type,
		Amount:      t.Amount.InexactFloat64(),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.Format(models.DateLayout),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// TransactionListResponse list payload
type TransactionListResponse struct {
	Count        int                   `json:"count"`
	Transactions []TransactionResponse `json:"transactions"`
}

// SummaryResponse totals over the filtered transactions
type SummaryResponse struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Balance      float64 `json:"balance"`
	Count        int64   `json:"count"`
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: field, Message: field + " must be a date in YYYY-MM-DD format"}
	}
	return d, nil
}

// parseFilter reads type, category, startDate and endDate from the query string
func parseFilter(c *gin.Context) (store.TransactionFilter, error) {
	var f store.TransactionFilter

	if t := strings.TrimSpace(c.Query("type")); t != "" {
		if !models.IsValidType(t) {
			return f, &models.ValidationError{Field: "type", Message: "type must be either income or expense"}
		}
		f.Type = t
	}
	f.Category = strings.TrimSpace(c.Query("category"))

	if s := c.Query("startDate"); s != "" {
		d, err := parseDate("startDate", s)
		if err != nil {
			return f, err
		}
		f.StartDate = &d
	}
	if s := c.Query("endDate"); s != "" {
		d, err := parseDate("endDate", s)
		if err != nil {
			return f, err
		}
		f.EndDate = &d
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return f, &models.ValidationError{Field: "endDate", Message: "endDate must not be before startDate"}
	}
	return f, nil
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		ValidationFailed(c, &models.ValidationError{Field: "id", Message: "invalid transaction id"})
		return 0, false
	}
	return uint(id), true
}

const transactionNotFound = "transaction not found"

// Create records a transaction
// @Summary Create transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "transaction"
// @Success 201 {object} Response{data=TransactionResponse} "created"
// @Failure 400 {object} Response{data=FieldError} "validation failed"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	if err := req.required(); err != nil {
		respondError(c, "create transaction", err, transactionNotFound)
		return
	}
	patch, err := req.patch()
	if err != nil {
		respondError(c, "create transaction", err, transactionNotFound)
		return
	}

	tx := models.Transaction{UserID: userID}
	patch.ApplyTo(&tx)
	if err := tx.Validate(); err != nil {
		respondError(c, "create transaction", err, transactionNotFound)
		return
	}

	if err := h.transactions.Create(storeContext(c), &tx); err != nil {
		respondError(c, "create transaction", err, transactionNotFound)
		return
	}

	Created(c, "transaction created successfully", newTransactionResponse(&tx))
}

// List returns the caller's transactions, newest first
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param type query string false "income or expense"
// @Param category query string false "exact category"
// @Param startDate query string false "inclusive lower bound (YYYY-MM-DD)"
// @Param endDate query string false "inclusive upper bound (YYYY-MM-DD)"
// @Success 200 {object} Response{data=TransactionListResponse} "ok"
// @Failure 400 {object} Response{data=FieldError} "bad filter"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, "list transactions", err, transactionNotFound)
		return
	}

	txs, err := h.transactions.List(storeContext(c), userID, filter)
	if err != nil {
		respondError(c, "list transactions", err, transactionNotFound)
		return
	}

	list := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		list = append(list, newTransactionResponse(&txs[i]))
	}
	Success(c, TransactionListResponse{Count: len(list), Transactions: list})
}

// Get returns one owned transaction
// @Summary Get transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "transaction id"
// @Success 200 {object} Response{data=TransactionResponse} "ok"
// @Failure 400 {object} Response{data=FieldError} "bad id"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "not found"
// @Router /api/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	tx, err := h.transactions.Get(storeContext(c), userID, id)
	if err != nil {
		respondError(c, "get transaction", err, transactionNotFound)
		return
	}

	Success(c, newTransactionResponse(tx))
}

// Update changes the supplied fields of an owned transaction
// @Summary Update transaction
// @Description Partial update: omitted fields keep their current value
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "transaction id"
// @Param request body TransactionRequest true "fields to change"
// @Success 200 {object} Response{data=TransactionResponse} "updated"
// @Failure 400 {object} Response{data=FieldError} "validation failed"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "not found"
// @Router /api/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	patch, err := req.patch()
	if err == nil {
		err = patch.Validate()
	}
	if err != nil {
		respondError(c, "update transaction", err, transactionNotFound)
		return
	}

	tx, err := h.transactions.Update(storeContext(c), userID, id, patch)
	if err != nil {
		respondError(c, "update transaction", err, transactionNotFound)
		return
	}

	SuccessWithMessage(c, "transaction updated successfully", newTransactionResponse(tx))
}

// Delete removes an owned transaction and returns it
// @Summary Delete transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "transaction id"
// @Success 200 {object} Response{data=TransactionResponse} "deleted"
// @Failure 400 {object} Response{data=FieldError} "bad id"
// @Failure 401 {object} Response "unauthorized"
// @Failure 404 {object} Response "not found"
// @Router /api/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	tx, err := h.transactions.Delete(storeContext(c), userID, id)
	if err != nil {
		respondError(c, "delete transaction", err, transactionNotFound)
		return
	}

	SuccessWithMessage(c, "transaction deleted successfully", newTransactionResponse(tx))
}

// Summary totals the caller's income and expense
// @Summary Transaction totals
// @Description Sums income and expense over the same filters as the list
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param type query string false "income or expense"
// @Param category query string false "exact category"
// @Param startDate query string false "inclusive lower bound (YYYY-MM-DD)"
// @Param endDate query string false "inclusive upper bound (YYYY-MM-DD)"
// @Success 200 {object} Response{data=SummaryResponse} "ok"
// @Failure 400 {object} Response{data=FieldError} "bad filter"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/transactions/summary [get]
func (h *TransactionHandler) Summary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, "summarize transactions", err, transactionNotFound)
		return
	}

	summary, err := h.transactions.Summarize(storeContext(c), userID, filter)
	if err != nil {
		respondError(c, "summarize transactions", err, transactionNotFound)
		return
	}

	Success(c, SummaryResponse{
		TotalIncome:  summary.TotalIncome.InexactFloat64(),
		TotalExpense: summary.TotalExpense.InexactFloat64(),
		Balance:      summary.Balance().InexactFloat64(),
		Count:        summary.Count,
	})
}

// Categories lists the categories the caller has used
// @Summary Used categories
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]string} "ok"
// @Failure 401 {object} Response "unauthorized"
// @Router /api/transactions/categories [get]
func (h *TransactionHandler) Categories(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	categories, err := h.transactions.Categories(storeContext(c), userID)
	if err != nil {
		respondError(c, "list categories", err, transactionNotFound)
		return
	}

	Success(c, categories)
}
