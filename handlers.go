package main

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hbbank/models"
	"hbbank/store"
)

type CreateAccountRequest struct {
	Name           string          `json:"name"`
	AccountType    string          `json:"accountType"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
}

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

type handler struct {
	bank   *store.Store
	logger *slog.Logger
}

func (h *handler) createAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}

	var errs []string
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, "Name cannot be empty")
	}
	accountType, err := models.ParseAccountType(req.AccountType)
	if err != nil || accountType == models.Unknown {
		errs = append(errs, "Account type must be Savings or Deposit")
	}
	if !currencyRegex.MatchString(req.Currency) {
		errs = append(errs, "Currency must be a three letter ISO code")
	}
	if req.InitialBalance.IsNegative() {
		errs = append(errs, "Initial balance cannot be negative")
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	account, err := h.bank.CreateAccount(c.Request.Context(), strings.TrimSpace(req.Name), accountType, req.Currency, req.InitialBalance)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *handler) getAccounts(c *gin.Context) {
	accounts, err := h.bank.GetAccounts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *handler) getAccount(c *gin.Context) {
	id, ok := accountIDParam(c)
	if !ok {
		return
	}
	account, err := h.bank.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *handler) deposit(c *gin.Context) {
	id, ok := accountIDParam(c)
	if !ok {
		return
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	tx, err := h.bank.Deposit(c.Request.Context(), id, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *handler) withdraw(c *gin.Context) {
	id, ok := accountIDParam(c)
	if !ok {
		return
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}
	tx, err := h.bank.Withdraw(c.Request.Context(), id, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *handler) transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}

	var errs []string
	fromID, err := uuid.Parse(req.FromAccountID)
	if err != nil {
		errs = append(errs, "From account ID must be a valid UUID")
	}
	toID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		errs = append(errs, "To account ID must be a valid UUID")
	}
	if !req.Amount.IsPositive() {
		errs = append(errs, "Amount must be positive")
	}
	if req.FromAccountID == req.ToAccountID && req.FromAccountID != "" {
		errs = append(errs, "Cannot transfer to the same account")
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	tx, err := h.bank.Transfer(c.Request.Context(), fromID, toID, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *handler) getTransactions(c *gin.Context) {
	id, ok := accountIDParam(c)
	if !ok {
		return
	}

	var wantType models.TransactionType
	if raw := c.Query("type"); raw != "" {
		parsed, err := models.ParseTransactionType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Type must be Deposit, Withdraw or Transfer"}})
			return
		}
		wantType = parsed
	}

	transactions, err := h.bank.GetTransactions(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	filtered := make([]models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if wantType != "" && tx.Type != wantType {
			continue
		}
		filtered = append(filtered, tx)
	}

	c.JSON(http.StatusOK, gin.H{
		"accountId":    id,
		"transactions": filtered,
	})
}

func (h *handler) saveAccounts(c *gin.Context) {
	if err := h.bank.SaveAccounts(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps domain errors onto status codes; anything else is a 500
func (h *handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
	case errors.Is(err, models.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func accountIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Account ID must be a valid UUID"}})
		return uuid.Nil, false
	}
	return id, true
}

// requestLogger logs one line per request once the handler has finished
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
