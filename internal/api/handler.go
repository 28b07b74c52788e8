// Package api exposes the thin host HTTP surface: statement upload, listing,
// re-export trigger and export download. It is a boundary over the pipeline
// and the store; no parsing or export logic lives here.
package api

import (
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/izvodcg/izvod/internal/models"
	"github.com/izvodcg/izvod/internal/parser"
	"github.com/izvodcg/izvod/internal/pipeline"
	"github.com/izvodcg/izvod/internal/store"
)

const version = "1.0.0"

// Handler wires the HTTP routes to the pipeline and store.
type Handler struct {
	Registry *parser.Registry
	Store    *store.Store
	Pipeline *pipeline.Pipeline
	Log      *slog.Logger
}

// RegisterRoutes attaches all API routes to the fiber app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Get("/api/banks", h.HandleBanks)
	app.Post("/api/statements", h.HandleUpload)
	app.Get("/api/statements", h.HandleList)
	app.Get("/api/statements/:id", h.HandleGet)
	app.Post("/api/statements/:id/export", h.HandleReExport)
	app.Get("/api/statements/:id/download", h.HandleDownload)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
		"engine":  "fiber",
	})
}

// HandleBanks lists the supported bank codes and display names.
func (h *Handler) HandleBanks(c *fiber.Ctx) error {
	return c.JSON(h.Registry.Banks())
}

// statementView is the JSON shape of a persisted statement.
type statementView struct {
	ID              int64  `json:"id"`
	BankCode        string `json:"bankCode"`
	BankName        string `json:"bankName"`
	AccountNumber   string `json:"accountNumber"`
	StatementNumber string `json:"statementNumber"`
	StatementDate   string `json:"statementDate,omitempty"`
	Currency        string `json:"currency"`
	ClientName      string `json:"clientName"`
	SourceFile      string `json:"sourceFile"`
	Status          string `json:"status"`
	ExportFile      string `json:"exportFile,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	Transactions    int    `json:"transactions,omitempty"`
}

func toView(st *store.Statement) statementView {
	v := statementView{
		ID:              st.ID,
		BankCode:        st.BankCode,
		BankName:        st.BankName,
		AccountNumber:   st.AccountNumber,
		StatementNumber: st.StatementNumber,
		Currency:        st.Currency,
		ClientName:      st.ClientName,
		SourceFile:      st.SourceFile,
		Status:          string(st.Status),
		ExportFile:      st.ExportFile,
		ErrorMessage:    st.ErrorMessage,
		Transactions:    len(st.Transactions),
	}
	if !st.StatementDate.IsZero() {
		v.StatementDate = st.StatementDate.Format("2006-01-02")
	}
	return v
}

// HandleUpload ingests one uploaded statement file for a bank code. The file
// runs through the same parse/persist/export path as the directory scanner.
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	bankCode := c.FormValue("bank")
	if bankCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing form field 'bank'")
	}
	if _, err := h.Registry.Lookup(bankCode); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "no file uploaded, use form field 'file'")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot open upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot read upload")
	}

	// Uploads bypass the scanner's filename dedup: a unique source name
	// keeps re-uploads of the same document distinguishable.
	sourceName := fileHeader.Filename + "#" + uuid.NewString()[:8]

	parsed, err := h.Registry.Parse(bankCode, fileHeader.Filename, data)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if ok, msg := parsed.Reconcile(models.DefaultReconcileTolerance); !ok {
		h.Log.Warn("reconciliation mismatch", "file", fileHeader.Filename, "detail", msg)
	}

	id, err := h.Store.SaveStatement(c.Context(), parsed, sourceName)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	exportPath, err := h.Pipeline.ReExport(c.Context(), id)
	if err != nil {
		h.Log.Error("export after upload failed", "statement", id, "error", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":           id,
		"bankCode":     parsed.BankCode,
		"account":      parsed.AccountNumber,
		"transactions": len(parsed.Transactions),
		"exportFile":   exportPath,
	})
}

// transactionView is the JSON shape of one transaction in the detail view.
// Amounts are fixed-point strings so nothing rounds in transit.
type transactionView struct {
	RowNumber           int    `json:"rowNumber"`
	ValueDate           string `json:"valueDate,omitempty"`
	BookingDate         string `json:"bookingDate,omitempty"`
	Debit               string `json:"debit,omitempty"`
	Credit              string `json:"credit,omitempty"`
	Fee                 string `json:"fee,omitempty"`
	Counterparty        string `json:"counterparty,omitempty"`
	CounterpartyAccount string `json:"counterpartyAccount,omitempty"`
	CounterpartyBank    string `json:"counterpartyBank,omitempty"`
	PaymentCode         string `json:"paymentCode,omitempty"`
	Purpose             string `json:"purpose,omitempty"`
	ReferenceDebit      string `json:"referenceDebit,omitempty"`
	ReferenceCredit     string `json:"referenceCredit,omitempty"`
}

// statementDetail is the single-statement view: the list fields plus
// balances and the full transaction list.
type statementDetail struct {
	statementView
	OpeningBalance string            `json:"openingBalance"`
	ClosingBalance string            `json:"closingBalance"`
	TotalDebit     string            `json:"totalDebit"`
	TotalCredit    string            `json:"totalCredit"`
	Transactions   []transactionView `json:"transactions"`
}

func toDetail(st *store.Statement) statementDetail {
	d := statementDetail{
		statementView:  toView(st),
		OpeningBalance: st.OpeningBalance.StringFixed(2),
		ClosingBalance: st.ClosingBalance.StringFixed(2),
		TotalDebit:     st.TotalDebit.StringFixed(2),
		TotalCredit:    st.TotalCredit.StringFixed(2),
		Transactions:   make([]transactionView, 0, len(st.Transactions)),
	}
	for _, tx := range st.Transactions {
		v := transactionView{
			RowNumber:           tx.RowNumber,
			Counterparty:        tx.Counterparty,
			CounterpartyAccount: tx.CounterpartyAccount,
			CounterpartyBank:    tx.CounterpartyBank,
			PaymentCode:         tx.PaymentCode,
			Purpose:             tx.Purpose,
			ReferenceDebit:      tx.ReferenceDebit,
			ReferenceCredit:     tx.ReferenceCredit,
		}
		if !tx.ValueDate.IsZero() {
			v.ValueDate = tx.ValueDate.Format("2006-01-02")
		}
		if !tx.BookingDate.IsZero() {
			v.BookingDate = tx.BookingDate.Format("2006-01-02")
		}
		if tx.Debit.IsPositive() {
			v.Debit = tx.Debit.StringFixed(2)
		}
		if tx.Credit.IsPositive() {
			v.Credit = tx.Credit.StringFixed(2)
		}
		if tx.Fee.IsPositive() {
			v.Fee = tx.Fee.StringFixed(2)
		}
		d.Transactions = append(d.Transactions, v)
	}
	return d
}

// HandleGet returns one statement with its transactions.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid statement id")
	}

	st, err := h.Store.Get(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "statement not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(toDetail(st))
}

// HandleList returns persisted statements, newest first.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	statements, err := h.Store.List(c.Context(), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	views := make([]statementView, 0, len(statements))
	for _, st := range statements {
		views = append(views, toView(st))
	}
	return c.JSON(views)
}

// HandleReExport regenerates the exchange file for a statement.
func (h *Handler) HandleReExport(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid statement id")
	}

	path, err := h.Pipeline.ReExport(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "statement not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(fiber.Map{"id": id, "exportFile": path})
}

// HandleDownload streams the last exported file of a statement.
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid statement id")
	}

	st, err := h.Store.Get(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "statement not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if st.ExportFile == "" {
		return fiber.NewError(fiber.StatusNotFound, "statement has no export file")
	}
	return c.Download(st.ExportFile)
}

// NewApp builds the fiber application with routes registered.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "izvod",
		BodyLimit: 32 << 20,
	})
	h.RegisterRoutes(app)
	return app
}
