package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	saledomain "github.com/smallbiznis/tradebook/internal/sale/domain"
	"github.com/smallbiznis/tradebook/pkg/db/pagination"
)

type saleItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type createSaleRequest struct {
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerAddress string            `json:"customer_address"`
	SaleDate        string            `json:"sale_date"`
	DueDate         string            `json:"due_date"`
	Paid            bool              `json:"paid"`
	PaidAt          string            `json:"paid_at"`
	PaymentMethod   string            `json:"payment_method"`
	SalesmanName    string            `json:"salesman_name"`
	Disclaimer      string            `json:"disclaimer"`
	Items           []saleItemRequest `json:"items"`
}

type recordPaymentRequest struct {
	Method string           `json:"method"`
	PaidAt string           `json:"paid_at"`
	Amount *decimal.Decimal `json:"amount"`
}

func (s *Server) CreateSale(c *gin.Context) {
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	saleDate, err := parseOptionalTime(req.SaleDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("sale_date", "invalid_sale_date", "invalid sale_date"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}
	paidAt, err := parseOptionalTime(req.PaidAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
		return
	}

	items := make([]saledomain.CreateSaleItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, saledomain.CreateSaleItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	resp, err := s.saleSvc.Create(c.Request.Context(), saledomain.CreateSaleRequest{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		SaleDate:        saleDate,
		DueDate:         dueDate,
		Paid:            req.Paid,
		PaidAt:          paidAt,
		PaymentMethod:   saledomain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
		SalesmanName:    strings.TrimSpace(req.SalesmanName),
		Disclaimer:      strings.TrimSpace(req.Disclaimer),
		Items:           items,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("document_number", resp.InvoiceNo)
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSales(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerName string `form:"customer_name"`
		Paid         string `form:"paid"`
		From         string `form:"from"`
		To           string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paid, err := parseOptionalBool(query.Paid)
	if err != nil {
		AbortWithError(c, newValidationError("paid", "invalid_paid", "invalid paid"))
		return
	}
	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.saleSvc.List(c.Request.Context(), saledomain.ListSaleRequest{
		PageToken:    query.PageToken,
		PageSize:     int32(query.PageSize),
		CustomerName: strings.TrimSpace(query.CustomerName),
		Paid:         paid,
		From:         from,
		To:           to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSaleByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.saleSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paidAt, err := parseOptionalTime(req.PaidAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
		return
	}

	resp, err := s.saleSvc.RecordPayment(c.Request.Context(), saledomain.RecordPaymentRequest{
		SaleID: strings.TrimSpace(c.Param("id")),
		Method: saledomain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method))),
		PaidAt: paidAt,
		Amount: req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("document_number", resp.InvoiceNo)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isSaleValidationError(err error) bool {
	switch err {
	case saledomain.ErrInvalidID,
		saledomain.ErrInvalidCustomerName,
		saledomain.ErrInvalidQuantity,
		saledomain.ErrInvalidUnitPrice,
		saledomain.ErrInvalidPaymentMethod,
		saledomain.ErrInvalidAmount,
		saledomain.ErrInvalidDueDate:
		return true
	default:
		return false
	}
}
