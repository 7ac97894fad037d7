package server

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/tradebook/internal/invoice/domain"
)

func (s *Server) NextInvoiceNumber(c *gin.Context) {
	number := s.invoiceSvc.NextInvoiceNumber(c.Request.Context())
	c.Set("document_number", number)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"invoice_number": number}})
}

func (s *Server) ExportInvoice(c *gin.Context) {
	doc, err := s.invoiceSvc.ExportInvoice(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeAttachment(c, doc)
}

func (s *Server) ExportReceipt(c *gin.Context) {
	doc, err := s.invoiceSvc.ExportReceipt(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeAttachment(c, doc)
}

func (s *Server) ExportStatement(c *gin.Context) {
	from, err := parseOptionalTime(c.Query("from"), false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(c.Query("to"), true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	doc, err := s.invoiceSvc.ExportStatement(c.Request.Context(), invoicedomain.ExportStatementRequest{
		CustomerID: strings.TrimSpace(c.Param("id")),
		From:       from,
		To:         to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeAttachment(c, doc)
}

func writeAttachment(c *gin.Context, doc invoicedomain.Document) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.Data(http.StatusOK, doc.ContentType, doc.Bytes)
}
