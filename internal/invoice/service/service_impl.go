package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tradebook/internal/clock"
	"github.com/smallbiznis/tradebook/internal/config"
	customerdomain "github.com/smallbiznis/tradebook/internal/customer/domain"
	"github.com/smallbiznis/tradebook/internal/invoice/document"
	invoicedomain "github.com/smallbiznis/tradebook/internal/invoice/domain"
	"github.com/smallbiznis/tradebook/internal/invoice/format"
	"github.com/smallbiznis/tradebook/internal/invoice/render"
	"github.com/smallbiznis/tradebook/internal/observability/logger"
	"github.com/smallbiznis/tradebook/internal/observability/metrics"
	"github.com/smallbiznis/tradebook/internal/observability/tracing"
	"github.com/smallbiznis/tradebook/internal/providers/pdf"
	saledomain "github.com/smallbiznis/tradebook/internal/sale/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	kindReceipt = "receipt"

	reasonCustomerLookup = "customer_lookup"
)

// NumberPreviewer derives the next invoice number without allocating it.
type NumberPreviewer interface {
	Next(ctx context.Context) string
}

// DocumentRenderer encodes a document variant.
type DocumentRenderer interface {
	Render(ctx context.Context, req render.Request) (render.Output, error)
}

type Params struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	Clock       clock.Clock
	Sales       saledomain.Service
	Customers   customerdomain.Service
	Numbers     NumberPreviewer
	Renderer    DocumentRenderer
	Receipts    pdf.Provider
	Company     *config.CompanyProfileHolder
	Metrics     *metrics.Metrics     `optional:"true"`
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	clock       clock.Clock
	sales       saledomain.Service
	customers   customerdomain.Service
	numbers     NumberPreviewer
	renderer    DocumentRenderer
	receipts    pdf.Provider
	company     *config.CompanyProfileHolder
	assets      *render.AssetLoader
	logoSource  string
	metrics     *metrics.Metrics
	httpMetrics *metrics.HTTPMetrics
}

func New(p Params) invoicedomain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		log:         p.Log.Named("invoice.export"),
		clock:       c,
		sales:       p.Sales,
		customers:   p.Customers,
		numbers:     p.Numbers,
		renderer:    p.Renderer,
		receipts:    p.Receipts,
		company:     p.Company,
		assets:      render.NewAssetLoader(p.Config.Assets.FetchTimeout),
		logoSource:  p.Config.Assets.LogoPath,
		metrics:     p.Metrics,
		httpMetrics: p.HTTPMetrics,
	}
}

func (s *Service) NextInvoiceNumber(ctx context.Context) string {
	return s.numbers.Next(ctx)
}

func (s *Service) ExportInvoice(ctx context.Context, saleID string) (invoicedomain.Document, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebook/invoice", "invoice.export",
		attribute.String("document.kind", string(document.KindInvoice)),
	)
	defer span.End()

	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return invoicedomain.Document{}, err
	}

	number := strings.TrimSpace(sale.InvoiceNo)
	if number == "" {
		number = s.numbers.Next(ctx)
	}
	log := logger.WithDocument(logger.WithContext(ctx, s.log), string(document.KindInvoice), number)

	inv := document.Invoice{
		InvoiceNumber: number,
		IssueDate:     sale.SaleDate,
		DueDate:       sale.DueDate,
		Customer:      s.billTo(ctx, log, sale),
		Issuer:        s.issuer(),
		Items:         lineItems(sale.Items),
		Paid:          sale.Paid,
		PaidAt:        sale.PaidAt,
		PaymentMethod: paymentMethod(sale.PaymentMethod),
		SalesmanName:  sale.SalesmanName,
		Disclaimer:    s.disclaimer(sale.Disclaimer),
	}
	prepared, err := document.PrepareInvoice(inv)
	if err != nil {
		s.httpMetrics.RecordExportFailure(string(document.KindInvoice), err)
		return invoicedomain.Document{}, err
	}

	return s.render(ctx, log, render.Request{Variant: document.InvoiceVariant(prepared)})
}

func (s *Service) ExportStatement(ctx context.Context, req invoicedomain.ExportStatementRequest) (invoicedomain.Document, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebook/invoice", "statement.export",
		attribute.String("document.kind", string(document.KindStatement)),
	)
	defer span.End()

	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return invoicedomain.Document{}, invoicedomain.ErrInvalidPeriod
	}

	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: req.CustomerID})
	if err != nil {
		return invoicedomain.Document{}, err
	}
	sales, err := s.sales.ListForCustomer(ctx, customer.Name, req.From, req.To)
	if err != nil {
		return invoicedomain.Document{}, err
	}

	profile := s.company.Get()
	st := document.Statement{
		Customer:   partyFromCustomer(customer),
		Issuer:     s.issuer(),
		PeriodFrom: req.From,
		PeriodTo:   req.To,
		IssueDate:  startOfDay(s.clock.Now()),
		Disclaimer: strings.TrimSpace(profile.Disclaimer),
	}
	for _, sale := range sales {
		st.Rows = append(st.Rows, document.StatementRow{
			Date:     sale.SaleDate,
			Activity: "Sale " + sale.InvoiceNo,
			Amount:   saleTotal(sale),
			Received: sale.AmountReceived,
		})
		if name := strings.TrimSpace(sale.SalesmanName); name != "" {
			st.SalesmanName = name
		}
	}

	prepared, err := document.PrepareStatement(st)
	if err != nil {
		s.httpMetrics.RecordExportFailure(string(document.KindStatement), err)
		return invoicedomain.Document{}, err
	}

	log := logger.WithDocument(logger.WithContext(ctx, s.log), string(document.KindStatement), customer.Name)
	return s.render(ctx, log, render.Request{
		Variant: document.StatementVariant(prepared),
		Logo:    profile.StatementLogo,
	})
}

func (s *Service) ExportReceipt(ctx context.Context, saleID string) (invoicedomain.Document, error) {
	ctx, span := tracing.StartSpan(ctx, "tradebook/invoice", "receipt.export",
		attribute.String("document.kind", kindReceipt),
	)
	defer span.End()

	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return invoicedomain.Document{}, err
	}
	if !sale.Paid {
		return invoicedomain.Document{}, invoicedomain.ErrSaleNotPaid
	}

	log := logger.WithDocument(logger.WithContext(ctx, s.log), kindReceipt, sale.InvoiceNo)
	paidAt := sale.SaleDate
	if sale.PaidAt != nil {
		paidAt = *sale.PaidAt
	}
	party := s.billTo(ctx, log, sale)
	profile := s.company.Get()

	data := pdf.ReceiptData{
		OrgName:        profile.CompanyName,
		OrgAddress:     profile.Address,
		OrgPhone:       profile.Phone,
		OrgEmail:       profile.Email,
		Logo:           s.receiptLogo(ctx, log),
		InvoiceNumber:  sale.InvoiceNo,
		IssueDate:      sale.SaleDate,
		PaidAt:         paidAt,
		PaymentMethod:  string(paymentMethod(sale.PaymentMethod)),
		BillToName:     party.Name,
		BillToAddress:  party.Address,
		BillToPhone:    party.Phone,
		BillToEmail:    party.Email,
		AmountReceived: sale.AmountReceived,
		SalesmanName:   sale.SalesmanName,
	}
	for _, item := range sale.Items {
		if strings.TrimSpace(item.Description) == "" {
			continue
		}
		data.Items = append(data.Items, pdf.ReceiptItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	data.Total = saleTotal(sale)

	out, err := s.receipts.GenerateReceipt(ctx, data)
	if err != nil {
		s.httpMetrics.RecordExportFailure(kindReceipt, err)
		log.Error("receipt export failed", zap.Error(err))
		return invoicedomain.Document{}, err
	}
	s.httpMetrics.RecordExport(kindReceipt, len(out))
	log.Info("receipt exported", zap.Int("bytes", len(out)))

	return invoicedomain.Document{
		Filename:    format.ReceiptFilename(sale.InvoiceNo, party.Name, paidAt),
		ContentType: invoicedomain.ContentTypePDF,
		Bytes:       out,
	}, nil
}

func (s *Service) render(ctx context.Context, log *zap.Logger, req render.Request) (invoicedomain.Document, error) {
	kind := string(req.Variant.Kind)
	out, err := s.renderer.Render(ctx, req)
	if err != nil {
		s.httpMetrics.RecordExportFailure(kind, err)
		log.Error("document export failed", zap.Error(err))
		return invoicedomain.Document{}, err
	}
	s.httpMetrics.RecordExport(kind, len(out.Bytes))
	log.Info("document exported",
		zap.Int("pages", out.Pages),
		zap.Int("bytes", len(out.Bytes)),
	)
	return invoicedomain.Document{
		Filename:    out.Filename,
		ContentType: invoicedomain.ContentTypePDF,
		Pages:       out.Pages,
		Bytes:       out.Bytes,
	}, nil
}

// billTo prefers the customer record and falls back to the fields captured on
// the sale. A failed lookup degrades to the sale fields.
func (s *Service) billTo(ctx context.Context, log *zap.Logger, sale saledomain.Sale) document.Party {
	party := document.Party{
		Name:    sale.CustomerName,
		Address: sale.CustomerAddress,
		Phone:   sale.CustomerPhone,
		Email:   sale.CustomerEmail,
	}

	customer, err := s.customers.FindByName(ctx, sale.CustomerName)
	if err != nil {
		log.Warn("customer lookup failed, using sale fields", zap.Error(err))
		s.metrics.RecordLookupDegraded(ctx, reasonCustomerLookup)
		return party
	}
	if customer == nil {
		return party
	}

	enriched := partyFromCustomer(*customer)
	enriched.Name = firstNonEmpty(enriched.Name, party.Name)
	enriched.Address = firstNonEmpty(enriched.Address, party.Address)
	enriched.Phone = firstNonEmpty(enriched.Phone, party.Phone)
	enriched.Email = firstNonEmpty(enriched.Email, party.Email)
	return enriched
}

func (s *Service) issuer() document.Issuer {
	profile := s.company.Get()
	return document.Issuer{
		CompanyName: profile.CompanyName,
		Address:     profile.Address,
		Phone:       profile.Phone,
		Email:       profile.Email,
	}
}

func (s *Service) disclaimer(onSale string) string {
	if v := strings.TrimSpace(onSale); v != "" {
		return v
	}
	return strings.TrimSpace(s.company.Get().Disclaimer)
}

func (s *Service) receiptLogo(ctx context.Context, log *zap.Logger) []byte {
	if strings.TrimSpace(s.logoSource) == "" {
		return nil
	}
	logo, err := s.assets.Load(ctx, s.logoSource)
	if err != nil {
		log.Warn("receipt logo unavailable", zap.String("source", s.logoSource), zap.Error(err))
		s.metrics.RecordAssetFallback(ctx, "logo", render.FailureReason(err))
		return nil
	}
	return logo
}

func partyFromCustomer(c customerdomain.Customer) document.Party {
	return document.Party{
		Name:        strings.TrimSpace(c.Name),
		CompanyName: strings.TrimSpace(c.CompanyName),
		Address:     strings.TrimSpace(c.Address),
		Phone:       strings.TrimSpace(c.Phone),
		Email:       strings.TrimSpace(c.Email),
	}
}

func lineItems(items []saledomain.SaleItem) []document.LineItem {
	out := make([]document.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, document.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return out
}

func paymentMethod(m *saledomain.PaymentMethod) document.PaymentMethod {
	if m == nil {
		return ""
	}
	switch *m {
	case saledomain.PaymentMethodCash:
		return document.PaymentCash
	case saledomain.PaymentMethodOnline:
		return document.PaymentOnline
	case saledomain.PaymentMethodCheque:
		return document.PaymentCheque
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// saleTotal sums the printable items, matching the invoice grand total.
func saleTotal(sale saledomain.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, item := range sale.Items {
		if strings.TrimSpace(item.Description) == "" {
			continue
		}
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}
