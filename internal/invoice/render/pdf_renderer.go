package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/smallbiznis/tradebook/internal/config"
	"github.com/smallbiznis/tradebook/internal/invoice/document"
	"github.com/smallbiznis/tradebook/internal/invoice/layout"
	"github.com/smallbiznis/tradebook/internal/observability/metrics"
	"github.com/smallbiznis/tradebook/internal/observability/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const fontFamily = "Helvetica"

// AssetSources locate the header images. Empty sources are skipped.
type AssetSources struct {
	Logo   string
	Banner string
}

type Options struct {
	Sources           AssetSources
	FetchTimeout      time.Duration
	RepeatTableHeader bool
}

// Request is one document to encode. Logo overrides Options.Sources.Logo when set.
type Request struct {
	Variant document.Variant
	Logo    string
}

type Output struct {
	Filename string
	Pages    int
	Bytes    []byte
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Metrics *metrics.Metrics `optional:"true"`
}

// PDFRenderer draws laid out pages with gofpdf at absolute coordinates.
// Each call builds its own document so renders share no mutable state.
type PDFRenderer struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	assets  *AssetLoader
	opts    Options
}

func NewPDFRenderer(p Params) *PDFRenderer {
	return New(p.Log, p.Metrics, Options{
		Sources: AssetSources{
			Logo:   p.Config.Assets.LogoPath,
			Banner: p.Config.Assets.BannerPath,
		},
		FetchTimeout: p.Config.Assets.FetchTimeout,
	})
}

func New(log *zap.Logger, m *metrics.Metrics, opts Options) *PDFRenderer {
	return &PDFRenderer{
		log:     log.Named("invoice.render"),
		metrics: m,
		assets:  NewAssetLoader(opts.FetchTimeout),
		opts:    opts,
	}
}

func (r *PDFRenderer) Render(ctx context.Context, req Request) (Output, error) {
	v := req.Variant
	ctx, span := tracing.StartSpan(ctx, "tradebook/render", "render.pdf",
		attribute.String("document.kind", string(v.Kind)),
	)
	defer span.End()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(documentDate(v))
	pdf.SetModificationDate(documentDate(v))
	pdf.SetProducer("tradebook", false)
	pdf.SetTitle(strings.TrimSuffix(v.Filename(), ".pdf"), false)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	logo := r.opts.Sources.Logo
	if strings.TrimSpace(req.Logo) != "" {
		logo = req.Logo
	}
	assets := layout.Assets{
		Banner: r.registerAsset(ctx, pdf, layout.AssetBanner, r.opts.Sources.Banner),
		Logo:   r.registerAsset(ctx, pdf, layout.AssetLogo, logo),
	}

	engine := layout.New(layout.A4(), &pdfMeasurer{pdf: pdf, tr: tr}, layout.Options{
		RepeatTableHeader: r.opts.RepeatTableHeader,
		Assets:            assets,
	})
	pages, err := engine.Layout(v)
	if err != nil {
		return Output{}, fmt.Errorf("layout document: %w", err)
	}

	for _, page := range pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			drawOp(pdf, tr, op)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Output{}, fmt.Errorf("encode pdf: %w", err)
	}

	r.metrics.RecordDocumentRendered(ctx, string(v.Kind), len(pages))
	span.SetAttributes(attribute.Int("document.pages", len(pages)))

	return Output{
		Filename: v.Filename(),
		Pages:    len(pages),
		Bytes:    buf.Bytes(),
	}, nil
}

// registerAsset loads and registers an image, reporting whether it can be drawn.
// Failures degrade to the layout fallback and never abort the render.
func (r *PDFRenderer) registerAsset(ctx context.Context, pdf *gofpdf.Fpdf, name, source string) bool {
	if strings.TrimSpace(source) == "" {
		return false
	}
	data, err := r.assets.Load(ctx, source)
	if err != nil {
		r.log.Warn("document asset unavailable, using fallback",
			zap.String("asset", name),
			zap.String("source", source),
			zap.Error(err),
		)
		r.metrics.RecordAssetFallback(ctx, name, FailureReason(err))
		return false
	}
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
	return pdf.Ok()
}

func drawOp(pdf *gofpdf.Fpdf, tr func(string) string, op layout.Op) {
	switch op.Kind {
	case layout.OpRect:
		pdf.SetFillColor(op.Color.R, op.Color.G, op.Color.B)
		pdf.Rect(op.X, op.Y, op.W, op.H, "F")
	case layout.OpLine:
		pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
		pdf.SetLineWidth(0.2)
		pdf.Line(op.X, op.Y, op.X+op.W, op.Y+op.H)
	case layout.OpImage:
		pdf.ImageOptions(op.Asset, op.X, op.Y, op.W, op.H, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	case layout.OpText:
		pdf.SetFont(fontFamily, fontStyle(op.Font), op.Font.Size)
		pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
		pdf.SetXY(op.X, op.Y)
		pdf.CellFormat(op.W, op.H, tr(op.Text), "", 0, string(op.Align), false, 0, "")
	}
}

func fontStyle(f layout.Font) string {
	if f.Bold {
		return "B"
	}
	return ""
}

func documentDate(v document.Variant) time.Time {
	if v.Kind == document.KindStatement && v.Statement != nil {
		return v.Statement.IssueDate
	}
	if v.Invoice != nil {
		return v.Invoice.IssueDate
	}
	return time.Unix(0, 0).UTC()
}

// pdfMeasurer measures with the core font metrics of the target document.
type pdfMeasurer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (m *pdfMeasurer) TextWidth(text string, font layout.Font) float64 {
	m.pdf.SetFont(fontFamily, fontStyle(font), font.Size)
	return m.pdf.GetStringWidth(m.tr(text))
}
