package export

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"invoice-automation/backend/internal/billing"
)

var (
	textOp     = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
	escapedRe  = regexp.MustCompile(`\\(.)`)
	pageMarker = regexp.MustCompile(`/Type /Page\n`)
	fixedNow   = time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)
)

func newTestRenderer(logger *zap.Logger) *PDFRenderer {
	opts := DefaultPDFOptions()
	opts.Compress = false
	r := NewPDFRenderer(opts, logger)
	r.now = func() time.Time { return fixedNow }
	return r
}

// pdfText returns every string drawn with Tj, in content order
func pdfText(out []byte) []string {
	var texts []string
	for _, m := range textOp.FindAllSubmatch(out, -1) {
		texts = append(texts, escapedRe.ReplaceAllString(string(m[1]), "$1"))
	}
	return texts
}

// pageTexts groups the drawn strings by page
func pageTexts(out []byte) [][]string {
	chunks := pageMarker.Split(string(out), -1)
	pages := make([][]string, 0, len(chunks)-1)
	for _, chunk := range chunks[1:] {
		pages = append(pages, pdfText([]byte(chunk)))
	}
	return pages
}

func valueAfter(t *testing.T, texts []string, label string) string {
	t.Helper()
	for i, s := range texts {
		if s == label && i+1 < len(texts) {
			return texts[i+1]
		}
	}
	t.Fatalf("label %q not found in %v", label, texts)
	return ""
}

func parseMoney(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	require.True(t, strings.HasPrefix(s, "$"), "money %q has no $ prefix", s)
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
	require.NoError(t, err)
	return d
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 128})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader returns a grayscale PNG that declares w x h pixels but carries no
// image data
func pngHeader(w, h uint32) []byte {
	chunk := func(buf *bytes.Buffer, kind string, data []byte) {
		_ = binary.Write(buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(kind), data...)
		buf.Write(body)
		_ = binary.Write(buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth, color type 0 (gray)

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk(&buf, "IHDR", ihdr)
	chunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func encodeJPEG(w io.Writer, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 90, B: 160, A: 255})
		}
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 80})
}

func designInvoice() *billing.Document {
	return &billing.Document{
		ID:             "65f1e2ab12cd34",
		Kind:           billing.KindInvoice,
		Date:           time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Customer:       billing.CustomerRecord{Name: "Acme Corp", Email: "ap@acme.test", Phone: "555-0100", Address: "1 Main St"},
		Items:          []billing.LineItem{{Description: "Design", Quantity: 2, UnitPrice: 150}},
		TaxRatePercent: 10,
	}
}

func testCompany() *billing.CompanyProfile {
	return &billing.CompanyProfile{Name: "My Agency Inc.", Email: "billing@myagency.com", Phone: "+1 (555) 000-0000"}
}

func TestRenderBillingDocument_DesignScenario(t *testing.T) {
	r := newTestRenderer(zap.NewNop())

	out, err := r.RenderBillingDocument(designInvoice(), testCompany(), nil)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	texts := pdfText(out)
	assert.Contains(t, texts, "INVOICE")
	assert.Contains(t, texts, "REF: INV-2024-CD34")
	assert.Contains(t, texts, "Date: 3/1/2024")
	assert.Contains(t, texts, "Acme Corp")
	assert.Contains(t, texts, "ap@acme.test")
	assert.Contains(t, texts, "My Agency Inc.")
	assert.Contains(t, texts, "+1 (555) 000-0000")
	assert.Contains(t, texts, "Design")
	assert.Contains(t, texts, "$150.00")
	assert.Equal(t, "$300.00", valueAfter(t, texts, "SUBTOTAL"))
	assert.Equal(t, "$30.00", valueAfter(t, texts, "TAX (10%)"))
	assert.Equal(t, "$330.00", valueAfter(t, texts, "TOTAL"))
	assert.Contains(t, texts, "Thank you for choosing My Agency Inc.")
	assert.Len(t, pageTexts(out), 1)
}

func TestRenderBillingDocument_PrintedTotalsAreConsistent(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := &billing.Document{
		ID:   "abc123",
		Kind: billing.KindQuotation,
		Date: fixedNow,
		Items: []billing.LineItem{
			{Description: "Hosting", Quantity: 12, UnitPrice: 19.99},
			{Description: "Setup", Quantity: 1, UnitPrice: 249.5},
			{Description: "Support hours", Quantity: 3.5, UnitPrice: 85.333},
		},
		TaxRatePercent: 8.25,
	}

	out, err := r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)

	texts := pdfText(out)
	subtotal := parseMoney(t, valueAfter(t, texts, "SUBTOTAL"))
	tax := parseMoney(t, valueAfter(t, texts, "TAX (8.25%)"))
	total := parseMoney(t, valueAfter(t, texts, "TOTAL"))

	// each row prints description, qty, unit price, amount
	rowSum := decimal.Zero
	for _, desc := range []string{"Hosting", "Setup", "Support hours"} {
		idx := indexOf(texts, desc)
		require.GreaterOrEqual(t, idx, 0)
		rowSum = rowSum.Add(parseMoney(t, texts[idx+3]))
	}

	assert.True(t, rowSum.Equal(subtotal), "rows %s != subtotal %s", rowSum, subtotal)
	assert.True(t, subtotal.Mul(decimal.NewFromFloat(8.25)).Div(decimal.NewFromInt(100)).Round(2).Equal(tax))
	assert.True(t, subtotal.Add(tax).Equal(total))
	assert.Contains(t, texts, "QUOTATION")
}

func indexOf(texts []string, s string) int {
	for i, v := range texts {
		if v == s {
			return i
		}
	}
	return -1
}

func TestRenderBillingDocument_Idempotent(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := designInvoice()
	company := testCompany()
	opts := &billing.RenderOptions{HeaderMode: billing.HeaderCustomTitle, HeaderTitle: "ESTIMATE"}

	first, err := r.RenderBillingDocument(doc, company, opts)
	require.NoError(t, err)
	second, err := r.RenderBillingDocument(doc, company, opts)
	require.NoError(t, err)

	assert.Equal(t, pdfText(first), pdfText(second))
	assert.Equal(t, first, second)
	assert.Contains(t, pdfText(first), "ESTIMATE")
}

func TestRenderBillingDocument_FortyItemsPaginate(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := designInvoice()
	doc.Items = nil
	var want []string
	for i := 1; i <= 40; i++ {
		desc := fmt.Sprintf("Item %02d", i)
		want = append(want, desc)
		doc.Items = append(doc.Items, billing.LineItem{Description: desc, Quantity: 1, UnitPrice: 10})
	}

	out, err := r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)

	pages := pageTexts(out)
	require.Len(t, pages, 3)

	var got []string
	var perPage []int
	for _, texts := range pages {
		count := 0
		for _, s := range texts {
			if strings.HasPrefix(s, "Item ") {
				got = append(got, s)
				count++
			}
		}
		perPage = append(perPage, count)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []int{12, 21, 7}, perPage)

	// header is drawn once, summary and footer land on the last page
	assert.Contains(t, pages[0], "DESCRIPTION")
	assert.NotContains(t, pages[1], "DESCRIPTION")
	assert.Equal(t, "$400.00", valueAfter(t, pages[2], "SUBTOTAL"))
	assert.Contains(t, pages[2], "Thank you for choosing My Agency Inc.")
}

func TestRenderBillingDocument_RepeatTableHeader(t *testing.T) {
	opts := DefaultPDFOptions()
	opts.Compress = false
	opts.RepeatTableHeader = true
	r := NewPDFRenderer(opts, zap.NewNop())

	doc := designInvoice()
	doc.Items = nil
	for i := 0; i < 40; i++ {
		doc.Items = append(doc.Items, billing.LineItem{Description: fmt.Sprintf("Row %d", i), Quantity: 1, UnitPrice: 1})
	}

	out, err := r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)

	pages := pageTexts(out)
	require.Greater(t, len(pages), 1)
	for _, texts := range pages {
		assert.Contains(t, texts, "DESCRIPTION")
	}
}

func TestRenderBillingDocument_ZeroItems(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := designInvoice()
	doc.Items = nil

	out, err := r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)

	pages := pageTexts(out)
	require.Len(t, pages, 1)
	texts := pages[0]
	for _, caption := range []string{"DESCRIPTION", "QTY", "UNIT PRICE", "AMOUNT"} {
		assert.Contains(t, texts, caption)
	}
	assert.NotContains(t, texts, "No description")
	assert.Equal(t, "$0.00", valueAfter(t, texts, "SUBTOTAL"))
	assert.Equal(t, "$0.00", valueAfter(t, texts, "TAX (10%)"))
	assert.Equal(t, "$0.00", valueAfter(t, texts, "TOTAL"))
}

func TestRenderBillingDocument_Placeholders(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := &billing.Document{
		ID:    "x1",
		Kind:  billing.KindInvoice,
		Items: []billing.LineItem{{Quantity: -2, UnitPrice: 10}},
	}

	out, err := r.RenderBillingDocument(doc, nil, nil)
	require.NoError(t, err)

	texts := pdfText(out)
	assert.Contains(t, texts, "Unspecified Customer")
	assert.Contains(t, texts, "Your Company Name")
	assert.Contains(t, texts, "No description")
	assert.Contains(t, texts, "Thank you for choosing us.")
	assert.Contains(t, texts, "Date: 6/15/2024")
	assert.Contains(t, texts, "REF: INV-2024-X1")
	assert.Equal(t, "$0.00", valueAfter(t, texts, "SUBTOTAL"))
}

func TestRenderBillingDocument_PlainCustomerNameOnly(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := designInvoice()
	doc.Customer = billing.CustomerName("Walk-in Client")

	out, err := r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)

	texts := pdfText(out)
	assert.Contains(t, texts, "Walk-in Client")
	assert.NotContains(t, texts, "ap@acme.test")
}

func TestRenderBillingDocument_ForeignCurrencyLabel(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := designInvoice()
	doc.Currency = "eur"

	out, err := r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)

	assert.Equal(t, "$330.00", valueAfter(t, pdfText(out), "TOTAL (EUR)"))
}

func TestRenderBillingDocument_MissingID(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := designInvoice()
	doc.ID = ""

	_, err := r.RenderBillingDocument(doc, testCompany(), nil)
	assert.ErrorIs(t, err, billing.ErrMissingDocumentID)

	_, err = r.RenderBillingDocument(nil, testCompany(), nil)
	assert.ErrorIs(t, err, billing.ErrMissingDocumentID)
}

func TestRenderBillingDocument_HeaderImagePrecedence(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := designInvoice()
	doc.Logo = billing.ImagePayload(pngBytes(t, 41, 11))
	company := testCompany()
	company.Logo = billing.ImagePayload("data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 53, 53)))
	company.HeaderImage = billing.ImagePayload(pngBytes(t, 67, 17))

	t.Run("per-call image wins over every other source", func(t *testing.T) {
		opts := &billing.RenderOptions{
			HeaderMode:  billing.HeaderCustomImage,
			HeaderImage: billing.ImagePayload(base64.StdEncoding.EncodeToString(pngBytes(t, 29, 19))),
		}
		out, err := r.RenderBillingDocument(doc, company, opts)
		require.NoError(t, err)

		assert.Contains(t, string(out), "/Width 29\n")
		assert.NotContains(t, string(out), "/Width 41\n")
		assert.NotContains(t, string(out), "/Width 53\n")
		assert.NotContains(t, string(out), "/Width 67\n")
	})

	t.Run("company header banner", func(t *testing.T) {
		out, err := r.RenderBillingDocument(doc, company, &billing.RenderOptions{HeaderMode: billing.HeaderCompanyHeader})
		require.NoError(t, err)
		assert.Contains(t, string(out), "/Width 67\n")
	})

	t.Run("only company logo", func(t *testing.T) {
		bare := designInvoice()
		out, err := r.RenderBillingDocument(bare, &billing.CompanyProfile{Name: "Solo", Logo: company.Logo}, nil)
		require.NoError(t, err)
		assert.Contains(t, string(out), "/Width 53\n")
	})

	t.Run("jpeg passes through", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, encodeJPEG(&buf, 37, 23))
		bare := designInvoice()
		bare.Logo = billing.ImagePayload(buf.Bytes())
		out, err := r.RenderBillingDocument(bare, nil, nil)
		require.NoError(t, err)
		assert.Contains(t, string(out), "/Width 37\n")
		assert.Contains(t, string(out), "/DCTDecode")
	})
}

func TestRenderBillingDocument_CorruptLogoDegrades(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := newTestRenderer(zap.New(core))
	doc := designInvoice()
	doc.Logo = billing.ImagePayload("data:image/png;base64,!!!not-base64!!!")

	out, err := r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	assert.NotContains(t, string(out), "/Subtype /Image")
	assert.Contains(t, pdfText(out), "REF: INV-2024-CD34")
	assert.Equal(t, 1, logs.FilterMessage("Skipping undecodable image").Len())

	// valid base64 that is not an image
	doc.Logo = billing.ImagePayload(base64.StdEncoding.EncodeToString([]byte("hello world")))
	out, err = r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "/Subtype /Image")
}

func TestDecodeImagePayload_RejectsHugeDimensions(t *testing.T) {
	_, err := decodeImagePayload(billing.ImagePayload(pngHeader(12000, 12000)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")

	_, err = decodeImagePayload(billing.ImagePayload(pngHeader(4097, 4096)))
	assert.Error(t, err)
}

func TestRenderBillingDocument_OversizedHeaderImageSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := newTestRenderer(zap.New(core))
	opts := &billing.RenderOptions{
		HeaderMode:  billing.HeaderCustomImage,
		HeaderImage: billing.ImagePayload(base64.StdEncoding.EncodeToString(pngHeader(12000, 12000))),
	}

	out, err := r.RenderBillingDocument(designInvoice(), testCompany(), opts)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.NotContains(t, string(out), "/Subtype /Image")
	assert.Contains(t, pdfText(out), "REF: INV-2024-CD34")
	assert.Equal(t, 1, logs.FilterMessage("Skipping undecodable image").Len())
}

func TestRenderBillingDocument_CompanyContactOrder(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	company := testCompany()
	company.Address = "9 Harbour Rd"

	out, err := r.RenderBillingDocument(designInvoice(), company, nil)
	require.NoError(t, err)

	texts := pdfText(out)
	assert.Equal(t, "9 Harbour Rd", valueAfter(t, texts, "My Agency Inc."))
	assert.Equal(t, "billing@myagency.com", valueAfter(t, texts, "9 Harbour Rd"))
	assert.Equal(t, "+1 (555) 000-0000", valueAfter(t, texts, "billing@myagency.com"))
}

func TestRenderBillingDocument_ClipsRowTallerThanPage(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := designInvoice()
	doc.Items = []billing.LineItem{{
		Description: strings.Repeat("endless scope creep ", 600),
		Quantity:    1,
		UnitPrice:   5,
	}}

	out, err := r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)

	desc := doc.Items[0].Description
	drawn := 0
	for _, s := range pdfText(out) {
		if len(s) > 10 && strings.Contains(desc, s) {
			drawn++
		}
	}
	avail := pageBottom - tableFirstRowY - 18
	fit := int(avail / descLineHeight)
	assert.Greater(t, drawn, 1)
	assert.LessOrEqual(t, drawn, fit)
	assert.Equal(t, "$5.00", valueAfter(t, pdfText(out), "SUBTOTAL"))
}

func TestRenderBillingDocument_WrapsLongDescriptions(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	doc := designInvoice()
	doc.Items = []billing.LineItem{{
		Description: strings.Repeat("very long description words ", 20),
		Quantity:    1,
		UnitPrice:   5,
	}}

	out, err := r.RenderBillingDocument(doc, testCompany(), nil)
	require.NoError(t, err)

	desc := strings.TrimSpace(doc.Items[0].Description)
	wrapped := 0
	for _, s := range pdfText(out) {
		if len(s) > 5 && strings.Contains(desc, s) {
			wrapped++
		}
	}
	assert.Greater(t, wrapped, 1)
}

func TestRenderBillingDocument_Concurrent(t *testing.T) {
	r := newTestRenderer(zap.NewNop())
	want, err := r.RenderBillingDocument(designInvoice(), testCompany(), nil)
	require.NoError(t, err)

	results := make(chan []byte, 8)
	for i := 0; i < 8; i++ {
		go func() {
			out, _ := r.RenderBillingDocument(designInvoice(), testCompany(), nil)
			results <- out
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-results)
	}
}
