package report

import (
	"bufio"
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"
	"time"

	apperrors "go-plant-inspector/internal/errors"
	"go-plant-inspector/pkg/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-pdf/fpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Client-facing messages
const (
	MsgMissingAnalysis  = "Missing analysis text."
	MsgRenderFailed     = "An error occurred while generating the PDF report."
	MsgUnsupportedImage = "Unsupported image format."
)

const (
	fontFamily     = "Helvetica"
	imageName      = "plant"
	writeBufferLen = 32 * 1024
)

// Document is the content of one report
type Document struct {
	AnalysisText string
	Image        *models.ImagePayload
	Date         time.Time
}

// SyncWriter is a destination that can be flushed to stable storage, like *os.File
type SyncWriter interface {
	io.Writer
	Sync() error
}

// Renderer lays out plant analysis reports as PDF
type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Validate reports MissingAnalysis for blank text. Callers use it to fail
// before creating any file.
func (r *Renderer) Validate(doc Document) error {
	if strings.TrimSpace(doc.AnalysisText) == "" {
		return apperrors.NewMissingAnalysisError(MsgMissingAnalysis, nil)
	}
	return nil
}

// Render lays out doc and writes the PDF to w
func (r *Renderer) Render(w io.Writer, doc Document) error {
	if err := r.Validate(doc); err != nil {
		return err
	}

	pdf, err := r.layout(doc)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return apperrors.NewRenderError(MsgRenderFailed, err)
	}
	return nil
}

// RenderFile streams the document through a buffer into f and returns only
// after the buffer is flushed and f is synced to storage. f is not closed.
func (r *Renderer) RenderFile(f SyncWriter, doc Document) error {
	bw := bufio.NewWriterSize(f, writeBufferLen)
	if err := r.Render(bw, doc); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return apperrors.NewRenderError(MsgRenderFailed, err)
	}
	if err := f.Sync(); err != nil {
		return apperrors.NewRenderError(MsgRenderFailed, err)
	}
	return nil
}

func (r *Renderer) layout(doc Document) (*fpdf.Fpdf, error) {
	o := r.opts
	pdf := fpdf.New("P", "pt", o.PageSize, "")
	pdf.SetCompression(o.Compress)
	pdf.SetMargins(o.Margin, o.Margin, o.Margin)
	pdf.SetAutoPageBreak(true, o.Margin)
	pdf.SetTitle(o.Title, true)
	pdf.SetCreator("go-plant-inspector", true)
	if !doc.Date.IsZero() {
		pdf.SetCreationDate(doc.Date)
	}
	// Core fonts are cp1252; translate so accented text survives
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", 26)
	pdf.CellFormat(0, 30, tr(o.Title), "", 1, "C", false, 0, "")
	pdf.Ln(16)
	pdf.SetFont(fontFamily, "", 16)
	pdf.CellFormat(0, 20, tr("Date: "+doc.Date.Format(o.DateLayout)), "", 1, "L", false, 0, "")
	pdf.Ln(32)

	// Analysis text
	pdf.SetFont(fontFamily, "", 12)
	pdf.MultiCell(0, 15, tr(doc.AnalysisText), "", "L", false)

	if doc.Image != nil {
		if err := r.imagePage(pdf, tr, doc.Image); err != nil {
			return nil, err
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, apperrors.NewRenderError(MsgRenderFailed, err)
	}
	return pdf, nil
}

func (r *Renderer) imagePage(pdf *fpdf.Fpdf, tr func(string) string, payload *models.ImagePayload) error {
	imageType, data, err := prepareImage(payload)
	if err != nil {
		return err
	}

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", 18)
	pdf.CellFormat(0, 22, tr(r.opts.ImageTitle), "", 1, "C", false, 0, "")
	pdf.Ln(18)

	imgOpts := fpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader(imageName, imgOpts, bytes.NewReader(data))
	if err := pdf.Error(); err != nil || info == nil {
		return apperrors.NewInvalidFormatError(MsgUnsupportedImage, err)
	}

	w, h := info.Width(), info.Height()
	if w <= 0 || h <= 0 {
		return apperrors.NewInvalidFormatError(MsgUnsupportedImage, nil)
	}

	// Fit inside the box keeping the aspect ratio, then center in the box.
	boxW, boxH := r.opts.ImageMaxWidth, r.opts.ImageMaxHeight
	scale := math.Min(boxW/w, boxH/h)
	drawW, drawH := w*scale, h*scale

	pageW, _ := pdf.GetPageSize()
	boxX := (pageW - boxW) / 2
	boxY := pdf.GetY()
	x := boxX + (boxW-drawW)/2
	y := boxY + (boxH-drawH)/2

	pdf.ImageOptions(imageName, x, y, drawW, drawH, false, imgOpts, 0, "")
	return nil
}

// prepareImage picks the embedding type from the actual bytes. JPEG, PNG and
// GIF go in as they are; anything else the image decoders understand is
// re-encoded as 8-bit PNG.
func prepareImage(p *models.ImagePayload) (string, []byte, error) {
	mt := mimetype.Detect(p.Data)
	switch {
	case mt.Is("image/jpeg"):
		return "JPG", p.Data, nil
	case mt.Is("image/png") && !pngNeedsReencode(p.Data):
		return "PNG", p.Data, nil
	case mt.Is("image/gif"):
		return "GIF", p.Data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return "", nil, apperrors.NewInvalidFormatError(MsgUnsupportedImage, err)
	}

	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", nil, apperrors.NewInvalidFormatError(MsgUnsupportedImage, err)
	}
	return "PNG", buf.Bytes(), nil
}

// pngNeedsReencode reports 16-bit or interlaced PNGs, which the PDF writer
// cannot embed directly. Offsets are into the IHDR chunk.
func pngNeedsReencode(data []byte) bool {
	const bitDepthOffset, interlaceOffset = 24, 28
	if len(data) <= interlaceOffset {
		return true
	}
	return data[bitDepthOffset] == 16 || data[interlaceOffset] != 0
}
