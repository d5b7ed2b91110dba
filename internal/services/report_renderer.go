package services

import (
  "bytes"
  "fmt"
  "image/jpeg"
  "strings"
  "time"

  "github.com/fogleman/gg"
  "github.com/golang/freetype/truetype"
  "golang.org/x/image/font"
  "golang.org/x/image/font/gofont/goregular"

  "github.com/orienta-app/orienta-backend/internal/logger"
)

// ReportData is everything the rendered report can show. Sections whose
// data is missing are omitted rather than failing the render.
type ReportData struct {
  GeneratedFor string
  GeneratedAt  time.Time

  Primary       *ReportProfile
  Complementary *ReportProfile

  Axes        []ReportAxis
  KeySkills   []string
  FirstAction string
}

type ReportProfile struct {
  Name        string
  Score       int
  Description string
}

type ReportAxis struct {
  Title string
  Text  string
}

// ReportRenderer turns report data into a single-page PDF.
type ReportRenderer interface {
  Render(data *ReportData) ([]byte, error)
}

// Page raster at 150 dpi on A4.
const (
  reportPageWidth  = 1240
  reportPageHeight = 1754
  reportMargin     = 90.0
)

type reportRenderer struct {
  log       *logger.Logger
  titleFace font.Face
  headFace  font.Face
  bodyFace  font.Face
  smallFace font.Face
}

func NewReportRenderer(baseLog *logger.Logger) (ReportRenderer, error) {
  parsed, err := truetype.Parse(goregular.TTF)
  if err != nil {
    return nil, fmt.Errorf("failed to parse report font: %w", err)
  }
  face := func(size float64) font.Face {
    return truetype.NewFace(parsed, &truetype.Options{Size: size, DPI: 150})
  }
  return &reportRenderer{
    log:       baseLog.With("service", "ReportRenderer"),
    titleFace: face(26),
    headFace:  face(17),
    bodyFace:  face(11),
    smallFace: face(8.5),
  }, nil
}

func (r *reportRenderer) Render(data *ReportData) ([]byte, error) {
  if data == nil {
    return nil, fmt.Errorf("report data is nil")
  }

  dc := gg.NewContext(reportPageWidth, reportPageHeight)
  dc.SetHexColor("#ffffff")
  dc.Clear()

  y := r.drawHeader(dc, data)
  textWidth := float64(reportPageWidth) - 2*reportMargin

  if data.Primary != nil {
    y = r.drawSection(dc, y, "Profil principal")
    line := data.Primary.Name
    if data.Primary.Score > 0 {
      line = fmt.Sprintf("%s (%d points)", data.Primary.Name, data.Primary.Score)
    }
    dc.SetFontFace(r.headFace)
    dc.SetHexColor("#2b6cb0")
    dc.DrawString(line, reportMargin, y)
    y += 46
    if data.Primary.Description != "" {
      y = r.drawBody(dc, y, data.Primary.Description, textWidth)
    }
  }

  if data.Complementary != nil {
    y = r.drawSection(dc, y, "Profil complémentaire")
    dc.SetFontFace(r.headFace)
    dc.SetHexColor("#2b6cb0")
    dc.DrawString(data.Complementary.Name, reportMargin, y)
    y += 46
    if data.Complementary.Description != "" {
      y = r.drawBody(dc, y, data.Complementary.Description, textWidth)
    }
  }

  if len(data.Axes) > 0 {
    y = r.drawSection(dc, y, "Trajectoire recommandée")
    for _, axis := range data.Axes {
      if axis.Text == "" {
        continue
      }
      text := axis.Text
      if axis.Title != "" {
        text = axis.Title + " : " + axis.Text
      }
      y = r.drawBody(dc, y, "• "+text, textWidth)
    }
  }

  if len(data.KeySkills) > 0 {
    y = r.drawSection(dc, y, "Compétences clés")
    y = r.drawBody(dc, y, strings.Join(data.KeySkills, "  ·  "), textWidth)
  }

  if data.FirstAction != "" {
    y = r.drawSection(dc, y, "Première action")
    y = r.drawBody(dc, y, data.FirstAction, textWidth)
  }

  r.drawFooter(dc, data)

  var jpegBuf bytes.Buffer
  if err := jpeg.Encode(&jpegBuf, dc.Image(), &jpeg.Options{Quality: 92}); err != nil {
    return nil, fmt.Errorf("failed to encode report image: %w", err)
  }
  return wrapJPEGInPDF(jpegBuf.Bytes(), reportPageWidth, reportPageHeight), nil
}

func (r *reportRenderer) drawHeader(dc *gg.Context, data *ReportData) float64 {
  dc.SetHexColor("#1a365d")
  dc.DrawRectangle(0, 0, reportPageWidth, 230)
  dc.Fill()

  dc.SetFontFace(r.titleFace)
  dc.SetHexColor("#ffffff")
  dc.DrawString("Diagnostic de Repositionnement Stratégique", reportMargin, 120)

  dc.SetFontFace(r.smallFace)
  dc.SetHexColor("#a0c4e8")
  sub := data.GeneratedAt.Format("02/01/2006")
  if data.GeneratedFor != "" {
    sub = data.GeneratedFor + "  ·  " + sub
  }
  dc.DrawString(sub, reportMargin, 180)
  return 330
}

func (r *reportRenderer) drawSection(dc *gg.Context, y float64, title string) float64 {
  dc.SetFontFace(r.headFace)
  dc.SetHexColor("#1a365d")
  dc.DrawString(title, reportMargin, y)
  dc.SetHexColor("#2b6cb0")
  dc.DrawRectangle(reportMargin, y+14, 120, 4)
  dc.Fill()
  return y + 58
}

func (r *reportRenderer) drawBody(dc *gg.Context, y float64, text string, width float64) float64 {
  dc.SetFontFace(r.bodyFace)
  dc.SetHexColor("#2d3748")
  lines := dc.WordWrap(text, width)
  for _, line := range lines {
    dc.DrawString(line, reportMargin, y)
    y += 36
  }
  return y + 24
}

func (r *reportRenderer) drawFooter(dc *gg.Context, data *ReportData) {
  dc.SetFontFace(r.smallFace)
  dc.SetHexColor("#718096")
  dc.DrawString(fmt.Sprintf("Généré le %s", data.GeneratedAt.Format("02/01/2006 15:04")), reportMargin, reportPageHeight-60)
}

// wrapJPEGInPDF builds a one-page A4 PDF whose only content is the given
// JPEG placed full bleed. DCTDecode lets the PDF embed the JPEG bytes
// untouched.
func wrapJPEGInPDF(jpegData []byte, widthPx, heightPx int) []byte {
  const pageW, pageH = 595, 842

  var buf bytes.Buffer
  offsets := make([]int, 0, 6)
  writeObj := func(body string) {
    offsets = append(offsets, buf.Len())
    buf.WriteString(body)
  }

  buf.WriteString("%PDF-1.4\n")

  writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
  writeObj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
  writeObj(fmt.Sprintf("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /XObject << /Im0 5 0 R >> >> /Contents 4 0 R >>\nendobj\n", pageW, pageH))

  content := fmt.Sprintf("q %d 0 0 %d 0 0 cm /Im0 Do Q", pageW, pageH)
  writeObj(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content))

  offsets = append(offsets, buf.Len())
  buf.WriteString(fmt.Sprintf("5 0 obj\n<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n", widthPx, heightPx, len(jpegData)))
  buf.Write(jpegData)
  buf.WriteString("\nendstream\nendobj\n")

  xrefStart := buf.Len()
  buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
  buf.WriteString("0000000000 65535 f \n")
  for _, off := range offsets {
    buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
  }
  buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefStart))
  return buf.Bytes()
}
