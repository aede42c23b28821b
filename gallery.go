package main

import (
	"fmt"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/nordprojects/bitfolio/internal/colormap"
)

const (
	galleryTitle  = "bitfolio colormaps"
	galleryWidth  = 640
	galleryHeight = 480

	stripWidth  = 320
	stripHeight = 28
)

// stripLayout pins a gradient preview to a fixed height and lets it take
// whatever width is left.
type stripLayout struct {
	height float32
}

func (l *stripLayout) Layout(objects []fyne.CanvasObject, containerSize fyne.Size) {
	for _, obj := range objects {
		obj.Resize(fyne.NewSize(containerSize.Width, l.height))
		obj.Move(fyne.NewPos(0, (containerSize.Height-l.height)/2))
	}
}

func (l *stripLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(stripWidth, l.height)
}

// swatchButton is a button painted in a colormap's middle color.
type swatchButton struct {
	widget.BaseWidget
	text      string
	textColor color.Color
	bgColor   color.Color
	onTapped  func()
}

func newSwatchButton(text string, m colormap.Colormap, onTapped func()) *swatchButton {
	bg := m.At(0.5)
	b := &swatchButton{
		text:      text,
		textColor: contrastText(bg),
		bgColor:   bg,
		onTapped:  onTapped,
	}
	b.ExtendBaseWidget(b)
	return b
}

// contrastText picks black or white text for a background.
func contrastText(bg color.NRGBA) color.Color {
	luma := 0.2126*float64(bg.R) + 0.7152*float64(bg.G) + 0.0722*float64(bg.B)
	if luma > 140 {
		return color.Black
	}
	return color.White
}

func (b *swatchButton) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(b.bgColor)
	rect.SetMinSize(fyne.NewSize(110, stripHeight))
	rect.CornerRadius = 4

	textObj := canvas.NewText(b.text, b.textColor)
	textObj.Alignment = fyne.TextAlignCenter
	textObj.TextSize = 12

	return &swatchButtonRenderer{
		button:  b,
		rect:    rect,
		textObj: textObj,
		content: container.NewStack(rect, container.NewCenter(textObj)),
	}
}

func (b *swatchButton) Tapped(*fyne.PointEvent) {
	if b.onTapped != nil {
		b.onTapped()
	}
}

type swatchButtonRenderer struct {
	button  *swatchButton
	rect    *canvas.Rectangle
	textObj *canvas.Text
	content fyne.CanvasObject
}

func (r *swatchButtonRenderer) Layout(size fyne.Size) { r.content.Resize(size) }
func (r *swatchButtonRenderer) MinSize() fyne.Size    { return r.content.MinSize() }

func (r *swatchButtonRenderer) Refresh() {
	r.rect.FillColor = r.button.bgColor
	r.textObj.Color = r.button.textColor
	r.textObj.Text = r.button.text
	r.rect.Refresh()
	r.textObj.Refresh()
}

func (r *swatchButtonRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content}
}

func (r *swatchButtonRenderer) Destroy() {}

// gradientStrip renders m left to right on the CPU.
func gradientStrip(m colormap.Colormap) fyne.CanvasObject {
	raster := canvas.NewRasterWithPixels(func(x, _, w, _ int) color.Color {
		if w <= 1 {
			return m.At(0)
		}
		return m.At(float64(x) / float64(w-1))
	})
	return container.New(&stripLayout{height: stripHeight}, raster)
}

// runGalleryMode shows every colormap with buttons copying its GLSL call
// and its CSS gradient.
func runGalleryMode(lib *colormap.Library, log *slog.Logger) {
	a := app.New()
	w := a.NewWindow(galleryTitle)
	w.Resize(fyne.NewSize(galleryWidth, galleryHeight))
	w.CenterOnScreen()

	status := widget.NewLabel(fmt.Sprintf("%d colormaps", lib.Len()))

	copyText := func(what, text string) {
		w.Clipboard().SetContent(text)
		status.SetText("Copied " + what)
		log.Debug("copied", "what", what)
	}

	rows := make([]fyne.CanvasObject, 0, lib.Len())
	for _, m := range lib.Colormaps() {
		call := m.FunctionName() + "(x)"
		name := widget.NewLabelWithStyle(m.Name, fyne.TextAlignLeading, fyne.TextStyle{Monospace: true})
		buttons := container.NewHBox(
			newSwatchButton(call, m, func() { copyText(call, call) }),
			widget.NewButton("CSS", func() { copyText(m.Name+" CSS", m.CSS("")) }),
			widget.NewButton("GLSL", func() { copyText(m.FunctionName(), m.Shader()) }),
		)
		rows = append(rows, container.NewBorder(nil, nil, name, buttons, gradientStrip(m)))
	}

	content := container.NewBorder(nil, status, nil, nil, container.NewVScroll(container.NewVBox(rows...)))
	w.SetContent(content)
	w.ShowAndRun()
}
