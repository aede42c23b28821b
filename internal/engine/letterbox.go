package engine

// Letterbox fits a src sized rectangle into dst, keeping its aspect ratio
// and centring it. It returns the corners of the fitted rectangle in dst
// coordinates. An empty src fills dst.
func Letterbox(src, dst Size) (x0, y0, x1, y1 int) {
	if src.Width <= 0 || src.Height <= 0 {
		return 0, 0, dst.Width, dst.Height
	}
	if src.Width*dst.Height > dst.Width*src.Height {
		h := dst.Width * src.Height / src.Width
		y0 = (dst.Height - h) / 2
		return 0, y0, dst.Width, y0 + h
	}
	w := dst.Height * src.Width / src.Height
	x0 = (dst.Width - w) / 2
	return x0, 0, x0 + w, dst.Height
}
