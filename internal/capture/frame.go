// File: internal/capture/frame.go
package capture

// Frame is an immutable capture result: packed BGRA bytes, row-major, top
// row first. It is never mutated once returned; downsampling allocates.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

const bytesPerPixel = 4

// Downsample resamples a frame with nearest-neighbor selection
// (source index = floor(dest index * source dim / dest dim)). When the
// target dimensions already match it returns the frame unchanged,
// byte for byte.
func Downsample(f Frame, dw, dh int) Frame {
	if f.Width == dw && f.Height == dh {
		return f
	}

	out := make([]byte, dw*dh*bytesPerPixel)
	for y := 0; y < dh; y++ {
		srcRow := (y * f.Height / dh) * f.Width * bytesPerPixel
		dstRow := y * dw * bytesPerPixel
		for x := 0; x < dw; x++ {
			src := srcRow + (x*f.Width/dw)*bytesPerPixel
			dst := dstRow + x*bytesPerPixel
			copy(out[dst:dst+bytesPerPixel], f.Pix[src:src+bytesPerPixel])
		}
	}
	return Frame{Width: dw, Height: dh, Pix: out}
}
