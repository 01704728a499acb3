package detections

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreprocessor_Normalizes(t *testing.T) {
	req := require.New(t)
	src := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, G: 0, B: 128, A: 255})
		}
	}

	p := NewPreprocessor(8, 6)
	buf := make([]float32, 3*8*6)
	req.NoError(p.Process(src, buf))

	channel := 8 * 6
	for i := 0; i < channel; i++ {
		req.InDelta((1.0-0.485)/0.229, buf[i], 0.05)
		req.InDelta((0.0-0.456)/0.224, buf[channel+i], 0.05)
		req.InDelta((128.0/255.0-0.406)/0.225, buf[2*channel+i], 0.05)
	}
}

func TestPreprocessor_RejectsWrongBuffer(t *testing.T) {
	p := NewPreprocessor(8, 6)
	err := p.Process(image.NewNRGBA(image.Rect(0, 0, 4, 4)), make([]float32, 10))
	require.Error(t, err)
}

func TestPreprocessor_MoreWorkersThanRows(t *testing.T) {
	req := require.New(t)
	p := NewPreprocessor(3, 1)
	req.Equal(1, p.numWorkers)

	buf := make([]float32, 9)
	req.NoError(p.Process(image.NewNRGBA(image.Rect(0, 0, 3, 1)), buf))
	req.InDelta(-0.485/0.229, buf[0], 1e-5)
}
