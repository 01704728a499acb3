package detections

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
)

// Preprocessor resizes images to the model input and writes normalized CHW floats.
type Preprocessor struct {
	width, height int
	numWorkers    int
}

func NewPreprocessor(width, height int) *Preprocessor {
	return &Preprocessor{
		width:      width,
		height:     height,
		numWorkers: max(1, min(runtime.GOMAXPROCS(0), height)),
	}
}

func (p *Preprocessor) Process(img image.Image, dst []float32) error {
	if expected := 3 * p.width * p.height; len(dst) != expected {
		return fmt.Errorf("unexpected input buffer length: got %d, want %d", len(dst), expected)
	}

	resized := imaging.Resize(img, p.width, p.height, imaging.Linear)
	p.processParallel(resized, dst)
	return nil
}

func (p *Preprocessor) processParallel(img *image.NRGBA, buffer []float32) {
	channelSize := p.width * p.height
	rowsPerWorker := p.height / p.numWorkers

	var wg sync.WaitGroup
	wg.Add(p.numWorkers)

	for w := 0; w < p.numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := (w + 1) * rowsPerWorker
		if w == p.numWorkers-1 {
			endRow = p.height
		}

		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				src := img.Pix[y*img.Stride:]
				offset := y * p.width
				for x := 0; x < p.width; x++ {
					i := offset + x
					px := src[x*4 : x*4+3]
					buffer[i] = normalize(px[0], 0)
					buffer[channelSize+i] = normalize(px[1], 1)
					buffer[channelSize*2+i] = normalize(px[2], 2)
				}
			}
		}(startRow, endRow)
	}

	wg.Wait()
}

func normalize(v uint8, channel int) float32 {
	return (float32(v)/255.0 - channelMean[channel]) / channelStd[channel]
}
