package model

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// imageSize is the spatial input dimension the network was trained with
// (EfficientNet-B3, 300x300).
const imageSize = 300

// ImageNet channel statistics, matching the training transform. Changing
// these invalidates the model artifact.
var (
	channelMean = [3]float32{0.485, 0.456, 0.406}
	channelStd  = [3]float32{0.229, 0.224, 0.225}
)

// supportedTypes lists the accepted upload media types.
var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Preprocess turns raw upload bytes into the classifier input tensor:
// decode, Lanczos resize to 300x300, RGB planes in CHW order, scale to
// [0,1], per-channel ImageNet normalization. Deterministic: identical input
// always yields an identical tensor.
func Preprocess(raw []byte, declaredType string) ([]float32, error) {
	mediaType, _, err := mime.ParseMediaType(declaredType)
	if err != nil || !supportedTypes[mediaType] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImageType, declaredType)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	resized := resize.Resize(imageSize, imageSize, img, resize.Lanczos3)
	bounds := resized.Bounds()

	plane := imageSize * imageSize
	data := make([]float32, 3*plane)
	for y := 0; y < imageSize; y++ {
		for x := 0; x < imageSize; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			i := y*imageSize + x
			data[i] = (float32(r)/65535.0 - channelMean[0]) / channelStd[0]
			data[plane+i] = (float32(g)/65535.0 - channelMean[1]) / channelStd[1]
			data[2*plane+i] = (float32(b)/65535.0 - channelMean[2]) / channelStd[2]
		}
	}

	return data, nil
}
