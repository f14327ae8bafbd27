package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestToGray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 4))
	if ToGray(g) != g {
		t.Error("zero-origin gray input should be returned as is")
	}

	g.SetGray(2, 2, color.Gray{77})
	sub := g.SubImage(image.Rect(1, 1, 4, 4)).(*image.Gray)
	view := ToGray(sub)
	if view.Bounds() != image.Rect(0, 0, 3, 3) {
		t.Fatalf("bounds: got %v, want (0,0)-(3,3)", view.Bounds())
	}
	if view.GrayAt(1, 1).Y != 77 {
		t.Errorf("rebased pixel: got %d, want 77", view.GrayAt(1, 1).Y)
	}

	rgba := createInMemoryImage(3, 2, color.RGBA{255, 255, 255, 255})
	gray := ToGray(rgba)
	if gray.Bounds().Dx() != 3 || gray.Bounds().Dy() != 2 {
		t.Fatalf("bounds: got %v", gray.Bounds())
	}
	if gray.GrayAt(0, 0).Y < 250 {
		t.Errorf("white converted to %d", gray.GrayAt(0, 0).Y)
	}
}

func TestToGray_ColorSubImage(t *testing.T) {
	full := createInMemoryImage(6, 4, color.Black)
	full.Set(3, 2, color.RGBA{255, 0, 0, 255})
	full.Set(4, 2, color.RGBA{0, 0, 255, 255})
	sub := full.SubImage(image.Rect(2, 1, 6, 4))

	gray := ToGray(sub)
	if gray.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("bounds: got %v, want (0,0)-(4,3)", gray.Bounds())
	}
	if gray.Stride != 4 {
		t.Errorf("stride: got %d, want 4", gray.Stride)
	}

	red, blue := gray.GrayAt(1, 1).Y, gray.GrayAt(2, 1).Y
	if red < 70 || red > 80 {
		t.Errorf("red luminance: got %d, want about 76", red)
	}
	if blue == 0 || blue >= red {
		t.Errorf("blue luminance %d should be darker than red %d but not black", blue, red)
	}
	if gray.GrayAt(0, 0).Y != 0 || gray.GrayAt(3, 2).Y != 0 {
		t.Error("black pixels should stay black")
	}
}

func TestBinarize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{20})
	img.SetGray(1, 0, color.Gray{100})
	img.SetGray(2, 0, color.Gray{200})

	bin := Binarize(img, DefaultBinarizeLevel)
	want := []uint8{0, 0, 255}
	for x, w := range want {
		if got := bin.GrayAt(x, 0).Y; got != w {
			t.Errorf("pixel %d: got %d, want %d", x, got, w)
		}
	}

	low := Binarize(img, 50)
	if low.GrayAt(1, 0).Y != 255 {
		t.Error("level 50 should turn 100 white")
	}
}

func TestGaussianBlur_Uniform(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 12, 12))
	for i := range src.Pix {
		src.Pix[i] = 100
	}

	for _, size := range []int{3, 5, 11} {
		blurred := GaussianBlur(src, size, 0)
		for i, v := range blurred.Pix {
			if v < 99 || v > 100 {
				t.Fatalf("size %d: pixel %d = %d, want ~100", size, i, v)
			}
		}
	}
}

func TestGaussianBlur_Spot(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 11, 11))
	src.SetGray(5, 5, color.Gray{255})

	blurred := GaussianBlur(src, 5, 0)

	center := blurred.GrayAt(5, 5).Y
	if center >= 255 || center == 0 {
		t.Errorf("spot centre: got %d, want spread below 255", center)
	}
	left, right := blurred.GrayAt(4, 5).Y, blurred.GrayAt(6, 5).Y
	up, down := blurred.GrayAt(5, 4).Y, blurred.GrayAt(5, 6).Y
	if left == 0 || left != right || up != down || left != up {
		t.Errorf("neighbours should be equal and non-zero: l=%d r=%d u=%d d=%d", left, right, up, down)
	}
	if blurred.GrayAt(0, 0).Y != 0 {
		t.Error("far corner should stay black")
	}
}

func TestAdaptiveThreshold(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range src.Pix {
		src.Pix[i] = 200
	}

	uniform := AdaptiveThreshold(src, 11, 2)
	for i, v := range uniform.Pix {
		if v != 255 {
			t.Fatalf("uniform input: pixel %d = %d, want 255", i, v)
		}
	}

	src.SetGray(10, 10, color.Gray{0})
	spot := AdaptiveThreshold(src, 11, 2)
	if spot.GrayAt(10, 10).Y != 0 {
		t.Error("dark spot should fall below the local mean")
	}
	if spot.GrayAt(2, 2).Y != 255 {
		t.Error("background away from the spot should stay white")
	}
}

func TestGaussianKernel1D(t *testing.T) {
	for _, size := range []int{1, 3, 5, 7, 9, 11} {
		k := gaussianKernel1D(size, 0)
		if len(k) != size {
			t.Fatalf("size %d: got %d taps", size, len(k))
		}
		var sum float64
		for i, v := range k {
			sum += v
			if math.Abs(v-k[size-1-i]) > 1e-12 {
				t.Errorf("size %d: kernel not symmetric at %d", size, i)
			}
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("size %d: kernel sums to %v", size, sum)
		}
	}

	if k := gaussianKernel1D(5, 0); k[2] != 0.375 {
		t.Errorf("5-tap binomial centre: got %v, want 0.375", k[2])
	}
}
