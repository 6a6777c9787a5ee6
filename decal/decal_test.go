package decal

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	apperrors "github.com/leeforge/giftstudio/errors"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPlace(t *testing.T) {
	mesh := MeshInfo{Radius: 1, Height: 2}
	tests := []struct {
		name         string
		mesh         MeshInfo
		w, h         int
		wantW, wantH float64
	}{
		{"square binds on height", mesh, 512, 512, 1.2, 1.2},
		{"wide binds on width", mesh, 300, 100, 1.5, 0.5},
		{"tall binds on height", mesh, 100, 400, 0.3, 1.2},
		{"tall mesh lets square use full width", MeshInfo{Radius: 1, Height: 10}, 64, 64, 1.5, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Place(tt.mesh, tt.w, tt.h)
			if err != nil {
				t.Fatalf("Place() error = %v", err)
			}
			if !near(p.Width, tt.wantW) || !near(p.Height, tt.wantH) {
				t.Errorf("Place() scale = %v, want [%v %v]", p.Scale(), tt.wantW, tt.wantH)
			}
			if p.Width > tt.mesh.Radius*MaxWidthOfRadius+1e-9 || p.Height > tt.mesh.Height*MaxHeightOfHeight+1e-9 {
				t.Errorf("Place() exceeded limits: %+v", p)
			}
			if !near(p.Width/p.Height, float64(tt.w)/float64(tt.h)) {
				t.Errorf("aspect ratio not preserved: %+v", p)
			}
		})
	}
}

func TestPlacePosition(t *testing.T) {
	mesh := MeshInfoFromBounds(Box3{Min: Vec3{-1, 0, -0.8}, Max: Vec3{1, 2, 0.8}})
	if !near(mesh.Radius, 1) || !near(mesh.Height, 2) {
		t.Fatalf("MeshInfoFromBounds() = %+v", mesh)
	}
	p, err := Place(mesh, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := Vec3{0, 1.2, 1}
	for i := range want {
		if !near(p.Position[i], want[i]) {
			t.Fatalf("Position = %v, want %v", p.Position, want)
		}
	}
}

func TestPlaceRejectsDegenerateInput(t *testing.T) {
	if _, err := Place(MeshInfo{Radius: 1, Height: 2}, 0, 10); !apperrors.IsType(err, apperrors.ErrorTypeInvalid) {
		t.Errorf("zero width: err = %v", err)
	}
	if _, err := Place(MeshInfo{Height: 2}, 10, 10); !apperrors.IsType(err, apperrors.ErrorTypeInvalid) {
		t.Errorf("zero radius: err = %v", err)
	}
}

const cube = `# unit mug proxy
o mug
v -1 0 -1
v 1 0 -1
v 1 2 1
vn 0 1 0
v -1.0 2.0 1.0
f 1 2 3
`

func TestLoadOBJ(t *testing.T) {
	verts, err := LoadOBJ(strings.NewReader(cube))
	if err != nil {
		t.Fatalf("LoadOBJ() error = %v", err)
	}
	if len(verts) != 4 {
		t.Fatalf("got %d vertices, want 4", len(verts))
	}
	b := BoundsOf(verts)
	if b.Min != (Vec3{-1, 0, -1}) || b.Max != (Vec3{1, 2, 1}) {
		t.Errorf("BoundsOf() = %+v", b)
	}
}

func TestLoadOBJErrors(t *testing.T) {
	for _, src := range []string{"v 1 2\n", "v 1 x 3\n", "# nothing\n"} {
		if _, err := LoadOBJ(strings.NewReader(src)); !apperrors.IsType(err, apperrors.ErrorTypeInvalid) {
			t.Errorf("LoadOBJ(%q) err = %v, want invalid", src, err)
		}
	}
}

func TestPrintTexture(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	red := color.NRGBA{R: 255, A: 255}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 255, 255
	}
	mesh := MeshInfo{Radius: 1, Height: 2}
	p, _ := Place(mesh, 8, 8)

	tex, err := PrintTexture(img, mesh, p, 628, 200)
	if err != nil {
		t.Fatalf("PrintTexture() error = %v", err)
	}
	// The decal is about 120px wide around the centre column and covers rows 20..140.
	if got := tex.NRGBAAt(314, 70); got != red {
		t.Errorf("centre pixel = %v, want red", got)
	}
	if got := tex.NRGBAAt(10, 70); got.A != 0 {
		t.Errorf("back of mug should be empty, got %v", got)
	}
	if got := tex.NRGBAAt(314, 10); got.A != 0 {
		t.Errorf("above decal should be empty, got %v", got)
	}
}
