package outline

import "github.com/soypat/geometry/ms3"

// OrthoCamera is an orthographic [Camera] at Eye looking down -Z with +Y up.
// The view volume spans [Left,Right]x[Bottom,Top] relative to Eye and
// [Near,Far] units in front of it.
type OrthoCamera struct {
	Eye                      ms3.Vec
	Left, Right, Bottom, Top float32
	Near, Far                float32
}

// NewOrthoCamera returns a camera at eye viewing a width x height window centered on eye's XY.
func NewOrthoCamera(eye ms3.Vec, width, height, depth float32) *OrthoCamera {
	return &OrthoCamera{
		Eye:  eye,
		Left: -width / 2, Right: width / 2,
		Bottom: -height / 2, Top: height / 2,
		Near: 0, Far: depth,
	}
}

// ViewProjection implements [Camera].
func (c *OrthoCamera) ViewProjection() ms3.Mat4 {
	sx := 2 / (c.Right - c.Left)
	sy := 2 / (c.Top - c.Bottom)
	sz := -2 / (c.Far - c.Near)
	tx := -(c.Right + c.Left) / (c.Right - c.Left)
	ty := -(c.Top + c.Bottom) / (c.Top - c.Bottom)
	tz := -(c.Far + c.Near) / (c.Far - c.Near)
	e := c.Eye
	return ms3.NewMat4([]float32{
		sx, 0, 0, tx - sx*e.X,
		0, sy, 0, ty - sy*e.Y,
		0, 0, sz, tz - sz*e.Z,
		0, 0, 0, 1,
	})
}

// Position returns the camera eye in world space.
func (c *OrthoCamera) Position() ms3.Vec { return c.Eye }
