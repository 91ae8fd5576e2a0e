//go:build !tinygo && cgo

package glgpu

import (
	"errors"
	"fmt"
	"image"
	"io"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/outline"
	"github.com/soypat/outline/glbuild"
	"github.com/soypat/outline/glpass"
)

// Init1x1GLFW starts a 1x1 sized GLFW window so that user can start working with the GPU.
// It returns a termination function that should be called when user is done rendering.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "outline",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// Target is a framebuffer object with an RGBA8 color texture and an optional
// depth-stencil renderbuffer.
type Target struct {
	fbo, tex, rbo uint32
	w, h          int
	cfg           glpass.TargetConfig
}

func newTarget(width, height int, cfg glpass.TargetConfig) (*Target, error) {
	t := &Target{cfg: cfg}
	err := t.alloc(width, height)
	if err != nil {
		t.release()
		return nil, err
	}
	return t, nil
}

func (t *Target) alloc(width, height int) error {
	t.release()
	width, height = max(width, 1), max(height, 1)
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	gl.GenTextures(1, &t.tex)
	gl.BindTexture(gl.TEXTURE_2D, t.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.tex, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if t.cfg.DepthBuffer || t.cfg.StencilBuffer {
		gl.GenRenderbuffers(1, &t.rbo)
		gl.BindRenderbuffer(gl.RENDERBUFFER, t.rbo)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(width), int32(height))
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, t.rbo)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	}
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("incomplete framebuffer, status 0x%x", status)
	}
	t.w, t.h = width, height
	return glgl.Err()
}

func (t *Target) release() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
	}
	if t.tex != 0 {
		gl.DeleteTextures(1, &t.tex)
	}
	if t.rbo != 0 {
		gl.DeleteRenderbuffers(1, &t.rbo)
	}
	t.fbo, t.tex, t.rbo = 0, 0, 0
	t.w, t.h = 0, 0
}

// Size implements [glpass.Target].
func (t *Target) Size() (width, height int) { return t.w, t.h }

// SetSize implements [glpass.Target]. Contents are discarded.
func (t *Target) SetSize(width, height int) {
	if width == t.w && height == t.h && t.fbo != 0 {
		return
	}
	if err := t.alloc(width, height); err != nil {
		log().Error("glgpu: resizing target", "err", err)
	}
}

// Dispose implements [glpass.Target].
func (t *Target) Dispose() { t.release() }

type drawProgram struct {
	prog                          glgl.Program
	mvp, color, surfaceIDs, maxID int32
	pos, col                      uint32
}

type quadProgram struct {
	prog                    glgl.Program
	vao                     uint32
	input, color, thickness int32
}

type mesh struct {
	vao, pos, col, ebo uint32
	nverts             int
	count              int32
	indexed            bool
}

// Renderer implements [glpass.Renderer] on OpenGL. A nil render target selects the
// default framebuffer.
type Renderer struct {
	screenW, screenH int
	active           *Target
	clear            glpass.ClearColor
	autoClear        bool
	blending         glpass.Blending
	stencil          bool
	pixelRatio       float32

	draw    drawProgram
	quads   [3]quadProgram
	quadVBO uint32
	meshes  map[*outline.Geometry]*mesh
	sorted  []outline.Object
	colorOf map[uint64]int
}

// NewRenderer compiles the outline programs on the current GL context. width and
// height are the size of the default framebuffer.
func NewRenderer(width, height int) (*Renderer, error) {
	r := &Renderer{
		screenW:    width,
		screenH:    height,
		autoClear:  true,
		pixelRatio: 1,
		clear:      glpass.ClearColor{A: 1},
		meshes:     make(map[*outline.Geometry]*mesh),
		colorOf:    make(map[uint64]int),
	}
	err := r.compile(glbuild.NewDefaultProgrammer())
	if err != nil {
		r.Dispose()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) compile(p *glbuild.Programmer) (err error) {
	vert, err := glbuild.Source(p.WriteDrawVertex)
	if err != nil {
		return err
	}
	frag, err := glbuild.Source(p.WriteDrawFragment)
	if err != nil {
		return err
	}
	r.draw.prog, err = glgl.CompileProgram(glgl.ShaderSource{Vertex: vert, Fragment: frag})
	if err != nil {
		return fmt.Errorf("compiling draw program: %w", err)
	}
	dp := &r.draw
	dp.mvp = uniform(dp.prog, glbuild.UniformMVP)
	dp.color = uniform(dp.prog, glbuild.UniformColor)
	dp.surfaceIDs = uniform(dp.prog, glbuild.UniformSurfaceIDs)
	dp.maxID = uniform(dp.prog, glbuild.UniformMaxID)
	dp.pos, err = dp.prog.AttribLocation(glbuild.AttribPosition + "\x00")
	if err != nil {
		return err
	}
	dp.col, err = dp.prog.AttribLocation(glbuild.AttribColor + "\x00")
	if err != nil {
		return err
	}

	quadVert, err := glbuild.Source(p.WriteQuadVertex)
	if err != nil {
		return err
	}
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.GenBuffers(1, &r.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	for i := range r.quads {
		prog := glpass.QuadProgram(i)
		src, err := glbuild.Source(func(w io.Writer) (int, error) { return p.WriteQuadFragment(w, prog) })
		if err != nil {
			return err
		}
		q := &r.quads[i]
		q.prog, err = glgl.CompileProgram(glgl.ShaderSource{Vertex: quadVert, Fragment: src})
		if err != nil {
			return fmt.Errorf("compiling %s program: %w\n%s", prog, err, src)
		}
		q.input = uniform(q.prog, glbuild.UniformInput)
		q.color = uniform(q.prog, glbuild.UniformColor)
		q.thickness = uniform(q.prog, glbuild.UniformThickness)
		posAttrib, err := q.prog.AttribLocation(glbuild.AttribPosition + "\x00")
		if err != nil {
			return err
		}
		gl.GenVertexArrays(1, &q.vao)
		gl.BindVertexArray(q.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
		gl.EnableVertexAttribArray(posAttrib)
		gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return glgl.Err()
}

// uniform returns the location of name or -1 if the compiler optimized it out.
// GL ignores uniform writes to location -1.
func uniform(prog glgl.Program, name string) int32 {
	loc, err := prog.UniformLocation(name + "\x00")
	if err != nil {
		return -1
	}
	return loc
}

// SetScreenSize sets the default framebuffer size, typically after a window resize.
func (r *Renderer) SetScreenSize(width, height int) {
	r.screenW, r.screenH = width, height
}

// SetPixelRatio sets the value returned by PixelRatio.
func (r *Renderer) SetPixelRatio(ratio float32) {
	if ratio > 0 {
		r.pixelRatio = ratio
	}
}

func (r *Renderer) PixelRatio() float32 { return r.pixelRatio }

// SetRenderTarget implements [glpass.Renderer]. Targets not created by a glgpu
// Renderer are rejected with a warning.
func (r *Renderer) SetRenderTarget(t glpass.Target) {
	if t == nil {
		r.active = nil
		return
	}
	gt, ok := t.(*Target)
	if !ok || gt == nil {
		log().Warn("glgpu: foreign render target ignored")
		return
	}
	r.active = gt
}

// RenderTarget implements [glpass.Renderer].
func (r *Renderer) RenderTarget() glpass.Target {
	if r.active == nil {
		return nil
	}
	return r.active
}

func (r *Renderer) SetClearColor(c glpass.ClearColor) { r.clear = c }
func (r *Renderer) ClearColor() glpass.ClearColor     { return r.clear }
func (r *Renderer) AutoClear() bool                   { return r.autoClear }
func (r *Renderer) SetAutoClear(autoClear bool)       { r.autoClear = autoClear }
func (r *Renderer) Blending() glpass.Blending         { return r.blending }
func (r *Renderer) SetBlending(b glpass.Blending)     { r.blending = b }
func (r *Renderer) StencilTest() bool                 { return r.stencil }

func (r *Renderer) SetStencilTest(enabled bool) {
	r.stencil = enabled
	if enabled {
		gl.Enable(gl.STENCIL_TEST)
	} else {
		gl.Disable(gl.STENCIL_TEST)
	}
}

// NewTarget implements [glpass.Renderer]. Allocation failures are logged and
// return a zero sized target.
func (r *Renderer) NewTarget(width, height int, cfg glpass.TargetConfig) glpass.Target {
	t, err := newTarget(width, height, cfg)
	if err != nil {
		log().Error("glgpu: allocating target", "width", width, "height", height, "err", err)
		return &Target{cfg: cfg}
	}
	return t
}

// bind makes the active target the draw framebuffer and sets the viewport.
func (r *Renderer) bind() (hasDepth bool) {
	if r.active == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, int32(r.screenW), int32(r.screenH))
		return true
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.active.fbo)
	gl.Viewport(0, 0, int32(r.active.w), int32(r.active.h))
	return r.active.rbo != 0
}

func (r *Renderer) applyBlending() {
	switch r.blending {
	case glpass.BlendAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	case glpass.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	default:
		gl.Disable(gl.BLEND)
	}
}

// Clear implements [glpass.Renderer].
func (r *Renderer) Clear(color, depth, stencil bool) {
	hasDepth := r.bind()
	var mask uint32
	if color {
		c := r.clear
		gl.ClearColor(c.R*c.A, c.G*c.A, c.B*c.A, c.A)
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth && hasDepth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if stencil && hasDepth {
		mask |= gl.STENCIL_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

// Draw implements [glpass.Renderer]. Objects are drawn in [outline.SortRenderOrder] order.
func (r *Renderer) Draw(objs []outline.Object, cam outline.Camera, p glpass.DrawParams) {
	if cam == nil || len(objs) == 0 {
		return
	}
	if r.autoClear {
		r.Clear(true, true, true)
	}
	hasDepth := r.bind()
	if hasDepth {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	r.applyBlending()

	clear(r.colorOf)
	for i, obj := range objs {
		r.colorOf[obj.ID()] = i
	}
	var eye ms3.Vec
	if pc, ok := cam.(interface{ Position() ms3.Vec }); ok {
		eye = pc.Position()
	}
	r.sorted = append(r.sorted[:0], objs...)
	outline.SortRenderOrder(r.sorted, eye, func(obj outline.Object) bool {
		return !p.SurfaceIDs && objectColor(p, r.colorOf[obj.ID()]).A < 255
	})

	dp := &r.draw
	dp.prog.Bind()
	var surf int32
	if p.SurfaceIDs {
		surf = 1
	}
	gl.Uniform1i(dp.surfaceIDs, surf)
	gl.Uniform1f(dp.maxID, float32(max(p.MaxID, 1)))
	vp := cam.ViewProjection().Array()
	for _, obj := range r.sorted {
		g := obj.Geometry()
		if g == nil || len(g.Positions) == 0 {
			continue
		}
		m, err := r.mesh(g)
		if err != nil {
			log().Warn("glgpu: uploading mesh", "object", obj.ID(), "err", err)
			continue
		}
		if p.SurfaceIDs && len(g.Colors) == 4*m.nverts {
			gl.BindBuffer(gl.ARRAY_BUFFER, m.col)
			gl.BufferSubData(gl.ARRAY_BUFFER, 0, 4*len(g.Colors), unsafe.Pointer(&g.Colors[0]))
		}
		world := obj.WorldMatrix().Array()
		mvp := mulMat4(&vp, &world)
		gl.UniformMatrix4fv(dp.mvp, 1, false, &mvp[0])
		cr, cg, cb, ca := premulF(objectColor(p, r.colorOf[obj.ID()]))
		gl.Uniform4f(dp.color, cr, cg, cb, ca)
		gl.BindVertexArray(m.vao)
		if m.indexed {
			gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, gl.PtrOffset(0))
		} else {
			gl.DrawArrays(gl.TRIANGLES, 0, m.count)
		}
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	dp.prog.Unbind()
	gl.Disable(gl.DEPTH_TEST)
	if err := glgl.Err(); err != nil {
		log().Warn("glgpu: draw", "err", err)
	}
}

// mesh returns the GPU buffers of g, uploading them on first use or after the
// vertex count changed.
func (r *Renderer) mesh(g *outline.Geometry) (*mesh, error) {
	m := r.meshes[g]
	if m != nil && m.nverts == len(g.Positions) {
		return m, nil
	}
	if m != nil {
		m.release()
	}
	m = &mesh{nverts: len(g.Positions), indexed: g.Indexed()}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)
	defer gl.BindVertexArray(0)

	gl.GenBuffers(1, &m.pos)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.pos)
	gl.BufferData(gl.ARRAY_BUFFER, int(unsafe.Sizeof(ms3.Vec{}))*m.nverts, unsafe.Pointer(&g.Positions[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(r.draw.pos)
	gl.VertexAttribPointer(r.draw.pos, 3, gl.FLOAT, false, 0, gl.PtrOffset(0))

	gl.GenBuffers(1, &m.col)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.col)
	gl.BufferData(gl.ARRAY_BUFFER, 4*4*m.nverts, nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(r.draw.col)
	gl.VertexAttribPointer(r.draw.col, 4, gl.FLOAT, false, 0, gl.PtrOffset(0))

	if m.indexed {
		if len(g.Indices) == 0 {
			m.release()
			return nil, errors.New("indexed geometry without indices")
		}
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(g.Indices), unsafe.Pointer(&g.Indices[0]), gl.STATIC_DRAW)
		m.count = int32(len(g.Indices))
	} else {
		m.count = int32(m.nverts)
	}
	if err := glgl.Err(); err != nil {
		m.release()
		return nil, err
	}
	r.meshes[g] = m
	return m, nil
}

func (m *mesh) release() {
	for _, buf := range []*uint32{&m.pos, &m.col, &m.ebo} {
		if *buf != 0 {
			gl.DeleteBuffers(1, buf)
			*buf = 0
		}
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
}

// DrawQuad implements [glpass.Renderer].
func (r *Renderer) DrawQuad(prog glpass.QuadProgram, style glpass.Style, inputs ...glpass.Target) {
	if int(prog) >= len(r.quads) || len(inputs) == 0 {
		log().Warn("glgpu: bad quad draw", "program", prog.String(), "inputs", len(inputs))
		return
	}
	in, ok := inputs[0].(*Target)
	if !ok || in == nil || in.tex == 0 {
		log().Warn("glgpu: quad input is not a live target", "program", prog.String())
		return
	} else if in == r.active {
		log().Warn("glgpu: quad input is the active target", "program", prog.String())
		return
	}
	r.bind()
	gl.Disable(gl.DEPTH_TEST)
	r.applyBlending()
	q := &r.quads[prog]
	q.prog.Bind()
	defer q.prog.Unbind()
	filter := int32(gl.LINEAR)
	if prog == glpass.QuadIDEdge {
		filter = gl.NEAREST
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, in.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.Uniform1i(q.input, 0)
	cr, cg, cb, ca := premulF(style.Color)
	gl.Uniform4f(q.color, cr, cg, cb, ca)
	gl.Uniform1i(q.thickness, int32(max(style.Thickness, 1)))
	gl.BindVertexArray(q.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := glgl.Err(); err != nil {
		log().Warn("glgpu: quad draw", "program", prog.String(), "err", err)
	}
}

// ReadPixels copies the contents of t, or of the default framebuffer if t is nil, into an image.
func (r *Renderer) ReadPixels(t glpass.Target) (*image.RGBA, error) {
	w, h := r.screenW, r.screenH
	fbo := uint32(0)
	if t != nil {
		gt, ok := t.(*Target)
		if !ok || gt.fbo == 0 {
			return nil, errors.New("not a live glgpu target")
		}
		w, h, fbo = gt.w, gt.h, gt.fbo
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if err := glgl.Err(); err != nil {
		return nil, err
	}
	flipRows(img)
	return img, nil
}

// Dispose releases programs and mesh buffers. Targets are owned by their creators.
func (r *Renderer) Dispose() {
	for _, m := range r.meshes {
		m.release()
	}
	clear(r.meshes)
	if r.draw.prog.ID() != 0 {
		r.draw.prog.Delete()
	}
	for i := range r.quads {
		q := &r.quads[i]
		if q.prog.ID() != 0 {
			q.prog.Delete()
		}
		if q.vao != 0 {
			gl.DeleteVertexArrays(1, &q.vao)
		}
		*q = quadProgram{}
	}
	if r.quadVBO != 0 {
		gl.DeleteBuffers(1, &r.quadVBO)
		r.quadVBO = 0
	}
	r.draw = drawProgram{}
}
