//go:build !tinygo && cgo

package outlineaux

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/outline/glgpu"
	"github.com/soypat/outline/glpass"
)

func ui(s *Scene, cfg UIConfig) error {
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()
	fbw, fbh := window.GetFramebufferSize()
	r, err := glgpu.NewRenderer(fbw, fbh)
	if err != nil {
		return err
	}
	defer r.Dispose()
	r.SetPixelRatio(float32(fbw) / float32(cfg.Width))
	bg, _ := ParseHexColor(s.Background)
	r.SetClearColor(glpass.ClearColor{
		R: float32(bg.R) / 255, G: float32(bg.G) / 255, B: float32(bg.B) / 255, A: 1,
	})

	p, err := glpass.NewPass(s.Pass)
	if err != nil {
		return err
	}
	defer p.Dispose()
	cam := s.OrthoCamera()
	p.SetCamera(cam)
	p.SetSize(cfg.Width, cfg.Height)
	p.SetSelection(s.Selection())
	read := r.NewTarget(fbw, fbh, glpass.TargetConfig{DepthBuffer: true})
	defer read.Dispose()
	objs := s.Objects()
	shades := s.DepthShades(objs)

	var (
		panning      bool
		lastX, lastY float64
	)
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		x, y := w.GetCursorPos()
		switch button {
		case glfw.MouseButtonLeft:
			if action != glfw.Press {
				return
			}
			if n := s.Pick(cam, float32(x), float32(y), cfg.Width, cfg.Height); n != nil {
				s.Toggle(n)
				p.SetSelection(s.Selection())
			}
		case glfw.MouseButtonRight:
			panning = action == glfw.Press
			lastX, lastY = x, y
		}
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !panning {
			return
		}
		perPixel := (cam.Right - cam.Left) / float32(cfg.Width)
		cam.Eye.X -= float32(xpos-lastX) * perPixel
		cam.Eye.Y += float32(ypos-lastY) * perPixel
		lastX, lastY = xpos, ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		zoom := float32(1 - 0.1*yoff)
		if zoom <= 0 {
			return
		}
		cam.Left *= zoom
		cam.Right *= zoom
		cam.Bottom *= zoom
		cam.Top *= zoom
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		pcfg := p.Config()
		switch key {
		case glfw.KeyB:
			pcfg.DebugBatches = !pcfg.DebugBatches
		case glfw.KeyI:
			pcfg.IDRendering = !pcfg.IDRendering
		case glfw.KeyEscape:
			w.SetShouldClose(true)
			return
		default:
			return
		}
		if err := p.Configure(pcfg); err != nil {
			log().Error("reconfiguring pass", "err", err)
		}
	})

	ctx := cfg.Context
	previousTime := glfw.GetTime()
	var title string
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		currentTime := glfw.GetTime()
		delta := float32(currentTime - previousTime)
		previousTime = currentTime

		r.SetRenderTarget(read)
		r.Draw(objs, cam, glpass.DrawParams{Colors: shades})
		p.Render(r, nil, read, delta, false)
		r.SetRenderTarget(nil)
		r.SetBlending(glpass.BlendNone)
		r.DrawQuad(glpass.QuadCopy, glpass.Style{}, read)

		stats := p.Stats()
		if t := fmt.Sprintf("outline: %s, %d objects, %d batches", stats.Strategy, stats.Objects, stats.Batches); t != title {
			title = t
			window.SetTitle(title)
		}
		window.SwapBuffers()
		glfw.WaitEventsTimeout(1. / 30)
	}
	return nil
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, "outline viewer", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
