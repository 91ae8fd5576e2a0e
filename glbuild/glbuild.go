// Package glbuild writes the GLSL programs used by the OpenGL outline backend:
// a flat shading draw program and the full-screen quad programs of glpass.
package glbuild

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/soypat/outline/glpass"
)

const VersionStr = "#version 460\n"

// Attribute and uniform names shared between the written programs and their users.
const (
	AttribPosition = "aPos"
	AttribColor    = "aColor"
	UniformMVP     = "uMVP"
	UniformColor   = "uColor"
	// UniformSurfaceIDs selects surface id shading when non-zero.
	UniformSurfaceIDs = "uSurfaceIDs"
	UniformMaxID      = "uMaxID"
	UniformInput      = "uInput"
	UniformThickness  = "uThickness"
)

// Programmer writes outline programs. Its fields are baked into the sources as constants.
type Programmer struct {
	// Coverage is the mask alpha at or above which a texel counts as covered.
	Coverage float32
	// IDEdgeThreshold is the Sobel gradient magnitude above which ids are considered different.
	IDEdgeThreshold float32
	// MaxThickness bounds the mask edge search radius in texels.
	MaxThickness int
	scratch      []byte
}

// NewDefaultProgrammer returns a Programmer whose programs match the CPU backend's results.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		Coverage:        0.5,
		IDEdgeThreshold: 0.1,
		MaxThickness:    8,
		scratch:         make([]byte, 0, 2048),
	}
}

// WriteDrawVertex writes the vertex shader of the flat draw program.
func (p *Programmer) WriteDrawVertex(w io.Writer) (int, error) {
	b := append(p.scratch[:0], VersionStr...)
	b = append(b, `in vec3 aPos;
in vec4 aColor;
uniform mat4 uMVP;
flat out vec4 vColor;
void main() {
	vColor = aColor;
	gl_Position = uMVP * vec4(aPos, 1.0);
}
`...)
	return p.flush(w, b)
}

// WriteDrawFragment writes the fragment shader of the flat draw program. It outputs
// uColor, or the vertex surface id normalized by uMaxID in the red channel.
func (p *Programmer) WriteDrawFragment(w io.Writer) (int, error) {
	b := append(p.scratch[:0], VersionStr...)
	b = append(b, `flat in vec4 vColor;
uniform vec4 uColor;
uniform int uSurfaceIDs;
uniform float uMaxID;
out vec4 fragColor;
void main() {
	if (uSurfaceIDs != 0) {
		fragColor = vec4(vColor.r / uMaxID, 0.0, 0.0, 1.0);
	} else {
		fragColor = uColor;
	}
}
`...)
	return p.flush(w, b)
}

// WriteQuadVertex writes the vertex shader shared by all quad programs. It expects
// a full-screen quad in normalized device coordinates.
func (p *Programmer) WriteQuadVertex(w io.Writer) (int, error) {
	b := append(p.scratch[:0], VersionStr...)
	b = append(b, `in vec2 aPos;
out vec2 vTexCoord;
void main() {
	vTexCoord = aPos * 0.5 + 0.5;
	gl_Position = vec4(aPos, 0.0, 1.0);
}
`...)
	return p.flush(w, b)
}

// WriteQuadFragment writes the fragment shader of prog.
func (p *Programmer) WriteQuadFragment(w io.Writer, prog glpass.QuadProgram) (int, error) {
	if p.MaxThickness < 1 {
		return 0, errors.New("MaxThickness must be positive")
	}
	b := append(p.scratch[:0], VersionStr...)
	b = append(b, "in vec2 vTexCoord;\nuniform sampler2D uInput;\nuniform vec4 uColor;\nout vec4 fragColor;\n"...)
	switch prog {
	case glpass.QuadCopy:
		b = append(b, "void main() {\n\tfragColor = texture(uInput, vTexCoord);\n}\n"...)
	case glpass.QuadMaskEdge:
		b = AppendDefineDecl(b, "COVERAGE", string(AppendFloat(nil, '-', '.', p.Coverage)))
		b = AppendDefineDecl(b, "MAX_THICKNESS", strconv.Itoa(p.MaxThickness))
		b = append(b, maskEdgeBody...)
	case glpass.QuadIDEdge:
		b = AppendDefineDecl(b, "THRESHOLD", string(AppendFloat(nil, '-', '.', p.IDEdgeThreshold)))
		b = append(b, "const "...)
		b = AppendFloatSliceDecl(b, "sobelX", []float32{-1, 0, 1, -2, 0, 2, -1, 0, 1})
		b = append(b, "const "...)
		b = AppendFloatSliceDecl(b, "sobelY", []float32{-1, -2, -1, 0, 0, 0, 1, 2, 1})
		b = append(b, idEdgeBody...)
	default:
		return 0, errors.New("unknown quad program " + prog.String())
	}
	return p.flush(w, b)
}

const maskEdgeBody = `uniform int uThickness;
bool covered(vec2 uv) {
	return texture(uInput, uv).a >= COVERAGE;
}
void main() {
	fragColor = vec4(0.0);
	if (covered(vTexCoord)) {
		return;
	}
	vec2 texel = 1.0 / vec2(textureSize(uInput, 0));
	for (int y = -MAX_THICKNESS; y <= MAX_THICKNESS; y++) {
		for (int x = -MAX_THICKNESS; x <= MAX_THICKNESS; x++) {
			if (abs(x) > uThickness || abs(y) > uThickness) {
				continue;
			}
			if (covered(vTexCoord + vec2(x, y) * texel)) {
				fragColor = uColor;
				return;
			}
		}
	}
}
`

const idEdgeBody = `void main() {
	vec2 texel = 1.0 / vec2(textureSize(uInput, 0));
	vec4 gx = vec4(0.0);
	vec4 gy = vec4(0.0);
	for (int j = 0; j < 3; j++) {
		for (int i = 0; i < 3; i++) {
			vec4 s = texture(uInput, vTexCoord + vec2(i - 1, 1 - j) * texel);
			gx += sobelX[j * 3 + i] * s;
			gy += sobelY[j * 3 + i] * s;
		}
	}
	vec4 g = sqrt(gx * gx + gy * gy);
	float grad = max(max(g.r, g.g), max(g.b, g.a));
	fragColor = grad > THRESHOLD ? uColor : vec4(0.0);
}
`

// flush writes b null terminated, as expected by the GL compiler bindings, and keeps
// b's storage for the next program.
func (p *Programmer) flush(w io.Writer, b []byte) (int, error) {
	b = append(b, 0)
	p.scratch = b[:0]
	return w.Write(b)
}

// Source returns the output of one of the Write methods as a string.
func Source(write func(w io.Writer) (int, error)) (string, error) {
	var buf bytes.Buffer
	_, err := write(&buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	b = append(b, ' ')
	b = append(b, aliasReplace...)
	b = append(b, '\n')
	return b
}

const decimalDigits = 9

// AppendFloat appends v with trailing zeroes trimmed. neg and decimal replace
// the minus sign and decimal point.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

const maxLineLim = 500

func AppendFloatSliceDecl(b []byte, floatSliceVarname string, vecs []float32) []byte {
	return AppendGenericSliceDecl(b, "float", floatSliceVarname, len(vecs), func(b []byte, i int) []byte {
		return AppendFloat(b, '-', '.', vecs[i])
	})
}

func AppendGenericSliceDecl(b []byte, typename, varname string, nelem int, appendElement func(b []byte, i int) []byte) []byte {
	lineStart := len(b)
	b = appendStartSliceDecl(b, typename, varname, nelem)
	for i := 0; i < nelem; i++ {
		last := i == nelem-1
		b = appendElement(b, i)
		if !last {
			b = append(b, ',')
			lineLen := len(b) - lineStart
			if lineLen > maxLineLim {
				b = append(b, '\n') // Break up line for very long arrays.
				lineStart = len(b)
			}
		}
	}
	b = append(b, ");\n"...)
	return b
}

func appendStartSliceDecl(b []byte, typeName, varName string, length int) []byte {
	l := int64(length)
	typeStart := len(b)
	b = append(b, typeName...)
	b = append(b, "["...)
	b = strconv.AppendInt(b, l, 10)
	b = append(b, ']')
	typeEnd := len(b)
	b = append(b, ' ')
	b = append(b, varName...)
	b = append(b, '=')
	b = append(b, b[typeStart:typeEnd]...) // Reuse typename appended earlier.
	b = append(b, '(')
	return b
}
