// Package outline decides how a set of selected 3D objects is split into outline render
// batches so that the screen-space outlines of objects drawn in the same batch do not
// bleed into each other. It also provides the per-vertex surface id preprocessing used by
// id based edge detectors and a deterministic render order for overlapping geometry.
//
// Rendering itself lives in the glpass package and its backends.
package outline

import (
	"log/slog"
	"sync/atomic"

	"github.com/soypat/geometry/ms3"
)

const (
	// RiskThreshold is the default conflict risk above which two objects may not share a batch.
	RiskThreshold = 0.15
	// DefaultMaxBatches is the default batch cap used by [Partitioner]. Zero means unlimited.
	DefaultMaxBatches = 6
	// CacheMaxAge is the number of frames a [BatchCache] entry is reused before recompute.
	CacheMaxAge = 300
	// signatureIDs is the amount of leading identities folded into a selection signature.
	signatureIDs = 10
	// epstol is used to check for badly conditioned denominators.
	epstol = 6e-7
)

// Object is a renderable node of an external scene graph as seen by the outline core.
// The core never creates or destroys objects, it only reads them.
type Object interface {
	// ID returns a stable identity. Two Objects are the same object if their IDs are equal.
	ID() uint64
	// Visible reports the node's visibility flag.
	Visible() bool
	// WorldMatrix returns the node's current model to world transform.
	WorldMatrix() ms3.Mat4
	// Geometry returns the node's geometry or nil if it has none.
	Geometry() *Geometry
}

// Camera is the part of the external camera abstraction the core needs.
type Camera interface {
	// ViewProjection returns projection*view. Clip space follows OpenGL conventions.
	ViewProjection() ms3.Mat4
}

var logger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used for diagnostics in this package. A nil logger restores [slog.Default].
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

var nodeIDs atomic.Uint64

// Node is a minimal [Object] implementation for callers without a scene graph of their own.
type Node struct {
	Name   string
	Hidden bool
	// Transform is the model to world transform. The zero value is treated as identity.
	Transform ms3.Mat4
	Geom      *Geometry
	id        uint64
}

// NewNode creates a visible node with a fresh identity and identity transform.
func NewNode(name string, geom *Geometry) *Node {
	return &Node{
		Name:      name,
		Geom:      geom,
		Transform: IdentityMat4(),
		id:        nodeIDs.Add(1),
	}
}

func (n *Node) ID() uint64 {
	if n.id == 0 {
		n.id = nodeIDs.Add(1)
	}
	return n.id
}

func (n *Node) Visible() bool       { return !n.Hidden }
func (n *Node) Geometry() *Geometry { return n.Geom }

func (n *Node) WorldMatrix() ms3.Mat4 {
	if n.Transform == (ms3.Mat4{}) {
		return IdentityMat4()
	}
	return n.Transform
}

// IdentityMat4 returns the 4x4 identity matrix.
func IdentityMat4() ms3.Mat4 {
	return ms3.ScalingMat4(ms3.Vec{X: 1, Y: 1, Z: 1})
}

// TranslatingMat4 returns a matrix that translates positions by v.
func TranslatingMat4(v ms3.Vec) ms3.Mat4 {
	return ms3.NewMat4([]float32{
		1, 0, 0, v.X,
		0, 1, 0, v.Y,
		0, 0, 1, v.Z,
		0, 0, 0, 1,
	})
}
