package kernel

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`           // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`            // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`            // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`               // cell or region the mesh came from
	Material string    `json:"material,omitempty"` // fill material, empty for envelopes
	Color    string    `json:"color,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the extent of the vertices. An empty mesh returns zeros.
func (m *Mesh) Bounds() (min, max [3]float32) {
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		for a := 0; a < 3; a++ {
			v := m.Vertices[i+a]
			if i == 0 || v < min[a] {
				min[a] = v
			}
			if i == 0 || v > max[a] {
				max[a] = v
			}
		}
	}
	return min, max
}

// Translated returns a copy of m with every vertex moved by (x, y, z).
func (m *Mesh) Translated(x, y, z float32) *Mesh {
	out := *m
	out.Vertices = make([]float32, len(m.Vertices))
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		out.Vertices[i] = m.Vertices[i] + x
		out.Vertices[i+1] = m.Vertices[i+1] + y
		out.Vertices[i+2] = m.Vertices[i+2] + z
	}
	return &out
}
