package types

// ChartPayload carries chart series data. The engine round-trips it without
// inspecting the values; rendering belongs to the view layer.
type ChartPayload struct {
	ChartType string        `json:"chart_type,omitempty"`
	XLabel    string        `json:"x_label,omitempty"`
	YLabel    string        `json:"y_label,omitempty"`
	Series    []ChartSeries `json:"series,omitempty"`
}

// ChartSeries is one named sequence of points.
type ChartSeries struct {
	Name   string    `json:"name"`
	Points []float64 `json:"points,omitempty"`
}

// DataFramePayload carries tabular data.
type DataFramePayload struct {
	Columns []string   `json:"columns,omitempty"`
	DTypes  []string   `json:"dtypes,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// Model3DPayload carries mesh geometry.
type Model3DPayload struct {
	Vertices  [][3]float64 `json:"vertices,omitempty"`
	Faces     [][3]int     `json:"faces,omitempty"`
	Materials []string     `json:"materials,omitempty"`
}

// PointCloudPayload carries raw points with optional per-point colors.
type PointCloudPayload struct {
	Points [][3]float64 `json:"points,omitempty"`
	Colors [][3]float64 `json:"colors,omitempty"`
}

// Payload is a tagged variant: at most one field is non-nil, and that field
// must agree with the owning record's kind.
type Payload struct {
	Chart      *ChartPayload      `json:"chart,omitempty"`
	DataFrame  *DataFramePayload  `json:"dataframe,omitempty"`
	Model3D    *Model3DPayload    `json:"model3d,omitempty"`
	PointCloud *PointCloudPayload `json:"pointcloud,omitempty"`
}

// Variant returns the window kind this payload belongs to, or "" when empty
// or ambiguous.
func (p *Payload) Variant() WindowKind {
	if p == nil {
		return ""
	}
	var kind WindowKind
	set := 0
	if p.Chart != nil {
		kind, set = KindChart, set+1
	}
	if p.DataFrame != nil {
		kind, set = KindDataFrame, set+1
	}
	if p.Model3D != nil {
		kind, set = KindModel3D, set+1
	}
	if p.PointCloud != nil {
		kind, set = KindPointCloud, set+1
	}
	if set != 1 {
		return ""
	}
	return kind
}

// MatchesKind reports whether the payload variant agrees with kind. An empty
// payload agrees with every kind.
func (p *Payload) MatchesKind(kind WindowKind) bool {
	if p == nil || p.isEmpty() {
		return true
	}
	return p.Variant() == kind
}

func (p *Payload) isEmpty() bool {
	return p.Chart == nil && p.DataFrame == nil && p.Model3D == nil && p.PointCloud == nil
}

// Clone deep-copies the payload.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	out := &Payload{}
	if p.Chart != nil {
		c := *p.Chart
		c.Series = append([]ChartSeries(nil), p.Chart.Series...)
		for i := range c.Series {
			c.Series[i].Points = append([]float64(nil), c.Series[i].Points...)
		}
		out.Chart = &c
	}
	if p.DataFrame != nil {
		d := *p.DataFrame
		d.Columns = append([]string(nil), p.DataFrame.Columns...)
		d.DTypes = append([]string(nil), p.DataFrame.DTypes...)
		d.Rows = make([][]string, len(p.DataFrame.Rows))
		for i, row := range p.DataFrame.Rows {
			d.Rows[i] = append([]string(nil), row...)
		}
		out.DataFrame = &d
	}
	if p.Model3D != nil {
		m := *p.Model3D
		m.Vertices = append([][3]float64(nil), p.Model3D.Vertices...)
		m.Faces = append([][3]int(nil), p.Model3D.Faces...)
		m.Materials = append([]string(nil), p.Model3D.Materials...)
		out.Model3D = &m
	}
	if p.PointCloud != nil {
		pc := *p.PointCloud
		pc.Points = append([][3]float64(nil), p.PointCloud.Points...)
		pc.Colors = append([][3]float64(nil), p.PointCloud.Colors...)
		out.PointCloud = &pc
	}
	return out
}
