package codec

import (
	"fmt"
	"strings"

	"github.com/spatialdeck/backend/internal/shared/types"
)

// defaultGenerators builds the per-kind dispatch table. Each default
// generator round-trips explicit window content verbatim and otherwise emits
// a short placeholder describing the window; the rendering layer replaces
// these via SetGenerator with real chart/dataframe/model exporters.
func defaultGenerators() map[types.WindowKind]ContentFunc {
	return map[types.WindowKind]ContentFunc{
		types.KindChart:         chartContent,
		types.KindSpatialEditor: textContent("spatial editor"),
		types.KindDataFrame:     dataFrameContent,
		types.KindPointCloud:    pointCloudContent,
		types.KindModel3D:       model3DContent,
		types.KindVolume:        textContent("volume"),
	}
}

func chartContent(rec types.WindowRecord) string {
	if rec.State.Content != "" {
		return rec.State.Content
	}
	if p := rec.State.Payload; p != nil && p.Chart != nil {
		names := make([]string, 0, len(p.Chart.Series))
		for _, s := range p.Chart.Series {
			names = append(names, s.Name)
		}
		return fmt.Sprintf("# chart window %d: %s [%s]\n", rec.ID, p.Chart.ChartType, strings.Join(names, ", "))
	}
	return fmt.Sprintf("# chart window %d\n", rec.ID)
}

func dataFrameContent(rec types.WindowRecord) string {
	if rec.State.Content != "" {
		return rec.State.Content
	}
	if p := rec.State.Payload; p != nil && p.DataFrame != nil {
		return fmt.Sprintf("# dataframe window %d: %d column(s), %d row(s)\n",
			rec.ID, len(p.DataFrame.Columns), len(p.DataFrame.Rows))
	}
	return fmt.Sprintf("# dataframe window %d\n", rec.ID)
}

func pointCloudContent(rec types.WindowRecord) string {
	if rec.State.Content != "" {
		return rec.State.Content
	}
	if p := rec.State.Payload; p != nil && p.PointCloud != nil {
		return fmt.Sprintf("# pointcloud window %d: %d point(s)\n", rec.ID, len(p.PointCloud.Points))
	}
	return fmt.Sprintf("# pointcloud window %d\n", rec.ID)
}

func model3DContent(rec types.WindowRecord) string {
	if rec.State.Content != "" {
		return rec.State.Content
	}
	if p := rec.State.Payload; p != nil && p.Model3D != nil {
		return fmt.Sprintf("# model3d window %d: %d vertices, %d faces\n",
			rec.ID, len(p.Model3D.Vertices), len(p.Model3D.Faces))
	}
	return fmt.Sprintf("# model3d window %d\n", rec.ID)
}

func textContent(label string) ContentFunc {
	return func(rec types.WindowRecord) string {
		if rec.State.Content != "" {
			return rec.State.Content
		}
		return fmt.Sprintf("# %s window %d\n", label, rec.ID)
	}
}
