package matrix

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// maxHotspots bounds DebtProfile.Hotspots.
const maxHotspots = 5

// Hotspot is one of the cells carrying the most debt.
type Hotspot struct {
	RowCategory  string       `json:"row_category"`
	ColCategory  string       `json:"col_category"`
	TriangleType TriangleType `json:"triangle_type"`
	DebtUnits    float64      `json:"debt_units"`
}

// DebtProfile describes how debt is distributed over the cells of a matrix.
type DebtProfile struct {
	CellCount      int       `json:"cell_count"`
	Mean           float64   `json:"mean"`
	StdDev         float64   `json:"std_dev"`
	Median         float64   `json:"median"`
	Q25            float64   `json:"q25"`
	Q75            float64   `json:"q75"`
	Max            float64   `json:"max"`
	Skewness       float64   `json:"skewness"`
	OutlierCells   int       `json:"outlier_cells"`
	TopDecileShare float64   `json:"top_decile_share"`
	Hotspots       []Hotspot `json:"hotspots"`
}

// Profile summarizes the cell debt of m. An empty matrix yields the zero
// profile.
func Profile(m *PresenceMatrix) DebtProfile {
	p := DebtProfile{CellCount: len(m.Cells), Hotspots: []Hotspot{}}
	if len(m.Cells) == 0 {
		return p
	}

	data := make([]float64, len(m.Cells))
	for i, c := range m.Cells {
		data[i] = c.DebtUnits
	}

	// stats only fails on empty input, ruled out above
	p.Mean, _ = stats.Mean(data)
	p.StdDev, _ = stats.StandardDeviation(data)
	p.Median, _ = stats.Median(data)
	p.Max, _ = stats.Max(data)
	if len(data) > 1 {
		p.Q25, _ = stats.Percentile(data, 25)
		p.Q75, _ = stats.Percentile(data, 75)
	} else {
		p.Q25, p.Q75 = data[0], data[0]
	}
	p.Skewness = skewness(data, p.Mean, p.StdDev)
	p.OutlierCells = outliers(data, p.Q25, p.Q75)

	ranked := make([]int, len(m.Cells))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return m.Cells[ranked[a]].DebtUnits > m.Cells[ranked[b]].DebtUnits
	})

	total := m.TotalUnits()
	if total > 0 {
		top := int(math.Ceil(float64(len(data)) / 10))
		var sum float64
		for _, idx := range ranked[:top] {
			sum += m.Cells[idx].DebtUnits
		}
		p.TopDecileShare = sum / total
	}

	for _, idx := range ranked {
		c := m.Cells[idx]
		if len(p.Hotspots) == maxHotspots || c.DebtUnits <= 0 {
			break
		}
		p.Hotspots = append(p.Hotspots, Hotspot{
			RowCategory:  c.RowCategory,
			ColCategory:  c.ColCategory,
			TriangleType: c.TriangleType,
			DebtUnits:    c.DebtUnits,
		})
	}
	return p
}

// skewness is the adjusted Fisher-Pearson coefficient.
func skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}
	n := float64(len(data))
	var sum float64
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}

// outliers counts values beyond 1.5 IQR of the quartiles.
func outliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower, upper := q25-1.5*iqr, q75+1.5*iqr
	n := 0
	for _, x := range data {
		if x < lower || x > upper {
			n++
		}
	}
	return n
}
