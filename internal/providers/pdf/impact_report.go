package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/greenpack/internal/impact"
)

type ImpactReportData struct {
	CompanyName string
	GeneratedAt string
	Input       impact.UsageInput
	Estimate    impact.Estimate
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateImpactReport(ctx context.Context, data ImpactReportData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	company := strings.TrimSpace(data.CompanyName)
	if company == "" {
		company = "GreenPack"
	}

	m.AddRow(15,
		text.NewCol(12, company+" environmental impact estimate", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(10,
		text.NewCol(12, "Generated "+data.GeneratedAt, props.Text{Size: 9}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Your usage", props.Text{Style: fontstyle.Bold}),
			text.New(fmt.Sprintf("Plastic bags per month: %d", data.Input.MonthlyBagCount), props.Text{Top: 6}),
			text.New(fmt.Sprintf("Average bag weight: %s g", formatNumber(data.Input.AverageBagWeightGrams)), props.Text{Top: 11}),
		),
		col.New(6),
	)

	m.AddRow(10,
		text.NewCol(8, "Metric", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(4, "Value", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	rows := []struct {
		label string
		value string
	}{
		{"Plastic saved per month", formatNumber(data.Estimate.MonthlyPlasticSavedKg) + " kg"},
		{"Plastic saved per year", formatNumber(data.Estimate.AnnualPlasticSavedKg) + " kg"},
		{"Carbon offset per year", formatNumber(data.Estimate.AnnualCarbonOffsetKg) + " kg CO2"},
		{"Equivalent trees planted", fmt.Sprintf("%d", data.Estimate.TreesEquivalent)},
		{"Water saved per year", formatNumber(data.Estimate.AnnualWaterSavedLiters) + " L"},
	}
	for _, row := range rows {
		m.AddRow(8,
			text.NewCol(8, row.label, props.Text{Size: 10}),
			text.NewCol(4, row.value, props.Text{Size: 10, Align: align.Right}),
		)
	}

	m.AddRow(20,
		text.NewCol(12, "Figures assume a full switch to biodegradable bags of the same weight.", props.Text{
			Size: 8,
			Top:  8,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func formatNumber(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
