// Package pdf renders payment receipts and fee statements with maroto.
package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReceiptData struct {
	SchoolName  string
	SchoolPhone string
	ReceiptNo   string
	DatePaid    string
	Method      string
	Reference   string

	StudentName string
	AdmissionNo string
	ClassName   string

	Lines       []ReceiptLine
	Total       string
	Unallocated string
}

type ReceiptLine struct {
	Description string
	Amount      string
}

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
	GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error)
}

type provider struct{}

func New() Provider {
	return &provider{}
}

func (p *provider) GenerateReceipt(_ context.Context, data ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(25,
		text.NewCol(8, data.SchoolName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "PAYMENT RECEIPT", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(25,
		col.New(6).Add(
			text.New("Receipt no: "+data.ReceiptNo, props.Text{Top: 0}),
			text.New("Date paid: "+data.DatePaid, props.Text{Top: 4}),
			text.New("Method: "+data.Method, props.Text{Top: 8}),
			text.New("Reference: "+data.Reference, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New(data.StudentName, props.Text{Style: fontstyle.Bold}),
			text.New("Admission no: "+data.AdmissionNo, props.Text{Top: 5}),
			text.New("Class: "+data.ClassName, props.Text{Top: 9}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Applied to", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, line := range data.Lines {
		m.AddRow(8,
			text.NewCol(8, line.Description, props.Text{Size: 9}),
			text.NewCol(4, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if data.Unallocated != "" {
		m.AddRow(8,
			text.NewCol(8, "Unallocated (on account)", props.Text{Size: 9}),
			text.NewCol(4, data.Unallocated, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		col.New(6),
		text.NewCol(3, "Total paid", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(3, data.Total, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)

	if data.SchoolPhone != "" {
		m.AddRow(15,
			text.NewCol(12, "Queries: "+data.SchoolPhone, props.Text{Size: 8, Top: 5}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
