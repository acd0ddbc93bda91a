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

type StatementData struct {
	SchoolName  string
	AsOf        string
	StudentName string
	AdmissionNo string
	ClassName   string

	Rows []StatementRow

	TotalPayable     string
	TotalPaid        string
	TotalOutstanding string
}

type StatementRow struct {
	FeeHead     string
	Term        string
	DueDate     string
	Payable     string
	Paid        string
	Outstanding string
	Status      string
}

func (p *provider) GenerateStatement(_ context.Context, data StatementData) (io.Reader, error) {
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
		text.NewCol(4, "FEE STATEMENT", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New(data.StudentName, props.Text{Style: fontstyle.Bold}),
			text.New("Admission no: "+data.AdmissionNo, props.Text{Top: 5}),
			text.New("Class: "+data.ClassName, props.Text{Top: 9}),
		),
		col.New(6).Add(
			text.New("As of: "+data.AsOf, props.Text{Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(3, "Fee head", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Term", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Due date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Payable", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, "Paid", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Outstanding", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, row := range data.Rows {
		m.AddRow(8,
			text.NewCol(3, row.FeeHead, props.Text{Size: 9}),
			text.NewCol(2, row.Term, props.Text{Size: 9}),
			text.NewCol(2, row.DueDate, props.Text{Size: 9}),
			text.NewCol(2, row.Payable, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, row.Paid, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, row.Outstanding, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Total payable", props.Text{Size: 9}),
		text.NewCol(3, data.TotalPayable, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Total paid", props.Text{Size: 9}),
		text.NewCol(3, data.TotalPaid, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Outstanding", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(3, data.TotalOutstanding, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
