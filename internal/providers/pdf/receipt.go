package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData carries everything printed on a payment receipt.
type ReceiptData struct {
	ReceiptRef    string
	RegNumber     string
	CandidateName string
	Purpose       string
	Session       string
	Provider      string
	ProviderRef   string
	Amount        string
	PaidAt        string
	Institution   string
}

// Generator renders a receipt document.
type Generator interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type PDFProvider struct{}

func NewProvider() *PDFProvider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, data.Institution, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(12,
		text.NewCol(12, "Payment Receipt", props.Text{
			Size:  14,
			Align: align.Center,
		}),
	)
	m.AddRow(4, line.NewCol(12))

	m.AddRow(30,
		col.New(6).Add(
			text.New("Receipt No: "+data.ReceiptRef, props.Text{Top: 0}),
			text.New("Date paid: "+data.PaidAt, props.Text{Top: 6}),
			text.New("Session: "+data.Session, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Candidate: "+data.CandidateName, props.Text{Top: 0}),
			text.New("Reg number: "+data.RegNumber, props.Text{Top: 6}),
			text.New("Purpose: "+data.Purpose, props.Text{Top: 12}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, data.Amount+" paid on "+data.PaidAt, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)

	m.AddRow(16,
		col.New(12).Add(
			text.New("Channel: "+data.Provider, props.Text{Top: 0}),
			text.New("Gateway reference: "+data.ProviderRef, props.Text{Top: 6}),
		),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
