// Package report renders printable documents for a case.
package report

import (
	"fmt"
	"time"

	"github.com/diewo77/go-intake/i18n"
	"github.com/diewo77/go-intake/internal/intake"
	"github.com/dustin/go-humanize"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// File is an attachment line of the summary.
type File struct {
	Name string
	Size int64
}

// Summary is everything printed on the case summary.
type Summary struct {
	Lang        string
	CaseID      string
	Kind        intake.Kind
	Status      intake.Status
	Year        string
	Holder      string
	Sections    []intake.SectionStatus
	Files       []File
	GeneratedAt time.Time
}

var (
	titleStyle   = props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}
	headingStyle = props.Text{Size: 11, Style: fontstyle.Bold, Top: 3}
	labelStyle   = props.Text{Size: 9, Style: fontstyle.Bold}
	valueStyle   = props.Text{Size: 9}
	rightStyle   = props.Text{Size: 9, Align: align.Right}
	footerStyle  = props.Text{Size: 7, Align: align.Right, Style: fontstyle.Italic}
)

// CaseSummary renders s as a one-page PDF in s.Lang.
func CaseSummary(s Summary) ([]byte, error) {
	lang := i18n.Normalize(s.Lang)
	t := func(code string) string { return i18n.T(lang, code) }

	m := maroto.New(config.NewBuilder().Build())
	m.AddRows(text.NewRow(12, t("pdf.title"), titleStyle))

	field := func(label, value string) {
		m.AddRow(6, text.NewCol(4, label, labelStyle), text.NewCol(8, value, valueStyle))
	}
	field(t("pdf.case"), s.CaseID)
	field(t("ui.kind"), t("kind."+string(s.Kind)))
	field(t("ui.year"), s.Year)
	field(t("ui.status"), t("status."+string(s.Status)))
	if s.Holder != "" {
		field(t("ui.holder"), s.Holder)
	}

	m.AddRows(text.NewRow(9, t("ui.checklist"), headingStyle))
	for _, sec := range s.Sections {
		mark := t("ui.incomplete")
		if sec.OK {
			mark = t("ui.complete")
		}
		m.AddRow(6, text.NewCol(8, t("section."+sec.Section), valueStyle), text.NewCol(4, mark, rightStyle))
	}

	m.AddRows(text.NewRow(9, t("ui.attachments"), headingStyle))
	if len(s.Files) == 0 {
		m.AddRows(text.NewRow(6, t("error.no_attachments"), valueStyle))
	}
	for _, f := range s.Files {
		m.AddRow(6, text.NewCol(9, f.Name, valueStyle), text.NewCol(3, humanize.Bytes(uint64(f.Size)), rightStyle))
	}

	at := s.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	m.AddRows(text.NewRow(10, fmt.Sprintf("%s %s", t("pdf.generated"), at.Format("2006-01-02 15:04")), footerStyle))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}
	return doc.GetBytes(), nil
}
