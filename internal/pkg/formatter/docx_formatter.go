package formatter

import (
	"bytes"

	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(t *Transcript) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titlePar.AddRun().AddText(baseTitle)

	for _, turn := range t.Turns {
		par := doc.AddParagraph()
		label := par.AddRun()
		label.Properties().SetBold(true)
		label.AddText(roleLabel(turn.Role) + ": ")
		par.AddRun().AddText(turn.Content)
	}

	if len(t.Sources) > 0 {
		heading := doc.AddParagraph()
		heading.SetStyle("Heading2")
		heading.AddRun().AddText("Sources")

		for _, s := range t.Sources {
			sub := doc.AddParagraph()
			sub.SetStyle("Heading3")
			sub.AddRun().AddText(sourceHeading(s))
			doc.AddParagraph().AddRun().AddText(s.Content)
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
