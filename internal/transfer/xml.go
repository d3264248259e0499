package transfer

import (
	"io"

	"github.com/beevik/etree"

	"github.com/lgu-records/recordkeeper/types"
)

// WriteXML writes <records><record>...</record></records> with one child
// element per export column.
func WriteXML(w io.Writer, records []types.Record) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("records")
	root.CreateAttr("count", itoa(len(records)))
	for _, r := range records {
		el := root.CreateElement("record")
		for i, value := range recordRow(r) {
			el.CreateElement(ExportColumns[i]).SetText(value)
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

// ReadXML reads the layout WriteXML produces. Child element names become
// column headers.
func ReadXML(r io.Reader) ([][]string, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}

	var header []string
	seen := map[string]int{}
	elements := doc.FindElements("//record")
	for _, el := range elements {
		for _, child := range el.ChildElements() {
			if _, ok := seen[child.Tag]; !ok {
				seen[child.Tag] = len(header)
				header = append(header, child.Tag)
			}
		}
	}

	table := [][]string{header}
	for _, el := range elements {
		row := make([]string, len(header))
		for _, child := range el.ChildElements() {
			row[seen[child.Tag]] = child.Text()
		}
		table = append(table, row)
	}
	return table, nil
}
