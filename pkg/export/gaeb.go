package export

import (
	"encoding/xml"
	"fmt"
	"io"
)

// gaebNamespace is the GAEB DA XML 3.2 schema namespace.
const gaebNamespace = "http://www.gaeb.de/GAEB_DA_XML/200407"

type gaebDoc struct {
	XMLName xml.Name `xml:"GAEB"`
	Xmlns   string   `xml:"xmlns,attr"`
	Info    gaebInfo `xml:"GAEBInfo"`
	Project gaebPrj  `xml:"PrjInfo"`
	Award   gaebAward
}

type gaebInfo struct {
	Version    string `xml:"Version"`
	VersNo     string `xml:"VersNo"`
	Date       string `xml:"Date"`
	ProgSystem string `xml:"ProgSystem"`
}

type gaebPrj struct {
	Name     string `xml:"NamePrj"`
	Label    string `xml:"LblPrj,omitempty"`
	Currency string `xml:"Cur"`
}

type gaebAward struct {
	XMLName xml.Name `xml:"Award"`
	BoQ     gaebBoQ  `xml:"BoQ"`
}

type gaebBoQ struct {
	Info struct{} `xml:"BoQInfo"`
	Body gaebBody `xml:"BoQBody"`
}

type gaebBody struct {
	Categories []gaebCategory `xml:"BoQCtgy"`
	Items      []gaebItemList `xml:"Itemlist"`
}

type gaebCategory struct {
	Label    string   `xml:"LblTx"`
	Headline string   `xml:"Headline"`
	Body     gaebBody `xml:"BoQBody"`
}

type gaebItemList struct {
	Item gaebItem `xml:"Item"`
}

type gaebItem struct {
	Qty         string          `xml:"Qty"`
	Unit        string          `xml:"QU"`
	Description gaebDescription `xml:"Description"`
}

type gaebDescription struct {
	OutlineText string `xml:"OutlineText"`
	DetailText  string `xml:"DetailTxt,omitempty"`
}

// WriteGAEB writes the bill as a GAEB DA XML 3.2 document.
func WriteGAEB(w io.Writer, bill *Bill) error {
	doc := gaebDoc{
		Xmlns: gaebNamespace,
		Info: gaebInfo{
			Version:    "GAEB XML 3.2",
			VersNo:     "32",
			Date:       bill.Date.Format("2006-01-02T15:04:05"),
			ProgSystem: "Raumwerk",
		},
		Project: gaebPrj{
			Name:     bill.ProjectName,
			Label:    bill.ProjectNumber,
			Currency: bill.Currency,
		},
	}

	for _, g := range bill.Groups {
		category := gaebCategory{Label: g.OZ, Headline: g.Label}
		for _, p := range g.Positions {
			category.Body.Items = append(category.Body.Items, gaebItemList{
				Item: gaebItem{
					Qty:  fmt.Sprintf("%.3f", p.Quantity),
					Unit: p.Unit,
					Description: gaebDescription{
						OutlineText: p.ShortText,
						DetailText:  p.LongText,
					},
				},
			})
		}
		doc.Award.BoQ.Body.Categories = append(doc.Award.BoQ.Body.Categories, category)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode gaeb: %w", err)
	}
	return enc.Close()
}
