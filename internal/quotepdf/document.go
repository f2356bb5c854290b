// Package quotepdf renders cart lines as a printable quote.
package quotepdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/DongSeo/platform/internal/cart"
	"github.com/DongSeo/platform/internal/pricing"
)

const (
	DefaultCompanyName = "쉐누 (CHENOUS)"
	DefaultTitle       = "견적서"
	vatNote            = "* VAT 별도"
	disclaimer         = "* 본 견적서는 참고용이며, 실제 견적은 현장 확인 후 결정됩니다."
	woodFrameName      = "목재문틀"
)

var woodFrameMarkers = []string{"목재문틀", "才", "사이"}

// Document is everything printed on a quote.
type Document struct {
	Title       string      `json:"title,omitempty"`
	CompanyName string      `json:"companyName,omitempty"`
	Date        time.Time   `json:"date"`
	Lines       []cart.Line `json:"lines"`
}

// NewDocument returns a document for lines dated date.
func NewDocument(companyName string, lines []cart.Line, date time.Time) Document {
	doc := Document{CompanyName: companyName, Date: date, Lines: lines}
	return doc.withDefaults()
}

func (d Document) withDefaults() Document {
	if strings.TrimSpace(d.Title) == "" {
		d.Title = DefaultTitle
	}
	if strings.TrimSpace(d.CompanyName) == "" {
		d.CompanyName = DefaultCompanyName
	}
	if d.Date.IsZero() {
		d.Date = time.Now()
	}
	return d
}

// FileName is the suggested download name, e.g. 견적서_통합_2024-03-01.pdf.
func (d Document) FileName() string {
	return fmt.Sprintf("견적서_통합_%s.pdf", d.Date.Format("2006-01-02"))
}

// Summary holds the quote totals.
type Summary struct {
	BaseTotal   int64
	MarginTotal int64
	MarginRate  string
	Total       int64
}

// Summary adds up the lines. MarginRate is the rate of the first line that
// carries one.
func (d Document) Summary() Summary {
	var s Summary
	for _, l := range d.Lines {
		s.Total += l.Price()
		s.BaseTotal += baseTotal(l)
		if l.MarginAmount != nil {
			s.MarginTotal += *l.MarginAmount
		}
		if s.MarginRate == "" && l.Margin != "" {
			s.MarginRate = l.Margin
		}
	}
	if s.MarginRate == "" {
		s.MarginRate = "0"
	}
	return s
}

// DisplayName is the product name printed on the quote. Wood frame variants
// all print as 목재문틀.
func DisplayName(name string) string {
	for _, marker := range woodFrameMarkers {
		if strings.Contains(name, marker) {
			return woodFrameName
		}
	}
	return name
}

func baseTotal(l cart.Line) int64 {
	if l.FinalPrice == nil || *l.FinalPrice == 0 {
		return l.TotalPrice
	}
	if l.MarginAmount == nil {
		return *l.FinalPrice
	}
	return *l.FinalPrice - *l.MarginAmount
}

func formatDate(t time.Time) string {
	return fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
}

func won(amount int64) string {
	return pricing.FormatWon(amount) + "원"
}

func signedWon(amount int64) string {
	if amount > 0 {
		return "+" + won(amount)
	}
	return won(amount)
}

// lineDetails returns the indented detail rows printed under a line's name.
func lineDetails(l cart.Line) []string {
	var rows []string
	if l.CategoryName != "" {
		category := l.CategoryName
		if l.SubCategoryName != "" {
			category += " > " + l.SubCategoryName
		}
		rows = append(rows, "카테고리: "+category)
	}
	if l.IsWood() {
		rows = append(rows, "단가: "+won(l.UnitPrice), fmt.Sprintf("수량: %d개", l.Quantity))
		return append(rows, marginRows(l)...)
	}

	if l.SpecName != "" || l.TypeName != "" {
		rows = append(rows, fmt.Sprintf("규격/타입: %s / %s", dash(l.SpecName), dash(l.TypeName)))
	}
	if l.Width != nil && l.Height != nil {
		rows = append(rows, fmt.Sprintf("사이즈: 가로: %dmm, 세로: %dmm", *l.Width, *l.Height))
	}
	if l.ColorName != "" {
		color := "색상: " + l.ColorName
		if l.ColorCode != "" {
			color += " (" + l.ColorCode + ")"
		}
		rows = append(rows, color)
	}
	rows = append(rows, "기본 단가: "+won(l.BaseUnitPrice))
	for _, s := range l.Surcharges {
		rows = append(rows, "- "+s.Reason)
	}
	if l.ColorCost != nil {
		rows = append(rows, fmt.Sprintf("색상 추가 비용 (%s): %s", l.ColorCost.Reason, signedWon(l.ColorCost.Amount)))
	}
	rows = append(rows, "단가: "+won(l.UnitPrice))
	if l.OptionPrice != 0 {
		rows = append(rows, "추가 옵션 가격: "+signedWon(l.OptionPrice))
	}
	if len(l.SelectedOptions) > 0 {
		rows = append(rows, "선택 옵션: "+strings.Join(l.SelectedOptions, ", "))
	}
	rows = append(rows, fmt.Sprintf("수량: %d개", l.Quantity))
	return append(rows, marginRows(l)...)
}

func marginRows(l cart.Line) []string {
	rows := []string{"소계 (마진 적용 전): " + won(baseTotal(l))}
	if l.Margin != "" && l.MarginAmount != nil && *l.MarginAmount > 0 {
		rows = append(rows, fmt.Sprintf("회사 마진 (%s%%): +%s", l.Margin, won(*l.MarginAmount)))
	}
	return rows
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
