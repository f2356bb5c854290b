package quotepdf

import (
	"fmt"
	"unicode/utf8"
)

// Page geometry in millimetres (A4 portrait).
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	Margin       = 20.0
	WrapWidth    = 170.0
	ruleEnd      = PageWidth - Margin
	itemBreakY   = PageHeight - 50
	totalsBreakY = PageHeight - 30
	bottomLimit  = PageHeight - 10
	detailIndent = 5.0
)

type OpKind int

const (
	OpPage OpKind = iota
	OpText
	OpRule
)

// Op is one drawing instruction. Text ops are positioned at their baseline.
type Op struct {
	Kind     OpKind
	X, Y     float64
	FontSize float64
	Text     string
	Centered bool
}

// Measurer wraps text to a width at a font size.
type Measurer interface {
	SplitText(text string, fontSize, width float64) []string
}

type layout struct {
	ops []Op
	y   float64
	m   Measurer
}

func (l *layout) newPage() {
	l.ops = append(l.ops, Op{Kind: OpPage})
	l.y = Margin
}

func (l *layout) text(x, size float64, s string) {
	l.ops = append(l.ops, Op{Kind: OpText, X: x, Y: l.y, FontSize: size, Text: s})
}

func (l *layout) wrapped(x, size float64, s string) int {
	lines := l.m.SplitText(s, size, WrapWidth)
	if len(lines) == 0 {
		lines = []string{s}
	}
	for i, line := range lines {
		l.ops = append(l.ops, Op{Kind: OpText, X: x, Y: l.y + float64(i)*6, FontSize: size, Text: line})
	}
	return len(lines)
}

func (l *layout) rule() {
	l.ops = append(l.ops, Op{Kind: OpRule, X: Margin, Y: l.y})
}

// Layout positions every element of doc. A new page starts before an item
// when y passes 247mm, before the totals when y passes 267mm, and before
// either block when it would run into the bottom 10mm.
func Layout(doc Document, m Measurer) []Op {
	doc = doc.withDefaults()
	l := &layout{m: m}
	l.newPage()

	l.ops = append(l.ops, Op{Kind: OpText, X: PageWidth / 2, Y: l.y, FontSize: 24, Text: doc.Title, Centered: true})
	l.y += 15
	l.text(Margin, 14, doc.CompanyName)
	l.y += 8
	l.text(Margin, 10, "작성일: "+formatDate(doc.Date))
	l.y += 12
	l.rule()
	l.y += 12
	l.text(Margin, 12, "견적 내역")
	l.y += 12

	for i, line := range doc.Lines {
		name := fmt.Sprintf("%d. %s", i+1, DisplayName(line.ProductName))
		rows := lineDetails(line)
		height := float64(len(l.m.SplitText(name, 11, WrapWidth)))*6 + 2 + float64(len(rows))*6 + 18
		if l.y > itemBreakY || l.y+height > bottomLimit {
			l.newPage()
		}
		n := l.wrapped(Margin, 11, name)
		l.y += float64(n)*6 + 2

		for _, row := range rows {
			l.text(Margin+detailIndent, 9, row)
			l.y += 6
		}
		l.text(Margin+detailIndent, 11, "최종 소계: "+won(line.Price()))
		l.y += 10
		l.rule()
		l.y += 8
	}

	s := doc.Summary()
	height := 10 + 7 + 10 + 6 + float64(len(l.m.SplitText(disclaimer, 9, WrapWidth)))*6
	if s.MarginTotal > 0 {
		height += 7
	}
	if l.y > totalsBreakY || l.y+height > bottomLimit {
		l.newPage()
	}
	l.rule()
	l.y += 10

	l.text(Margin, 11, "총액 (마진 적용 전): "+won(s.BaseTotal))
	l.y += 7
	if s.MarginTotal > 0 {
		l.text(Margin, 10, fmt.Sprintf("회사 마진 (%s%%): +%s", s.MarginRate, won(s.MarginTotal)))
		l.y += 7
	}
	l.text(Margin, 14, "총 예상 금액: "+won(s.Total))
	l.y += 10
	l.text(Margin, 9, vatNote)
	l.y += 6
	l.wrapped(Margin, 9, disclaimer)

	return l.ops
}

// Pages counts the pages in ops.
func Pages(ops []Op) int {
	n := 0
	for _, op := range ops {
		if op.Kind == OpPage {
			n++
		}
	}
	return n
}

// RuneMeasurer approximates glyph widths as a fixed fraction of the font size
// per rune. Hangul glyphs are roughly square, so the default is one em.
type RuneMeasurer struct {
	EmPerRune float64
}

func (r RuneMeasurer) SplitText(text string, fontSize, width float64) []string {
	em := r.EmPerRune
	if em <= 0 {
		em = 1
	}
	// 1pt = 0.3528mm
	perRune := fontSize * 0.3528 * em
	limit := int(width / perRune)
	if limit < 1 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var lines []string
	runes := []rune(text)
	for len(runes) > limit {
		lines = append(lines, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
