// Package extract parses the portal's tracking result page into a
// structured status record. The page's markup is inconsistent across
// statuses and over time, so every field is located by its own layered
// heuristics; one field's absence never blocks another's extraction.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/latam-scholars/status-cli/internal/model"
	"github.com/latam-scholars/status-cli/internal/resilience"
)

var (
	regNumberRe    = regexp.MustCompile(`[A-Z]{3}-\d+/\d+`)
	cyrillicNameRe = regexp.MustCompile(`[А-Яа-яЁё][А-Яа-яЁё\s]*`)
	yearInfoRe     = regexp.MustCompile(`В \d{4} году`)
)

// statusIconClasses mark the block that renders the application status.
var statusIconClasses = []string{
	"icon-check", "icon-share", "icon-ok-sign", "icon-arrow-right", "icon-ok",
}

// Parse extracts a status record from the result page HTML. It fails only
// when the page carries an explicit error banner; missing individual
// fields simply stay empty.
func Parse(html string, rec model.Record) (model.Result, error) {
	res := model.NewResult(rec)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return res, resilience.Classify(resilience.KindExtraction,
			eris.Wrap(err, "extract: parse page HTML"))
	}

	if msg, found := errorBanner(doc); found {
		return res, resilience.Classify(resilience.KindExtraction,
			eris.Errorf("extract: tracking page error: %s", msg))
	}

	header := strings.TrimSpace(doc.Find("h3").First().Text())

	// Independent extractors, evaluated in priority order per field.
	if v, ok := cyrillicName(header); ok {
		res.NameCyrillic = v
	}
	if v, ok := headerRegNumber(header); ok {
		res.SystemRegNumber = v
	}
	if v, ok := latinName(doc); ok {
		res.NameLatin = v
	}
	if v, ok := statusLabel(doc); ok {
		res.Status = v
	}
	if v, ok := statusMessage(doc); ok {
		res.StatusMessage = v
	}
	if v, ok := labeledValue(doc, "Уровень образования:"); ok {
		res.EducationLevel = v
	}
	res.EducationProgram = joinBlocks(labeledBlocks(doc, "Образовательная программа:", yearInfoProgram(doc)))
	res.PreparatoryFaculty = joinBlocks(labeledBlocks(doc, "Подготовительный факультет:", yearInfoPreparatory(doc)))

	// The system-assigned number overrides the header-derived token.
	if v, ok := systemRegNumber(doc); ok {
		res.SystemRegNumber = v
	}
	if v, ok := resolveCountry(doc, header); ok {
		res.Country = v
	}

	res.Processed = true
	return res, nil
}

// errorBanner reports the text of an explicit form/validation error block.
func errorBanner(doc *goquery.Document) (string, bool) {
	banner := doc.Find(".alert-error").First()
	if banner.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(banner.Text()), true
}

func cyrillicName(header string) (string, bool) {
	m := cyrillicNameRe.FindString(header)
	m = strings.TrimSpace(m)
	return m, m != ""
}

func headerRegNumber(header string) (string, bool) {
	m := regNumberRe.FindString(header)
	return m, m != ""
}

// latinName reads the second gray sub-span of the header; the first holds
// the token and country.
func latinName(doc *goquery.Document) (string, bool) {
	v := strings.TrimSpace(doc.Find("h3 span.color-gray.text-shadow-white").Eq(1).Text())
	return v, v != ""
}

// statusLabel finds the status block by its icon marker.
func statusLabel(doc *goquery.Document) (string, bool) {
	var label string
	doc.Find(".span8").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, class := range statusIconClasses {
			if s.Find("."+class).Length() > 0 {
				label = strings.TrimSpace(s.Text())
				return false
			}
		}
		return true
	})
	return label, label != ""
}

// statusMessage concatenates the status paragraphs in document order.
func statusMessage(doc *goquery.Document) (string, bool) {
	var paragraphs []string
	doc.Find(".span8.text-shadow-white p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return "", false
	}
	return strings.Join(paragraphs, "\n"), true
}

// labeledValue finds the value element following a label element containing
// the expected text.
func labeledValue(doc *goquery.Document, label string) (string, bool) {
	var value string
	doc.Find(".span4").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), label) {
			return true
		}
		next := s.Next()
		if next.HasClass("span8") {
			value = strings.TrimSpace(next.Text())
		}
		return false
	})
	return value, value != ""
}

// labeledBlocks combines a label-anchored value with an optional extra
// year-qualified paragraph found elsewhere on the page.
func labeledBlocks(doc *goquery.Document, label, extra string) []string {
	var blocks []string
	if v, ok := labeledValue(doc, label); ok {
		blocks = append(blocks, v)
	}
	if extra != "" {
		blocks = append(blocks, extra)
	}
	return blocks
}

func joinBlocks(blocks []string) string {
	return strings.Join(blocks, "\n")
}

// yearInfoProgram returns the year-qualified informational paragraph about
// the education program, when present.
func yearInfoProgram(doc *goquery.Document) string {
	return yearInfo(doc, func(text string) bool {
		return !strings.Contains(strings.ToLower(text), "подготовит")
	})
}

// yearInfoPreparatory returns the year-qualified paragraph about the
// preparatory faculty, when present.
func yearInfoPreparatory(doc *goquery.Document) string {
	return yearInfo(doc, func(text string) bool {
		return strings.Contains(strings.ToLower(text), "подготовит")
	})
}

// yearInfo scans standalone informational blocks shaped like "В <year>
// году ..." and returns the first one the accept filter routes to the
// caller's field.
func yearInfo(doc *goquery.Document, accept func(string) bool) string {
	var found string
	doc.Find(".span8").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !yearInfoRe.MatchString(text) || !accept(text) {
			return true
		}
		found = text
		return false
	})
	return found
}

// systemRegNumber reads the dedicated "your registration number" block.
func systemRegNumber(doc *goquery.Document) (string, bool) {
	var token string
	doc.Find(".span8").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), "Ваш регистрационный номер") {
			return true
		}
		token = regNumberRe.FindString(s.Text())
		return false
	})
	return token, token != ""
}
