package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// countryByCode maps the registration token's 3-letter country prefix to
// the portal's localized country name. Covers the Latin-American and
// Caribbean codes the service issues tokens for.
var countryByCode = map[string]string{
	// South America
	"ARG": "Аргентина",
	"BOL": "Боливия",
	"BRA": "Бразилия",
	"CHL": "Чили",
	"COL": "Колумбия",
	"ECU": "Эквадор",
	"GUY": "Гайана",
	"PRY": "Парагвай",
	"PER": "Перу",
	"SUR": "Суринам",
	"URY": "Уругвай",
	"VEN": "Венесуэла",

	// Central America
	"BLZ": "Белиз",
	"CRI": "Коста-Рика",
	"SLV": "Сальвадор",
	"GTM": "Гватемала",
	"HND": "Гондурас",
	"NIC": "Никарагуа",
	"PAN": "Панама",

	// Caribbean
	"ATG": "Антигуа и Барбуда",
	"BHS": "Багамские Острова",
	"BRB": "Барбадос",
	"CUB": "Куба",
	"DMA": "Доминика",
	"DOM": "Доминиканская Республика",
	"GRD": "Гренада",
	"HTI": "Гаити",
	"JAM": "Ямайка",
	"KNA": "Сент-Китс и Невис",
	"LCA": "Сент-Люсия",
	"VCT": "Сент-Винсент и Гренадины",
	"TTO": "Тринидад и Тобаго",

	"MEX": "Мексика",
}

// resolveCountry applies the three-tier fallback: the comma-separated
// segment after the registration token in the header, then the first gray
// header sub-span, then the static code table. The table guarantees an
// answer whenever the token prefix is known, even on heavily degraded
// markup.
func resolveCountry(doc *goquery.Document, header string) (string, bool) {
	token := regNumberRe.FindString(header)

	// Tier 1: ", <country>" right after the token in the header text.
	if token != "" {
		after := header[strings.Index(header, token)+len(token):]
		if idx := strings.Index(after, ","); idx >= 0 {
			rest := after[idx+1:]
			if end := strings.IndexAny(rest, ",\n"); end >= 0 {
				rest = rest[:end]
			}
			if country := strings.TrimSpace(rest); country != "" {
				return country, true
			}
		}
	}

	// Tier 2: the first gray header sub-span, e.g. "ECU-10520/25, Эквадор".
	span := strings.TrimSpace(doc.Find("h3 span.color-gray.text-shadow-white").First().Text())
	if parts := strings.Split(span, ","); len(parts) > 1 {
		if country := strings.TrimSpace(parts[1]); country != "" {
			return country, true
		}
	}

	// Tier 3: static lookup from the token's country-code prefix.
	if token != "" {
		if country, ok := countryByCode[strings.SplitN(token, "-", 2)[0]]; ok {
			return country, true
		}
	}

	return "", false
}
