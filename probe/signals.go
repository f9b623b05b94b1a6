package probe

import (
	"regexp"
	"strings"
)

// overviewTextPatterns are localized labels of the AI-generated overview.
var overviewTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ai overview`),
	regexp.MustCompile(`(?i)overview from ai`),
	regexp.MustCompile(`(?i)generated by ai`),
	// fr
	regexp.MustCompile(`(?i)aperçu (?:par|de) l['’]ia`),
	regexp.MustCompile(`(?i)généré par l['’]ia`),
	regexp.MustCompile(`(?i)vue d['’]ensemble de l['’]ia`),
	// de
	regexp.MustCompile(`(?i)ki[- ]?(?:übersicht|überblick)`),
	regexp.MustCompile(`(?i)durch ki erstellt`),
	regexp.MustCompile(`(?i)von ki generiert`),
	// ja
	regexp.MustCompile(`(?i)ai[ 　]?概要`),
	regexp.MustCompile(`(?i)ai[ 　]?による概要`),
	regexp.MustCompile(`(?i)ai[ 　]?によって生成`),
	// es
	regexp.MustCompile(`(?i)resumen de ia`),
	regexp.MustCompile(`(?i)descripción general de ia`),
	regexp.MustCompile(`(?i)generado por ia`),
	// it
	regexp.MustCompile(`(?i)panoramica (?:ia|dell['’]ia)`),
	regexp.MustCompile(`(?i)generat[ao] dall['’]ia`),
	// nl
	regexp.MustCompile(`(?i)ai[- ]?overzicht`),
	regexp.MustCompile(`(?i)gegenereerd door ai`),
}

var (
	overviewBackendRe = regexp.MustCompile(`(?i)genai|searchgenai|unified_qa|/_/SearchGenAI|_batchexecute`)
	googleHostRe      = regexp.MustCompile(`(?i)google\.`)
)

// OverviewText reports whether visible page text mentions the overview in
// any supported language.
func OverviewText(text string) bool {
	t := strings.ToLower(text)
	for _, re := range overviewTextPatterns {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// OverviewNetwork reports whether any request URL targets the overview
// backend on a Google host.
func OverviewNetwork(urls []string) bool {
	for _, u := range urls {
		if overviewBackendRe.MatchString(u) && googleHostRe.MatchString(u) {
			return true
		}
	}
	return false
}
