package probe

import (
	"strings"

	"github.com/fwojciec/serpscope"
	"github.com/tidwall/gjson"
)

// structuredFields lists, per feature, the listing fields whose presence
// reveals it. Any one present field is enough.
var structuredFields = map[serpscope.Feature][]string{
	serpscope.FeaturedSnippet: {"answer_box", "featured_snippet"},
	serpscope.KnowledgePanel:  {"knowledge_graph"},
	serpscope.PeopleAlsoAsk:   {"related_questions", "people_also_ask"},
	serpscope.ImagePack:       {"inline_images"},
	serpscope.Video:           {"inline_videos", "video_results"},
	serpscope.AIOverview: {
		"ai_overview",
		"ai_overview_results",
		"search_information.ai_overview",
		"search_information.ai_overview_is_available",
		"knowledge_graph.ai_overview",
	},
}

// StructuredFeatures reports, per feature, whether the listing payload
// declares it. A malformed payload declares nothing. Every feature has an
// entry.
func StructuredFeatures(raw []byte) map[serpscope.Feature]bool {
	found := make(map[serpscope.Feature]bool, len(serpscope.Features))
	valid := gjson.ValidBytes(raw)
	for _, f := range serpscope.Features {
		found[f] = valid && anyPresent(raw, structuredFields[f])
	}
	return found
}

// OverviewPresent reports whether a dedicated overview response carries a
// non-empty overview.
func OverviewPresent(raw []byte) bool {
	return gjson.ValidBytes(raw) && present(gjson.GetBytes(raw, "ai_overview"))
}

// OrganicURLs returns the links of the organic results in listing order.
// Entries without a link are skipped.
func OrganicURLs(raw []byte) []string {
	if !gjson.ValidBytes(raw) {
		return nil
	}
	var urls []string
	for _, link := range gjson.GetBytes(raw, "organic_results.#.link").Array() {
		if s := strings.TrimSpace(link.String()); s != "" && link.Type == gjson.String {
			urls = append(urls, s)
		}
	}
	return urls
}

// GoogleURL returns the results page URL recorded in the listing metadata,
// or "" when there is none.
func GoogleURL(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	r := gjson.GetBytes(raw, "search_metadata.google_url")
	if r.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(r.Str)
}

func anyPresent(raw []byte, paths []string) bool {
	for _, r := range gjson.GetManyBytes(raw, paths...) {
		if present(r) {
			return true
		}
	}
	return false
}

// present reports whether r holds a value: empty objects, arrays and
// strings, false and null all count as absent.
func present(r gjson.Result) bool {
	switch {
	case !r.Exists():
		return false
	case r.IsObject():
		return len(r.Map()) > 0
	case r.IsArray():
		return len(r.Array()) > 0
	}
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return strings.TrimSpace(r.Str) != ""
	case gjson.Number:
		return r.Num != 0
	default:
		return true
	}
}
