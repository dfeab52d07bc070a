package enrich

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/medalline/enrich/pkg/search"
)

// retailerDomains rank last in producer-page search results: retailer
// listings are thin and frequently describe a sibling bottling.
var retailerDomains = []string{
	"wine.com",
	"totalwine.com",
	"drizly.com",
	"reservebar.com",
	"caskers.com",
	"thewhiskyexchange.com",
	"masterofmalt.com",
	"klwines.com",
	"wine-searcher.com",
	"flaviar.com",
}

const (
	rankOfficial = 0
	rankOther    = 1
	rankRetailer = 2
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// RankProducerURLs orders search results for the producer-page step:
// domains carrying the brand or producer name first, known retailers last,
// everything else in between. Order within a rank follows the provider.
func RankProducerURLs(results []search.Result, brand, producer string) []search.Result {
	ranked := make([]search.Result, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return urlRank(ranked[i].URL, brand, producer) < urlRank(ranked[j].URL, brand, producer)
	})
	return ranked
}

func urlRank(rawURL, brand, producer string) int {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rankOther
	}
	host := strings.ToLower(parsed.Host)

	for _, d := range retailerDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return rankRetailer
		}
	}

	compactHost := nonAlnum.ReplaceAllString(host, "")
	for _, name := range []string{brand, producer} {
		compact := nonAlnum.ReplaceAllString(strings.ToLower(name), "")
		if compact != "" && strings.Contains(compactHost, compact) {
			return rankOfficial
		}
	}
	return rankOther
}
