package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medalline/enrich/pkg/search"
)

func TestRankProducerURLs_OfficialFirstRetailerLast(t *testing.T) {
	results := []search.Result{
		{URL: "https://www.totalwine.com/spirits/glen-example-12"},
		{URL: "https://whiskyreviews.example.com/glen-example-12"},
		{URL: "https://www.glenexample.com/whisky/12-year"},
	}

	ranked := RankProducerURLs(results, "Glen Example", "")

	assert.Equal(t, "https://www.glenexample.com/whisky/12-year", ranked[0].URL)
	assert.Equal(t, "https://whiskyreviews.example.com/glen-example-12", ranked[1].URL)
	assert.Equal(t, "https://www.totalwine.com/spirits/glen-example-12", ranked[2].URL)
}

func TestRankProducerURLs_ProducerNameAlsoCounts(t *testing.T) {
	results := []search.Result{
		{URL: "https://blog.example.org/review"},
		{URL: "https://quintadoexemplo.pt/vinhos/vintage"},
	}

	ranked := RankProducerURLs(results, "", "Quinta do Exemplo")
	assert.Equal(t, "https://quintadoexemplo.pt/vinhos/vintage", ranked[0].URL)
}

func TestRankProducerURLs_StableWithinRank(t *testing.T) {
	results := []search.Result{
		{URL: "https://a.example.com/1"},
		{URL: "https://b.example.com/2"},
		{URL: "https://c.example.com/3"},
	}

	ranked := RankProducerURLs(results, "Unrelated Brand", "")
	assert.Equal(t, results, ranked)
}

func TestRankProducerURLs_RetailerSubdomain(t *testing.T) {
	results := []search.Result{
		{URL: "https://shop.masterofmalt.com/glen-example"},
		{URL: "https://independent.example/glen-example"},
	}

	ranked := RankProducerURLs(results, "", "")
	assert.Equal(t, "https://independent.example/glen-example", ranked[0].URL)
}

func TestRankProducerURLs_DoesNotMutateInput(t *testing.T) {
	results := []search.Result{
		{URL: "https://www.wine.com/product"},
		{URL: "https://www.glenexample.com/12-year"},
	}

	RankProducerURLs(results, "Glen Example", "")
	assert.Equal(t, "https://www.wine.com/product", results[0].URL)
}
