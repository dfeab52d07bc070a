package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medalline/enrich/internal/model"
)

func TestMerge_ConflictResolution(t *testing.T) {
	// One field of each rule: empty-accept, higher-confidence replace,
	// lower-confidence discard, list union.
	current := model.Fields{
		"name":        model.String("Quinta do Exemplo Vintage Port"),
		"description": model.String(""),
		"region":      model.String("Douro"),
		"awards":      model.List("gold 2023"),
	}
	curConf := map[string]float64{"name": 0.95, "region": 0.90, "awards": 0.80}

	incoming := model.Fields{
		"name":        model.String("Quinta do Exemplo Vintage Porto"),
		"description": model.String("A rich vintage port."),
		"region":      model.String("Alentejo"),
		"awards":      model.List("gold 2023", "silver 2024"),
	}
	newConf := map[string]float64{"name": 0.70, "description": 0.85, "region": 0.60, "awards": 0.75}

	merged, conf, enriched := Merge(current, incoming, curConf, newConf)

	assert.Equal(t, "Quinta do Exemplo Vintage Port", merged.GetString("name"))
	assert.Equal(t, "A rich vintage port.", merged.GetString("description"))
	assert.Equal(t, "Douro", merged.GetString("region"))
	assert.Equal(t, []string{"gold 2023", "silver 2024"}, merged["awards"].List)

	assert.Equal(t, 0.95, conf["name"])
	assert.Equal(t, 0.85, conf["description"])
	assert.Equal(t, 0.90, conf["region"])

	assert.ElementsMatch(t, []string{"description", "awards"}, enriched)
}

func TestMerge_HigherConfidenceReplaces(t *testing.T) {
	current := model.Fields{"abv": model.Number(40)}
	incoming := model.Fields{"abv": model.Number(43.2)}

	merged, conf, enriched := Merge(current, incoming,
		map[string]float64{"abv": 0.60},
		map[string]float64{"abv": 0.90},
	)

	assert.Equal(t, 43.2, merged["abv"].Num)
	assert.Equal(t, 0.90, conf["abv"])
	assert.Equal(t, []string{"abv"}, enriched)
}

func TestMerge_EqualConfidenceKeepsCurrent(t *testing.T) {
	current := model.Fields{"country": model.String("Scotland")}
	incoming := model.Fields{"country": model.String("Ireland")}

	merged, conf, enriched := Merge(current, incoming,
		map[string]float64{"country": 0.80},
		map[string]float64{"country": 0.80},
	)

	assert.Equal(t, "Scotland", merged.GetString("country"))
	assert.Equal(t, 0.80, conf["country"])
	assert.Empty(t, enriched)
}

func TestMerge_Idempotent(t *testing.T) {
	current := model.Fields{"name": model.String("Old Tom Gin")}
	incoming := model.Fields{
		"name":   model.String("Old Tom London Gin"),
		"awards": model.List("bronze 2022"),
	}
	newConf := map[string]float64{"name": 0.95, "awards": 0.70}

	once, onceConf, _ := Merge(current, incoming, map[string]float64{"name": 0.50}, newConf)
	twice, twiceConf, enriched := Merge(once, incoming, onceConf, newConf)

	assert.Empty(t, enriched, "second application must be a no-op")
	for name, v := range once {
		assert.True(t, v.Equal(twice[name]), "field %s", name)
	}
	assert.Equal(t, onceConf, twiceConf)
}

func TestMerge_ConfidenceNeverDecreases(t *testing.T) {
	current := model.Fields{
		"name":   model.String("Example"),
		"region": model.String("Rioja"),
	}
	curConf := map[string]float64{"name": 0.95, "region": 0.40}

	incoming := model.Fields{
		"name":   model.String("Something Else"),
		"region": model.String("Navarra"),
		"abv":    model.Number(14.5),
	}

	_, conf, _ := Merge(current, incoming, curConf,
		map[string]float64{"name": 0.10, "region": 0.90, "abv": 0.65})

	for name, before := range curConf {
		assert.GreaterOrEqual(t, conf[name], before, "field %s", name)
	}
}

func TestMerge_EmptyIncomingValuesIgnored(t *testing.T) {
	current := model.Fields{"name": model.String("Keeper")}
	incoming := model.Fields{
		"name":        model.String("   "),
		"description": model.String(""),
		"awards":      model.List(),
	}

	merged, _, enriched := Merge(current, incoming, nil,
		map[string]float64{"name": 0.99, "description": 0.99, "awards": 0.99})

	assert.Equal(t, "Keeper", merged.GetString("name"))
	assert.NotContains(t, merged, "description")
	assert.NotContains(t, merged, "awards")
	assert.Empty(t, enriched)
}

func TestMerge_NestedRecords(t *testing.T) {
	current := model.Fields{
		"tasting_notes": model.Record(model.Fields{
			"nose":   model.String("honey"),
			"finish": model.List("long"),
		}),
	}
	incoming := model.Fields{
		"tasting_notes": model.Record(model.Fields{
			"nose":   model.String("smoke"), // non-empty current, kept
			"palate": model.String("vanilla and oak"),
			"finish": model.List("long", "warming"),
		}),
	}

	merged, _, enriched := Merge(current, incoming,
		map[string]float64{"tasting_notes": 0.80},
		map[string]float64{"tasting_notes": 0.60},
	)

	notes := merged["tasting_notes"].Record
	require.NotNil(t, notes)
	assert.Equal(t, "honey", notes.GetString("nose"))
	assert.Equal(t, "vanilla and oak", notes.GetString("palate"))
	assert.Equal(t, []string{"long", "warming"}, notes["finish"].List)

	assert.ElementsMatch(t, []string{"tasting_notes.palate", "tasting_notes.finish"}, enriched)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	current := model.Fields{"awards": model.List("gold")}
	incoming := model.Fields{"awards": model.List("silver")}

	Merge(current, incoming, nil, map[string]float64{"awards": 0.50})

	assert.Equal(t, []string{"gold"}, current["awards"].List)
	assert.Equal(t, []string{"silver"}, incoming["awards"].List)
}
