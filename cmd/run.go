package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medalline/enrich/internal/enrich"
	"github.com/medalline/enrich/internal/model"
)

// productInput is the JSON shape accepted by run --input and each batch
// JSONL line.
type productInput struct {
	ProductID   string             `json:"product_id"`
	ProductType string             `json:"product_type"`
	Category    string             `json:"category,omitempty"`
	Data        model.Fields       `json:"data"`
	Confidences map[string]float64 `json:"confidences,omitempty"`
}

var runFlags struct {
	input   string
	save    bool
	pretty  bool
	id      string
	ptype   string
	catName string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich a single product",
	Long:  "Runs the enrichment flow for one product described by a JSON input file and prints the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readProductInput(runFlags.input)
		if err != nil {
			return err
		}
		if runFlags.id != "" {
			input.ProductID = runFlags.id
		}
		if runFlags.ptype != "" {
			input.ProductType = runFlags.ptype
		}
		if runFlags.catName != "" {
			input.Category = runFlags.catName
		}

		orch, cleanup, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := orch.Enrich(cmd.Context(), enrich.Request{
			ProductID:          input.ProductID,
			ProductType:        input.ProductType,
			Category:           input.Category,
			InitialData:        input.Data,
			InitialConfidences: input.Confidences,
		})
		if err != nil {
			return eris.Wrap(err, "run: enrich")
		}

		if runFlags.save {
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return eris.Wrap(err, "run: open store")
			}
			defer st.Close()
			if _, err := st.SaveRun(cmd.Context(), input.ProductID, input.ProductType, result); err != nil {
				zap.L().Warn("run: save failed", zap.Error(err))
			}
		}

		enc := json.NewEncoder(os.Stdout)
		if runFlags.pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(result)
	},
}

func readProductInput(path string) (*productInput, error) {
	if path == "" {
		return nil, eris.New("run: --input is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "run: read input %s", path)
	}
	var input productInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, eris.Wrap(err, "run: parse input")
	}
	if input.ProductType == "" {
		return nil, eris.New("run: product_type is required")
	}
	if input.Data == nil {
		input.Data = model.Fields{}
	}
	return &input, nil
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.input, "input", "i", "", "JSON file describing the product (required)")
	runCmd.Flags().BoolVar(&runFlags.save, "save", true, "record the run in the run-history store")
	runCmd.Flags().BoolVar(&runFlags.pretty, "pretty", false, "pretty-print the result")
	runCmd.Flags().StringVar(&runFlags.id, "id", "", "override the product id")
	runCmd.Flags().StringVar(&runFlags.ptype, "type", "", "override the product type")
	runCmd.Flags().StringVar(&runFlags.catName, "category", "", "override the category")
	_ = runCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(runCmd)
}
