package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/medalline/enrich/internal/enrich"
	"github.com/medalline/enrich/internal/model"
)

var batchFlags struct {
	input string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich products from a JSONL file",
	Long:  "Reads one product per line (same shape as run --input) and enriches them concurrently, recording each run in the store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := readBatchInputs(batchFlags.input)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return eris.New("batch: no products in input")
		}

		orch, cleanup, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return eris.Wrap(err, "batch: open store")
		}
		defer st.Close()

		var succeeded, failed atomic.Int64

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.Batch.MaxConcurrentProducts)

		for _, input := range inputs {
			input := input
			g.Go(func() error {
				result, err := orch.Enrich(ctx, enrich.Request{
					ProductID:          input.ProductID,
					ProductType:        input.ProductType,
					Category:           input.Category,
					InitialData:        input.Data,
					InitialConfidences: input.Confidences,
				})
				if err != nil {
					failed.Add(1)
					zap.L().Error("batch: enrich failed",
						zap.String("product_id", input.ProductID),
						zap.Error(err),
					)
					return nil // one bad product does not stop the batch
				}
				succeeded.Add(1)
				if result != nil {
					if _, saveErr := st.SaveRun(ctx, input.ProductID, input.ProductType, result); saveErr != nil {
						zap.L().Warn("batch: save failed",
							zap.String("product_id", input.ProductID),
							zap.Error(saveErr),
						)
					}
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch: wait")
		}

		fmt.Printf("batch complete: %d succeeded, %d failed, %d total\n",
			succeeded.Load(), failed.Load(), len(inputs))
		return nil
	},
}

func readBatchInputs(path string) ([]productInput, error) {
	if path == "" {
		return nil, eris.New("batch: --input is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open input %s", path)
	}
	defer f.Close()

	var inputs []productInput
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var input productInput
		if err := json.Unmarshal(raw, &input); err != nil {
			return nil, eris.Wrapf(err, "batch: parse line %d", line)
		}
		if input.ProductType == "" {
			return nil, eris.Errorf("batch: line %d missing product_type", line)
		}
		if input.Data == nil {
			input.Data = model.Fields{}
		}
		inputs = append(inputs, input)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: read input")
	}
	return inputs, nil
}

func init() {
	batchCmd.Flags().StringVarP(&batchFlags.input, "input", "i", "", "JSONL file with one product per line (required)")
	_ = batchCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(batchCmd)
}
