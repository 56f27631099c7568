package main

import (
	"encoding/csv"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fraudcheck-cli/internal/model"
)

var (
	batchFile        string
	batchConcurrency int
	batchLimit       int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score transactions from a CSV file",
	Long:  "Reads transactions from a CSV file with a header row (columns named like the check flags: ip, email, city, ...) and scores them concurrently. Results are written as CSV to stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("batch"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f, err := os.Open(batchFile)
		if err != nil {
			return eris.Wrap(err, "batch: open input")
		}
		defer f.Close() //nolint:errcheck

		inputs, err := readBatchInputs(f)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(inputs) > batchLimit {
			inputs = inputs[:batchLimit]
		}
		if len(inputs) == 0 {
			zap.L().Info("no rows to score")
			return nil
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		client := newMinfraudClient(cfg)
		zap.L().Info("scoring batch",
			zap.Int("rows", len(inputs)),
			zap.Int("concurrency", batchConcurrency),
		)

		type rowResult struct {
			result *model.CheckResult
			err    error
		}
		results := make([]rowResult, len(inputs))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)
		for i, in := range inputs {
			g.Go(func() error {
				result, err := model.RunCheck(gctx, client, in)
				results[i] = rowResult{result: result, err: err}
				if err != nil {
					// Per-row failures are reported in the output, not
					// allowed to cancel the rest of the batch.
					zap.L().Warn("row failed", zap.String("ip", in.IP), zap.Error(err))
					return nil
				}
				saveCheck(gctx, st, in.IP, *result)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		w := csv.NewWriter(os.Stdout)
		if err := w.Write([]string{"ip", "risk_score", "country_code", "distance", "maxmind_id", "error"}); err != nil {
			return eris.Wrap(err, "batch: write header")
		}
		for i, in := range inputs {
			row := results[i]
			if row.err != nil {
				if err := w.Write([]string{in.IP, "", "", "", "", row.err.Error()}); err != nil {
					return eris.Wrap(err, "batch: write row")
				}
				continue
			}
			r := row.result
			rec := []string{
				in.IP,
				strconv.FormatFloat(r.RiskScore, 'f', 2, 64),
				r.CountryCode,
				r.Distance,
				r.MaxmindID,
				"",
			}
			if err := w.Write(rec); err != nil {
				return eris.Wrap(err, "batch: write row")
			}
		}
		w.Flush()
		return eris.Wrap(w.Error(), "batch: flush output")
	},
}

// readBatchInputs parses a header-driven CSV into check inputs. Column names
// match the check command's flag names with underscores (ip, email,
// ship_city, txn_id, ...); unknown columns are rejected so typos surface
// instead of silently dropping data.
func readBatchInputs(r io.Reader) ([]model.CheckInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "batch: read header")
	}

	setters := make([]func(*model.CheckInput, string), len(header))
	for i, col := range header {
		setter, ok := columnSetters[strings.ToLower(strings.TrimSpace(col))]
		if !ok {
			return nil, eris.Errorf("batch: unknown column %q", col)
		}
		setters[i] = setter
	}

	var inputs []model.CheckInput
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "batch: read line %d", line)
		}
		var in model.CheckInput
		for i, v := range rec {
			setters[i](&in, strings.TrimSpace(v))
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// columnSetters maps CSV column names to CheckInput fields. Built at compile
// time; no reflection.
var columnSetters = map[string]func(*model.CheckInput, string){
	"ip":              func(in *model.CheckInput, v string) { in.IP = v },
	"city":            func(in *model.CheckInput, v string) { in.City = v },
	"state":           func(in *model.CheckInput, v string) { in.State = v },
	"postal":          func(in *model.CheckInput, v string) { in.Postal = v },
	"country":         func(in *model.CheckInput, v string) { in.Country = v },
	"ship_addr":       func(in *model.CheckInput, v string) { in.ShipAddr = v },
	"ship_city":       func(in *model.CheckInput, v string) { in.ShipCity = v },
	"ship_state":      func(in *model.CheckInput, v string) { in.ShipState = v },
	"ship_postal":     func(in *model.CheckInput, v string) { in.ShipPostal = v },
	"ship_country":    func(in *model.CheckInput, v string) { in.ShipCountry = v },
	"email":           func(in *model.CheckInput, v string) { in.Email = v },
	"phone":           func(in *model.CheckInput, v string) { in.Phone = v },
	"bin":             func(in *model.CheckInput, v string) { in.BIN = v },
	"session_id":      func(in *model.CheckInput, v string) { in.SessionID = v },
	"user_agent":      func(in *model.CheckInput, v string) { in.UserAgent = v },
	"accept_language": func(in *model.CheckInput, v string) { in.AcceptLanguage = v },
	"txn_id":          func(in *model.CheckInput, v string) { in.TxnID = v },
	"amount":          func(in *model.CheckInput, v string) { in.Amount = v },
	"currency":        func(in *model.CheckInput, v string) { in.Currency = v },
	"txn_type":        func(in *model.CheckInput, v string) { in.TxnType = v },
	"avs_result":      func(in *model.CheckInput, v string) { in.AVSResult = v },
	"cvv_result":      func(in *model.CheckInput, v string) { in.CVVResult = v },
	"requested_type":  func(in *model.CheckInput, v string) { in.RequestedType = v },
	"forwarded_ip":    func(in *model.CheckInput, v string) { in.ForwardedIP = v },
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "CSV file of transactions (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "number of concurrent submissions")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max rows to score (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
