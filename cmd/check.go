package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fraudcheck-cli/internal/model"
	"github.com/sells-group/fraudcheck-cli/internal/store"
)

var checkInput model.CheckInput

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Score a single transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("check"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		client := newMinfraudClient(cfg)
		result, err := model.RunCheck(ctx, client, checkInput)
		if err != nil {
			return err
		}

		zap.L().Info("transaction scored",
			zap.String("ip", checkInput.IP),
			zap.Float64("risk_score", result.RiskScore),
			zap.String("maxmind_id", result.MaxmindID),
		)
		saveCheck(ctx, st, checkInput.IP, *result)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// saveCheck records a completed check when persistence is enabled. Storage
// failures are logged, not fatal: the score was already obtained and paid for.
func saveCheck(ctx context.Context, st store.Store, ip string, result model.CheckResult) {
	if st == nil {
		return
	}
	if _, err := st.SaveCheck(ctx, ip, result); err != nil {
		zap.L().Warn("failed to record check", zap.String("ip", ip), zap.Error(err))
	}
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkInput.IP, "ip", "", "customer IP address (required)")
	f.StringVar(&checkInput.City, "city", "", "billing city")
	f.StringVar(&checkInput.State, "state", "", "billing state/region")
	f.StringVar(&checkInput.Postal, "postal", "", "billing postal code")
	f.StringVar(&checkInput.Country, "country", "", "billing country")
	f.StringVar(&checkInput.ShipAddr, "ship-addr", "", "shipping street address")
	f.StringVar(&checkInput.ShipCity, "ship-city", "", "shipping city")
	f.StringVar(&checkInput.ShipState, "ship-state", "", "shipping state/region")
	f.StringVar(&checkInput.ShipPostal, "ship-postal", "", "shipping postal code")
	f.StringVar(&checkInput.ShipCountry, "ship-country", "", "shipping country")
	f.StringVar(&checkInput.Email, "email", "", "customer email (only its domain and MD5 are transmitted)")
	f.StringVar(&checkInput.Phone, "phone", "", "customer phone")
	f.StringVar(&checkInput.BIN, "bin", "", "card issuer BIN")
	f.StringVar(&checkInput.SessionID, "session-id", "", "session identifier")
	f.StringVar(&checkInput.UserAgent, "user-agent", "", "browser user agent")
	f.StringVar(&checkInput.AcceptLanguage, "accept-language", "", "browser Accept-Language header")
	f.StringVar(&checkInput.TxnID, "txn-id", "", "transaction identifier")
	f.StringVar(&checkInput.Amount, "amount", "", "order amount")
	f.StringVar(&checkInput.Currency, "currency", "", "order currency code")
	f.StringVar(&checkInput.TxnType, "txn-type", "", "transaction type")
	f.StringVar(&checkInput.AVSResult, "avs-result", "", "AVS result code from the processor")
	f.StringVar(&checkInput.CVVResult, "cvv-result", "", "CVV result code from the processor")
	f.StringVar(&checkInput.RequestedType, "requested-type", "", "service level override (standard/premium)")
	f.StringVar(&checkInput.ForwardedIP, "forwarded-ip", "", "end-client IP behind a proxy chain")
	_ = checkCmd.MarkFlagRequired("ip")
	rootCmd.AddCommand(checkCmd)
}
