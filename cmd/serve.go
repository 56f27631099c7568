package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fraudcheck-cli/internal/model"
	"github.com/sells-group/fraudcheck-cli/internal/store"
	"github.com/sells-group/fraudcheck-cli/pkg/minfraud"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server that scores transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		client := newMinfraudClient(cfg)
		mux := buildMux(client, st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildMux wires the scoring routes. Split out from the command so handler
// behavior is testable without binding a port.
func buildMux(client minfraud.Client, st store.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
	})

	mux.HandleFunc("POST /check", func(w http.ResponseWriter, r *http.Request) {
		var in model.CheckInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := model.RunCheck(r.Context(), client, in)
		if err != nil {
			var vErr *minfraud.ValidationError
			var sErr *minfraud.ServiceError
			switch {
			case errors.As(err, &vErr):
				writeJSONError(w, http.StatusBadRequest, vErr.Error())
			case errors.As(err, &sErr):
				zap.L().Warn("provider rejected check", zap.String("code", sErr.Code))
				writeJSONError(w, http.StatusBadGateway, sErr.Error())
			default:
				zap.L().Error("check failed", zap.Error(err))
				writeJSONError(w, http.StatusInternalServerError, "check failed")
			}
			return
		}

		zap.L().Info("transaction scored",
			zap.String("ip", in.IP),
			zap.Float64("risk_score", result.RiskScore),
		)
		saveCheck(r.Context(), st, in.IP, *result)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(result) //nolint:errcheck
	})

	return mux
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
