package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mindburn-labs/gtk-core/pkg/hostauth"
	"github.com/mindburn-labs/gtk-core/pkg/numeric"
	"github.com/mindburn-labs/gtk-core/pkg/params"
	"github.com/mindburn-labs/gtk-core/pkg/verifier"
)

// runServeCmd runs the JWT-gated HTTP surface a host can put in front of
// the pure kernel: POST /verify recomputes and checks a single step. The
// kernel call itself (verifier.VerifyStep) never touches the network or a
// clock; everything in this file is the host boundary around it.
func runServeCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("serve", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		addr       string
		configPath string
		secret     string
	)
	cmd.StringVar(&addr, "addr", ":8090", "address to listen on")
	cmd.StringVar(&configPath, "config", "", "path to a Params YAML config (default: built-in GMI defaults)")
	cmd.StringVar(&secret, "jwt-secret", os.Getenv("GTKCTL_JWT_SECRET"), "HMAC secret for bearer tokens (env GTKCTL_JWT_SECRET)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	p, err := loadParams(configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var validator *hostauth.Validator
	if secret != "" {
		validator, err = hostauth.NewValidator([]byte(secret))
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}

	logger := slog.Default()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/verify", hostauth.Middleware(validator, verifyHandler(p, logger)))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		fmt.Fprintf(stdout, "gtkctl serve: listening on %s\n", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("gtkctl serve: listener failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	_ = server.Shutdown(context.Background())
	return 0
}

// verifyRequest is the body POST /verify expects: before/after grid states
// and the claimed receipt linking them.
type verifyRequest struct {
	Before        gridStateFile `json:"before"`
	After         gridStateFile `json:"after"`
	Receipt       receiptView   `json:"receipt"`
	PrevReceiptID string        `json:"prev_receipt_id"`
}

func verifyHandler(p params.Params, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("malformed request: %v", err), http.StatusBadRequest)
			return
		}

		before := gridStateFromFile(req.Before)
		after := gridStateFromFile(req.After)
		receipt, err := fromReceiptView(req.Receipt)
		if err != nil {
			http.Error(w, fmt.Sprintf("malformed receipt: %v", err), http.StatusBadRequest)
			return
		}

		prevID := req.PrevReceiptID
		if prevID == "" {
			prevID = p.GenesisReceiptID
		}

		verdict, err := verifier.VerifyStep(before, after, receipt,
			numeric.FromRaw(receipt.BudgetBefore), numeric.FromRaw(receipt.BudgetAfter),
			prevID, p)
		if err != nil {
			logger.Error("gtkctl serve: verify failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"accepted": verdict.Accepted,
			"code":     string(verdict.Code),
			"detail":   verdict.Detail,
		})
	})
}
