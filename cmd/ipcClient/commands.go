package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mypos-ipc/ipc-go/internal/aws"
	"github.com/mypos-ipc/ipc-go/pkg/clients/ipcClient"
	"github.com/mypos-ipc/ipc-go/pkg/config"
	"github.com/mypos-ipc/ipc-go/pkg/logger"
	"github.com/mypos-ipc/ipc-go/pkg/notify"
	"github.com/mypos-ipc/ipc-go/pkg/transportSigner"
	"github.com/mypos-ipc/ipc-go/pkg/transportSigner/awsKmsTransportSigner"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

func configFromFlags(c *cli.Context) (*config.IPCConfig, *config.PortalURLs) {
	cfg := config.DefaultIPCConfig()
	cfg.Production = c.Bool("production")
	cfg.IPCURL = c.String("ipc-url")
	cfg.PrivateKey = c.String("private-key")
	cfg.APIPublicKey = c.String("api-public-key")
	cfg.EncryptPublicKey = c.String("encrypt-public-key")
	cfg.KeyIndex = c.Int("key-index")
	cfg.SID = c.String("sid")
	cfg.WalletNumber = c.String("wallet")
	cfg.Lang = c.String("lang")
	cfg.DeveloperKey = c.String("developer-key")
	cfg.Timeout = c.Duration("timeout")

	if c.String("signer") == signerAWSKMS {
		cfg.RemoteSigner = &config.RemoteSignerConfig{
			KMSKeyID: c.String("kms-key-id"),
			Region:   c.String("kms-region"),
		}
	}

	urls := &config.PortalURLs{
		OK:     c.String("url-ok"),
		Cancel: c.String("url-cancel"),
		Notify: c.String("url-notify"),
	}
	return cfg, urls
}

func createClient(c *cli.Context) (*ipcClient.Client, *zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("debug")})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	switch s := c.String("signer"); s {
	case signerLocal, signerAWSKMS:
	default:
		return nil, nil, fmt.Errorf("unknown signer %q, expected %s or %s", s, signerLocal, signerAWSKMS)
	}

	cfg, urls := configFromFlags(c)
	gc, err := config.NewGatewayConfig(cfg, urls)
	if err != nil {
		return nil, nil, err
	}

	var signer transportSigner.ITransportSigner
	if rs := gc.RemoteSigner(); rs != nil {
		awsCfg, err := aws.LoadAWSConfig(c.Context, rs.Region)
		if err != nil {
			return nil, nil, err
		}
		identity, err := aws.GetCallerIdentity(c.Context, awsCfg)
		if err != nil {
			return nil, nil, err
		}
		l.Sugar().Infow("Using AWS KMS signer",
			"account", derefString(identity.Account),
			"arn", derefString(identity.Arn),
			"key_id", rs.KMSKeyID,
		)
		signer = awsKmsTransportSigner.NewAWSKMSTransportSigner(awsCfg, rs.KMSKeyID, gc.KeyIndex(), l)
	}

	client, err := ipcClient.NewClient(&ipcClient.ClientConfig{
		GatewayConfig: gc,
		Logger:        l,
		Signer:        signer,
	})
	if err != nil {
		return nil, nil, err
	}
	l.Sugar().Debugw("Created gateway client", "mode", gc.Mode(), "endpoint", gc.Endpoint())
	return client, l, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orderFromFlags(c *cli.Context) *types.Order {
	id := c.String("order-id")
	if id == "" {
		id = uuid.NewString()
	}
	return &types.Order{
		ID:       id,
		Amount:   c.Float64("amount"),
		Currency: c.String("currency"),
	}
}

func purchaseFormCommand(c *cli.Context) error {
	client, _, err := createClient(c)
	if err != nil {
		return err
	}

	order := orderFromFlags(c)
	cart := &types.Cart{
		Currency: order.Currency,
		Items:    []types.CartItem{{Name: c.String("item"), Quantity: 1, Price: order.Amount}},
	}
	var customer *types.Customer
	if email := c.String("email"); email != "" {
		customer = &types.Customer{Email: email}
	}

	form, err := client.Purchase(c.Context, customer, cart, order)
	if err != nil {
		return fmt.Errorf("failed to build purchase form: %w", err)
	}
	return printJSON(form)
}

func refundCommand(c *cli.Context) error {
	client, _, err := createClient(c)
	if err != nil {
		return err
	}
	order := orderFromFlags(c)
	if err := client.Refund(c.Context, order, c.String("trnref")); err != nil {
		return fmt.Errorf("refund failed: %w", err)
	}
	fmt.Printf("Refunded %s for order %s\n", c.String("trnref"), order.ID)
	return nil
}

func reversalCommand(c *cli.Context) error {
	client, _, err := createClient(c)
	if err != nil {
		return err
	}
	if err := client.Reversal(c.Context, c.String("trnref")); err != nil {
		return fmt.Errorf("reversal failed: %w", err)
	}
	fmt.Printf("Reversed %s\n", c.String("trnref"))
	return nil
}

func paymentStatusCommand(c *cli.Context) error {
	client, _, err := createClient(c)
	if err != nil {
		return err
	}
	st, err := client.GetPaymentStatus(c.Context, c.String("order-id"))
	if err != nil {
		return fmt.Errorf("failed to get payment status: %w", err)
	}
	return printJSON(st)
}

func txnStatusCommand(c *cli.Context) error {
	client, _, err := createClient(c)
	if err != nil {
		return err
	}
	status, err := client.GetTxnStatus(c.Context, c.String("order-id"))
	if err != nil {
		return fmt.Errorf("failed to get transaction status: %w", err)
	}
	fmt.Println(status)
	return nil
}

func txnLogCommand(c *cli.Context) error {
	client, _, err := createClient(c)
	if err != nil {
		return err
	}
	entries, err := client.GetTxnLog(c.Context, c.String("order-id"))
	if err != nil {
		return fmt.Errorf("failed to get transaction log: %w", err)
	}
	return printJSON(entries)
}

func serveNotifyCommand(c *cli.Context) error {
	client, l, err := createClient(c)
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodPost, c.String("path"), notify.NewHandler(client.Verifier(), notify.LoggingCallback(l), l))

	srv := &http.Server{
		Addr:              c.String("listen"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		l.Sugar().Infow("Serving notify endpoint", "addr", srv.Addr, "path", c.String("path"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Sugar().Infow("Shutting down notify endpoint")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
