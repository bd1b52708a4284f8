package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mypos-ipc/ipc-go/pkg/config"
)

const (
	signerLocal  = "local"
	signerAWSKMS = "aws-kms"
)

func main() {
	defaults := config.DefaultIPCConfig()

	app := &cli.App{
		Name:  "ipc-client",
		Usage: "Command line client for the myPOS IPC payment gateway",
		Description: `Builds, signs and sends IPC gateway requests.

Redirect operations print the form the browser must post. Direct operations
verify the signed gateway response before printing any of it.`,
		Version: "1.4.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "production",
				Usage:   "Use the production gateway instead of the test environment",
				EnvVars: []string{config.EnvIPCProduction},
			},
			&cli.StringFlag{
				Name:    "ipc-url",
				Usage:   "Override the gateway endpoint",
				EnvVars: []string{config.EnvIPCURL},
			},
			&cli.StringFlag{
				Name:    "private-key",
				Usage:   "Merchant private key (PEM, JWK or file path)",
				EnvVars: []string{config.EnvIPCPrivateKey},
			},
			&cli.StringFlag{
				Name:    "api-public-key",
				Usage:   "Gateway public key (PEM, JWK or file path)",
				EnvVars: []string{config.EnvIPCAPIPublicKey},
			},
			&cli.StringFlag{
				Name:    "encrypt-public-key",
				Usage:   "Card data encryption public key (PEM, JWK or file path)",
				EnvVars: []string{config.EnvIPCEncryptPublicKey},
			},
			&cli.IntFlag{
				Name:    "key-index",
				Usage:   "Key index registered with the gateway",
				Value:   defaults.KeyIndex,
				EnvVars: []string{config.EnvIPCKeyIndex},
			},
			&cli.StringFlag{
				Name:    "sid",
				Usage:   "Store ID",
				Value:   defaults.SID,
				EnvVars: []string{config.EnvIPCSID},
			},
			&cli.StringFlag{
				Name:    "wallet",
				Usage:   "Merchant wallet number",
				Value:   defaults.WalletNumber,
				EnvVars: []string{config.EnvIPCWallet},
			},
			&cli.StringFlag{
				Name:    "lang",
				Usage:   "Language of gateway messages",
				Value:   defaults.Lang,
				EnvVars: []string{config.EnvIPCLang},
			},
			&cli.StringFlag{
				Name:    "developer-key",
				Usage:   "Developer key",
				EnvVars: []string{config.EnvIPCDeveloperKey},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout of a direct gateway request",
				Value:   defaults.Timeout,
				EnvVars: []string{config.EnvIPCTimeout},
			},
			&cli.StringFlag{
				Name:  "signer",
				Usage: "Signer to use: local or aws-kms",
				Value: signerLocal,
			},
			&cli.StringFlag{
				Name:    "kms-key-id",
				Usage:   "AWS KMS key id or alias for the aws-kms signer",
				EnvVars: []string{config.EnvIPCKMSKeyID},
			},
			&cli.StringFlag{
				Name:    "kms-region",
				Usage:   "AWS region of the KMS key",
				EnvVars: []string{config.EnvIPCKMSRegion},
			},
			&cli.StringFlag{
				Name:    "url-ok",
				Usage:   "Page the customer returns to after payment",
				EnvVars: []string{config.EnvIPCURLOk},
			},
			&cli.StringFlag{
				Name:    "url-cancel",
				Usage:   "Page the customer returns to after cancelling",
				EnvVars: []string{config.EnvIPCURLCancel},
			},
			&cli.StringFlag{
				Name:    "url-notify",
				Usage:   "URL the gateway posts payment results to",
				EnvVars: []string{config.EnvIPCURLNotify},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "purchase-form",
				Usage: "Print the signed payment page form for a one item order",
				Flags: append(orderFlags(),
					&cli.StringFlag{
						Name:  "item",
						Usage: "Cart item description",
						Value: "Order",
					},
					&cli.StringFlag{
						Name:  "email",
						Usage: "Customer email",
					},
				),
				Action: purchaseFormCommand,
			},
			{
				Name:  "refund",
				Usage: "Refund a transaction",
				Flags: append(orderFlags(),
					&cli.StringFlag{
						Name:     "trnref",
						Usage:    "Gateway transaction reference",
						Required: true,
					},
				),
				Action: refundCommand,
			},
			{
				Name:  "reversal",
				Usage: "Reverse a transaction",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "trnref",
						Usage:    "Gateway transaction reference",
						Required: true,
					},
				},
				Action: reversalCommand,
			},
			{
				Name:   "payment-status",
				Usage:  "Get the payment status of an order",
				Flags:  []cli.Flag{orderIDFlag(true)},
				Action: paymentStatusCommand,
			},
			{
				Name:   "txn-status",
				Usage:  "Get the transaction status of an order",
				Flags:  []cli.Flag{orderIDFlag(true)},
				Action: txnStatusCommand,
			},
			{
				Name:   "txn-log",
				Usage:  "Get the transaction log of an order",
				Flags:  []cli.Flag{orderIDFlag(true)},
				Action: txnLogCommand,
			},
			{
				Name:  "serve-notify",
				Usage: "Serve a notify URL that verifies and logs gateway posts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Listen address",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "Notify path",
						Value: "/notify",
					},
				},
				Action: serveNotifyCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func orderIDFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "order-id",
		Usage:    "Merchant order ID (generated when omitted)",
		Required: required,
	}
}

func orderFlags() []cli.Flag {
	return []cli.Flag{
		orderIDFlag(false),
		&cli.Float64Flag{
			Name:     "amount",
			Usage:    "Order amount",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "currency",
			Usage: "ISO 4217 currency code",
			Value: "EUR",
		},
	}
}
