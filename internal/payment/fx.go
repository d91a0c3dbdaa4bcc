package payment

import (
	"github.com/admitworks/matricula/internal/config"
	"github.com/admitworks/matricula/internal/payment/adapters"
	"github.com/admitworks/matricula/internal/payment/adapters/flutterwave"
	"github.com/admitworks/matricula/internal/payment/adapters/paystack"
	"github.com/admitworks/matricula/internal/payment/adapters/remita"
	"github.com/admitworks/matricula/internal/payment/receipt"
	"github.com/admitworks/matricula/internal/payment/repository"
	paymentservice "github.com/admitworks/matricula/internal/payment/service"
	"github.com/admitworks/matricula/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) *adapters.Registry {
		p := cfg.Providers
		return adapters.NewRegistry(
			adapters.Entry{
				Adapter: paystack.New(p.Paystack.SecretKey, p.Paystack.WebhookSecret, p.Paystack.BaseURL),
				Enabled: p.Paystack.Enabled,
				Primary: p.Paystack.Primary,
			},
			adapters.Entry{
				Adapter: flutterwave.New(p.Flutterwave.SecretKey, p.Flutterwave.WebhookSecret, p.Flutterwave.BaseURL),
				Enabled: p.Flutterwave.Enabled,
				Primary: p.Flutterwave.Primary,
			},
			adapters.Entry{
				Adapter: remita.New(p.Remita.SecretKey, p.Remita.WebhookSecret, p.Remita.BaseURL),
				Enabled: p.Remita.Enabled,
				Primary: p.Remita.Primary,
			},
		)
	}),
	fx.Provide(receipt.New),
	fx.Provide(paymentservice.New),
	fx.Provide(webhook.New),
)
