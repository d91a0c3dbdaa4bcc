package providers

import (
	"github.com/admitworks/matricula/internal/config"
	"github.com/admitworks/matricula/internal/providers/email"
	"github.com/admitworks/matricula/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	fx.Provide(
		func() pdf.Generator { return pdf.NewProvider() },
		func(cfg config.Config) email.Sender { return email.NewSMTP(cfg.SMTP) },
	),
)
