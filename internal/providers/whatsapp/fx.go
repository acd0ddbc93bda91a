package whatsapp

import (
	"github.com/shulebooks/shulebooks/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Sender {
	if cfg.WhatsApp.Token == "" || cfg.WhatsApp.PhoneNumberID == "" {
		return NewNoop(log)
	}
	return NewCloudAPI(cfg.WhatsApp.BaseURL, cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID, log)
}

var Module = fx.Module("providers.whatsapp",
	fx.Provide(NewFromConfig),
)
