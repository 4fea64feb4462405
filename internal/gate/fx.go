package gate

import (
	"github.com/smallbiznis/grantgate/internal/config"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	"github.com/smallbiznis/grantgate/internal/gate/service"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("gate.service",
	fx.Provide(
		func(s usagedomain.Service) gatedomain.Ledger { return s },
		func(h *config.MonetizationHolder) gatedomain.ConfigSource { return h },
		service.NewResolver,
		service.NewGuard,
	),
)
