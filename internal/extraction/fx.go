package extraction

import (
	"github.com/courierpay/courierpay/internal/extraction/pdftext"
	"go.uber.org/fx"
)

var Module = fx.Module("extraction",
	pdftext.Module,
	fx.Provide(NewRunsheetParser),
	fx.Provide(NewInvoiceParser),
)
