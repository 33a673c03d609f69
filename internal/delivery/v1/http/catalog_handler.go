package http

import (
	"net/http"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/internal/repository/converter"
	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

type CatalogHandler struct {
	catalog usecase.CatalogReader
	logger  logger.Logger
}

func NewCatalogHandler(catalog usecase.CatalogReader, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// getCatalog отдаёт каталог из памяти; список операторов не раскрывается.
func (c *CatalogHandler) getCatalog(w http.ResponseWriter, r *http.Request) {
	snapshot, err := c.catalog.Snapshot()
	if err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, ToCatalogResponse(snapshot))
}

func (c *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	p, err := c.catalog.Product(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, converter.ToProductModel(p))
}

// getPrice считает цену товара для количества и режима: ?quantity=2,5&mode=pickup.
func (c *CatalogHandler) getPrice(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	qty, err := domain.ParseQuantity(r.URL.Query().Get("quantity"))
	if err == nil {
		err = domain.ValidateQuantity(qty)
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	mode := domain.ModeDelivery
	if raw := r.URL.Query().Get("mode"); raw != "" {
		if mode, err = domain.ParseFulfillmentMode(raw); err != nil {
			WriteError(w, err)
			return
		}
	}

	p, err := c.catalog.Product(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, PriceResponse{
		ProductID: p.ID,
		Quantity:  qty,
		Mode:      string(mode),
		UnitPrice: domain.UnitPrice(p, qty, mode),
		Total:     domain.ResolvePrice(p, qty, mode),
	})
}
