package controllers

import (
	"net/http"

	"github.com/angelmondragon/shopcart-backend/api/responses"
	"github.com/angelmondragon/shopcart-backend/api/validators"
	"github.com/angelmondragon/shopcart-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/shopcart-backend/pkg/errors"
	"github.com/angelmondragon/shopcart-backend/pkg/logger"
)

const maxQueryLen = 200

// ItemsList returns catalog items filtered by category, price range and text.
func ItemsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params := catalog.ListParams{
			Category: validators.QueryString(r, "category", maxQueryLen),
			Query:    validators.QueryString(r, "q", maxQueryLen),
			MinPrice: validators.QueryString(r, "minPrice", maxQueryLen),
			MaxPrice: validators.QueryString(r, "maxPrice", maxQueryLen),
		}

		items, err := svc.ListItems(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, items)
	}
}
