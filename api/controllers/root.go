package controllers

import (
	"net/http"

	"github.com/angelmondragon/shopcart-backend/api/responses"
)

const rootBanner = "Backend running. Use /items, /cart, or /auth"

func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteText(w, http.StatusOK, rootBanner)
	}
}
