package main

import (
	"context"
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"renTrentoBack/internal/handlers"
)

const apiPrefix = "/renTrentoAPI"

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	publicMiddleware := standardMiddleware.Append(app.optionalToken)
	authMiddleware := standardMiddleware.Append(app.checkToken)
	adminMiddleware := authMiddleware.Append(requireAdmin)

	mux := pat.New()

	mux.Get(apiPrefix+"/health", standardMiddleware.ThenFunc(app.health))
	mux.Post(apiPrefix+"/authentication", standardMiddleware.ThenFunc(app.authHandler.Authenticate))

	// Users
	mux.Post(apiPrefix+"/users", publicMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Get(apiPrefix+"/users", authMiddleware.ThenFunc(app.userHandler.GetUsers))
	mux.Get(apiPrefix+"/users/me", authMiddleware.ThenFunc(app.userHandler.GetMe))
	mux.Get(apiPrefix+"/users/:id", authMiddleware.ThenFunc(app.userHandler.GetUserByID))
	mux.Patch(apiPrefix+"/users/:id", authMiddleware.ThenFunc(app.userHandler.UpdateUser))
	mux.Del(apiPrefix+"/users/:id", authMiddleware.ThenFunc(app.userHandler.DeleteUser))
	mux.Post(apiPrefix+"/users/:id/wallet/topup", adminMiddleware.ThenFunc(app.userHandler.TopUp))
	mux.Get(apiPrefix+"/users/:id/wallet/history", authMiddleware.ThenFunc(app.userHandler.WalletHistory))

	// Products
	mux.Get(apiPrefix+"/products", standardMiddleware.ThenFunc(app.productHandler.GetProducts))
	mux.Post(apiPrefix+"/products", authMiddleware.ThenFunc(app.productHandler.CreateProduct))
	mux.Get(apiPrefix+"/products/:id", standardMiddleware.ThenFunc(app.productHandler.GetProductByID))
	mux.Patch(apiPrefix+"/products/:id", authMiddleware.ThenFunc(app.productHandler.UpdateProduct))
	mux.Del(apiPrefix+"/products/:id", authMiddleware.ThenFunc(app.productHandler.DeleteProduct))
	mux.Post(apiPrefix+"/products/:id/image", authMiddleware.ThenFunc(app.productHandler.UploadImage))

	// Rentals
	mux.Get(apiPrefix+"/rentals", authMiddleware.ThenFunc(app.rentalHandler.GetRentals))
	mux.Post(apiPrefix+"/rentals", authMiddleware.ThenFunc(app.rentalHandler.CreateRental))
	mux.Get(apiPrefix+"/rentals/:id", authMiddleware.ThenFunc(app.rentalHandler.GetRentalByID))
	mux.Patch(apiPrefix+"/rentals/:id", authMiddleware.ThenFunc(app.rentalHandler.UpdateRental))
	mux.Del(apiPrefix+"/rentals/:id", authMiddleware.ThenFunc(app.rentalHandler.DeleteRental))
	mux.Post(apiPrefix+"/rentals/:id/cancel", authMiddleware.ThenFunc(app.rentalHandler.CancelRental))
	mux.Post(apiPrefix+"/rentals/:id/finish", authMiddleware.ThenFunc(app.rentalHandler.FinishRental))

	// Categories
	mux.Get(apiPrefix+"/categories", standardMiddleware.ThenFunc(app.categoryHandler.GetAllCategories))
	mux.Post(apiPrefix+"/categories", adminMiddleware.ThenFunc(app.categoryHandler.CreateCategory))
	mux.Del(apiPrefix+"/categories/:id", adminMiddleware.ThenFunc(app.categoryHandler.DeleteCategory))

	// Rental events
	mux.Get(apiPrefix+"/ws", alice.New(app.recoverPanic, app.logRequest, app.checkToken).ThenFunc(app.serveWS))

	mux.NotFound = standardMiddleware.ThenFunc(notFound)

	return mux
}

func (app *application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), app.cfg.Server.RequestTimeout)
	defer cancel()
	if err := app.store.Ping(ctx); err != nil {
		app.logger.WithError(err).Warn("health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (app *application) serveWS(w http.ResponseWriter, r *http.Request) {
	p, _ := handlers.PrincipalFrom(r.Context())
	app.hub.ServeWS(w, r, p.ID)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":"Not found"}`))
}
