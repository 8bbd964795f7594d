package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Run the ad revenue distribution for a period
	// (POST /distributions/ad-revenue)
	RunAdRevenueDistribution(w http.ResponseWriter, r *http.Request)
	// Liveness probe
	// (GET /healthz)
	Healthz(w http.ResponseWriter, r *http.Request)
	// Approve a gateway payment
	// (POST /payments/approve)
	ApprovePayment(w http.ResponseWriter, r *http.Request)
	// Cancel a gateway payment
	// (POST /payments/cancel)
	CancelPayment(w http.ResponseWriter, r *http.Request)
	// Complete a gateway payment
	// (POST /payments/complete)
	CompletePayment(w http.ResponseWriter, r *http.Request)
	// Create a transaction
	// (POST /transactions)
	CreateTransaction(w http.ResponseWriter, r *http.Request)
	// Get a transaction by ID
	// (GET /transactions/{transactionId})
	GetTransactionById(w http.ResponseWriter, r *http.Request, transactionId openapi_types.UUID)
	// List the ledger entries of a transaction
	// (GET /transactions/{transactionId}/ledger)
	ListLedgerEntries(w http.ResponseWriter, r *http.Request, transactionId openapi_types.UUID)
	// List a user's transactions
	// (GET /users/{userId}/transactions)
	ListTransactionsByUserId(w http.ResponseWriter, r *http.Request, userId string, params ListTransactionsByUserIdParams)
	// Get a user's wallet
	// (GET /wallets/{userId})
	GetWalletByUserId(w http.ResponseWriter, r *http.Request, userId string)
	// Receive a gateway payment callback
	// (POST /webhooks/payments)
	ReceivePaymentWebhook(w http.ResponseWriter, r *http.Request)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	handler := http.Handler(fn)
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// RunAdRevenueDistribution operation middleware
func (siw *ServerInterfaceWrapper) RunAdRevenueDistribution(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.RunAdRevenueDistribution)
}

// Healthz operation middleware
func (siw *ServerInterfaceWrapper) Healthz(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.Healthz)
}

// ApprovePayment operation middleware
func (siw *ServerInterfaceWrapper) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ApprovePayment)
}

// CancelPayment operation middleware
func (siw *ServerInterfaceWrapper) CancelPayment(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CancelPayment)
}

// CompletePayment operation middleware
func (siw *ServerInterfaceWrapper) CompletePayment(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CompletePayment)
}

// CreateTransaction operation middleware
func (siw *ServerInterfaceWrapper) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateTransaction)
}

// GetTransactionById operation middleware
func (siw *ServerInterfaceWrapper) GetTransactionById(w http.ResponseWriter, r *http.Request) {
	var transactionId openapi_types.UUID

	err := runtime.BindStyledParameterWithOptions("simple", "transactionId", chi.URLParam(r, "transactionId"), &transactionId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "transactionId", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetTransactionById(w, r, transactionId)
	})
}

// ListLedgerEntries operation middleware
func (siw *ServerInterfaceWrapper) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	var transactionId openapi_types.UUID

	err := runtime.BindStyledParameterWithOptions("simple", "transactionId", chi.URLParam(r, "transactionId"), &transactionId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "transactionId", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListLedgerEntries(w, r, transactionId)
	})
}

// ListTransactionsByUserId operation middleware
func (siw *ServerInterfaceWrapper) ListTransactionsByUserId(w http.ResponseWriter, r *http.Request) {
	var userId string

	err := runtime.BindStyledParameterWithOptions("simple", "userId", chi.URLParam(r, "userId"), &userId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "userId", Err: err})
		return
	}

	var params ListTransactionsByUserIdParams

	err = runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	err = runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &params.Status)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "status", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListTransactionsByUserId(w, r, userId, params)
	})
}

// GetWalletByUserId operation middleware
func (siw *ServerInterfaceWrapper) GetWalletByUserId(w http.ResponseWriter, r *http.Request) {
	var userId string

	err := runtime.BindStyledParameterWithOptions("simple", "userId", chi.URLParam(r, "userId"), &userId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "userId", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetWalletByUserId(w, r, userId)
	})
}

// ReceivePaymentWebhook operation middleware
func (siw *ServerInterfaceWrapper) ReceivePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ReceivePaymentWebhook)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// HandlerFromMux creates http.Handler with routing matching OpenAPI spec based on the provided mux.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{
		BaseRouter: r,
	})
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/distributions/ad-revenue", wrapper.RunAdRevenueDistribution)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/healthz", wrapper.Healthz)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/payments/approve", wrapper.ApprovePayment)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/payments/cancel", wrapper.CancelPayment)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/payments/complete", wrapper.CompletePayment)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/transactions", wrapper.CreateTransaction)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/transactions/{transactionId}", wrapper.GetTransactionById)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/transactions/{transactionId}/ledger", wrapper.ListLedgerEntries)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/users/{userId}/transactions", wrapper.ListTransactionsByUserId)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/wallets/{userId}", wrapper.GetWalletByUserId)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/webhooks/payments", wrapper.ReceivePaymentWebhook)
	})

	return r
}
