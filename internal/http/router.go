package http

import (
	"net/http"

	"vet-backend/internal/handlers"
	"vet-backend/internal/middleware"
	"vet-backend/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	totpHandler *handlers.TOTPHandler,
	ownerHandler *handlers.OwnerHandler,
	patientHandler *handlers.PatientHandler,
	appointmentHandler *handlers.AppointmentHandler,
	clinicalRecordHandler *handlers.ClinicalRecordHandler,
	productHandler *handlers.ProductHandler,
	inventoryHandler *handlers.InventoryHandler,
	procedureHandler *handlers.ProcedureHandler,
	invoiceHandler *handlers.InvoiceHandler,
	reportHandler *handlers.ReportHandler,
	systemSettingHandler *handlers.SystemSettingHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	staff := func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireRole(models.RoleAdmin, models.RoleVet, models.RoleAssistant)(h).ServeHTTP
	}
	clinical := func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireRole(models.RoleAdmin, models.RoleVet)(h).ServeHTTP
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireAdmin(h).ServeHTTP
	}
	billing := func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireBillingAccess(h).ServeHTTP
	}

	// Public API routes - Authentication
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/auth/verify-totp", authHandler.VerifyLoginTOTP).Methods("POST")
	r.HandleFunc("/auth/signup", admin(authHandler.Signup)).Methods("POST")

	// Public store catalog
	r.HandleFunc("/api/store/catalog", productHandler.StoreCatalog).Methods("GET")

	// Users
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.Authenticate)
	usersAPI.HandleFunc("/me", userHandler.Me).Methods("GET")
	usersAPI.HandleFunc("/me/password", userHandler.ChangePassword).Methods("PUT")
	usersAPI.HandleFunc("/vets", userHandler.ListVets).Methods("GET")
	usersAPI.HandleFunc("", admin(userHandler.ListUsers)).Methods("GET")
	usersAPI.HandleFunc("/{id}", admin(userHandler.GetUser)).Methods("GET")
	usersAPI.HandleFunc("/{id}", admin(userHandler.UpdateUser)).Methods("PUT")
	usersAPI.HandleFunc("/{id}/active", admin(userHandler.SetActive)).Methods("PATCH")

	// 2FA enrollment
	totpAPI := r.PathPrefix("/api/totp").Subrouter()
	totpAPI.Use(authMiddleware.Authenticate)
	totpAPI.HandleFunc("/setup", totpHandler.Setup).Methods("POST")
	totpAPI.HandleFunc("/verify", totpHandler.VerifyAndEnable).Methods("POST")
	totpAPI.HandleFunc("/disable", totpHandler.Disable).Methods("POST")

	// Owners
	ownersAPI := r.PathPrefix("/api/owners").Subrouter()
	ownersAPI.Use(authMiddleware.Authenticate)
	ownersAPI.HandleFunc("", ownerHandler.ListOwners).Methods("GET")
	ownersAPI.HandleFunc("", staff(ownerHandler.CreateOwner)).Methods("POST")
	ownersAPI.HandleFunc("/{id}", ownerHandler.GetOwner).Methods("GET")
	ownersAPI.HandleFunc("/{id}", staff(ownerHandler.UpdateOwner)).Methods("PUT")
	ownersAPI.HandleFunc("/{id}", admin(ownerHandler.DeleteOwner)).Methods("DELETE")
	ownersAPI.HandleFunc("/{owner_id}/patients", patientHandler.ListOwnerPatients).Methods("GET")
	ownersAPI.HandleFunc("/{owner_id}/invoices", billing(invoiceHandler.ListOwnerInvoices)).Methods("GET")

	// Patients
	patientsAPI := r.PathPrefix("/api/patients").Subrouter()
	patientsAPI.Use(authMiddleware.Authenticate)
	patientsAPI.HandleFunc("", patientHandler.ListPatients).Methods("GET")
	patientsAPI.HandleFunc("", staff(patientHandler.CreatePatient)).Methods("POST")
	patientsAPI.HandleFunc("/{id}", patientHandler.GetPatient).Methods("GET")
	patientsAPI.HandleFunc("/{id}", staff(patientHandler.UpdatePatient)).Methods("PUT")
	patientsAPI.HandleFunc("/{id}/deceased", staff(patientHandler.SetDeceased)).Methods("PATCH")
	patientsAPI.HandleFunc("/{patient_id}/appointments", appointmentHandler.ListPatientAppointments).Methods("GET")
	patientsAPI.HandleFunc("/{patient_id}/records", clinical(clinicalRecordHandler.ListPatientRecords)).Methods("GET")

	// Appointments
	appointmentsAPI := r.PathPrefix("/api/appointments").Subrouter()
	appointmentsAPI.Use(authMiddleware.Authenticate)
	appointmentsAPI.HandleFunc("", appointmentHandler.ListCalendar).Methods("GET")
	appointmentsAPI.HandleFunc("", staff(appointmentHandler.BookAppointment)).Methods("POST")
	appointmentsAPI.HandleFunc("/{id}", appointmentHandler.GetAppointment).Methods("GET")
	appointmentsAPI.HandleFunc("/{id}", staff(appointmentHandler.Reschedule)).Methods("PUT")
	appointmentsAPI.HandleFunc("/{id}/complete", staff(appointmentHandler.Complete)).Methods("POST")
	appointmentsAPI.HandleFunc("/{id}/cancel", staff(appointmentHandler.Cancel)).Methods("POST")

	// Clinical records (vets and admins)
	recordsAPI := r.PathPrefix("/api/clinical-records").Subrouter()
	recordsAPI.Use(authMiddleware.Authenticate)
	recordsAPI.HandleFunc("", clinical(clinicalRecordHandler.CreateRecord)).Methods("POST")
	recordsAPI.HandleFunc("/{id}", clinical(clinicalRecordHandler.GetRecord)).Methods("GET")
	recordsAPI.HandleFunc("/{id}", clinical(clinicalRecordHandler.UpdateRecord)).Methods("PUT")
	recordsAPI.HandleFunc("/{id}", clinical(clinicalRecordHandler.DeleteRecord)).Methods("DELETE")
	recordsAPI.HandleFunc("/{id}/invoice", clinical(clinicalRecordHandler.GenerateInvoice)).Methods("POST")

	// Products and variants
	productsAPI := r.PathPrefix("/api/products").Subrouter()
	productsAPI.Use(authMiddleware.Authenticate)
	productsAPI.HandleFunc("", productHandler.ListProducts).Methods("GET")
	productsAPI.HandleFunc("", staff(productHandler.CreateProduct)).Methods("POST")
	productsAPI.HandleFunc("/{id}", productHandler.GetProduct).Methods("GET")
	productsAPI.HandleFunc("/{id}", staff(productHandler.UpdateProduct)).Methods("PUT")
	productsAPI.HandleFunc("/{id}/variants", staff(productHandler.AddVariant)).Methods("POST")
	productsAPI.HandleFunc("/{id}/images", staff(productHandler.UploadImage)).Methods("POST")
	productsAPI.HandleFunc("/{id}/images", staff(productHandler.DeleteImage)).Methods("DELETE")

	variantsAPI := r.PathPrefix("/api/variants").Subrouter()
	variantsAPI.Use(authMiddleware.Authenticate)
	variantsAPI.HandleFunc("/{variant_id}", staff(productHandler.UpdateVariant)).Methods("PUT")
	variantsAPI.HandleFunc("/{variant_id}/stock", inventoryHandler.AvailableStock).Methods("GET")
	variantsAPI.HandleFunc("/{variant_id}/movements", inventoryHandler.MovementHistory).Methods("GET")
	variantsAPI.HandleFunc("/{variant_id}/lots", inventoryHandler.ListLots).Methods("GET")

	// Inventory ledger
	stockAPI := r.PathPrefix("/api/stock").Subrouter()
	stockAPI.Use(authMiddleware.Authenticate)
	stockAPI.HandleFunc("/movements", staff(inventoryHandler.RecordMovement)).Methods("POST")
	stockAPI.HandleFunc("/add", staff(inventoryHandler.AddStock)).Methods("POST")

	lotsAPI := r.PathPrefix("/api/lots").Subrouter()
	lotsAPI.Use(authMiddleware.Authenticate)
	lotsAPI.HandleFunc("", staff(inventoryHandler.RegisterLot)).Methods("POST")
	lotsAPI.HandleFunc("/{id}", staff(inventoryHandler.EditLot)).Methods("PUT")
	lotsAPI.HandleFunc("/{id}/deactivate", staff(inventoryHandler.DeactivateLot)).Methods("POST")
	lotsAPI.HandleFunc("/{id}/reactivate", staff(inventoryHandler.ReactivateLot)).Methods("POST")
	lotsAPI.HandleFunc("/{id}/movements", inventoryHandler.LotMovementHistory).Methods("GET")

	// Procedures
	proceduresAPI := r.PathPrefix("/api/procedures").Subrouter()
	proceduresAPI.Use(authMiddleware.Authenticate)
	proceduresAPI.HandleFunc("", procedureHandler.ListProcedures).Methods("GET")
	proceduresAPI.HandleFunc("", admin(procedureHandler.CreateProcedure)).Methods("POST")
	proceduresAPI.HandleFunc("/{id}", procedureHandler.GetProcedure).Methods("GET")
	proceduresAPI.HandleFunc("/{id}", admin(procedureHandler.UpdateProcedure)).Methods("PUT")
	proceduresAPI.HandleFunc("/{id}/active", admin(procedureHandler.SetActive)).Methods("PATCH")

	// Invoices and payments (billing access required)
	invoicesAPI := r.PathPrefix("/api/invoices").Subrouter()
	invoicesAPI.Use(authMiddleware.Authenticate)
	invoicesAPI.HandleFunc("", billing(invoiceHandler.ListInvoices)).Methods("GET")
	invoicesAPI.HandleFunc("", billing(invoiceHandler.CreateInvoice)).Methods("POST")
	invoicesAPI.HandleFunc("/export", billing(reportHandler.InvoicesCSV)).Methods("GET")
	invoicesAPI.HandleFunc("/{id}", billing(invoiceHandler.GetInvoice)).Methods("GET")
	invoicesAPI.HandleFunc("/{id}", billing(invoiceHandler.UpdateInvoice)).Methods("PUT")
	invoicesAPI.HandleFunc("/{id}", billing(invoiceHandler.DeleteInvoice)).Methods("DELETE")
	invoicesAPI.HandleFunc("/{id}/issue", billing(invoiceHandler.IssueInvoice)).Methods("POST")
	invoicesAPI.HandleFunc("/{id}/void", billing(invoiceHandler.VoidInvoice)).Methods("POST")
	invoicesAPI.HandleFunc("/{id}/pdf", billing(reportHandler.InvoicePDF)).Methods("GET")
	invoicesAPI.HandleFunc("/{id}/payments", billing(invoiceHandler.ListPayments)).Methods("GET")
	invoicesAPI.HandleFunc("/{id}/payments", billing(invoiceHandler.RegisterPayment)).Methods("POST")

	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.Use(authMiddleware.Authenticate)
	paymentsAPI.HandleFunc("/{payment_id}", billing(invoiceHandler.UpdatePayment)).Methods("PUT")
	paymentsAPI.HandleFunc("/{payment_id}", billing(invoiceHandler.DeletePayment)).Methods("DELETE")

	// Settings (admin only)
	settingsAPI := r.PathPrefix("/api/settings").Subrouter()
	settingsAPI.Use(authMiddleware.Authenticate)
	settingsAPI.HandleFunc("", admin(systemSettingHandler.ListSettings)).Methods("GET")
	settingsAPI.HandleFunc("/{key}", admin(systemSettingHandler.GetSetting)).Methods("GET")
	settingsAPI.HandleFunc("/{key}", admin(systemSettingHandler.UpdateSetting)).Methods("PUT")

	// Health endpoint (no auth, for probes)
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// NewPortalRouter creates the owner portal router (its own port)
func NewPortalRouter(
	portalHandler *handlers.PortalHandler,
	razorpayHandler *handlers.RazorpayHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public API - SMS code login
	r.HandleFunc("/auth/request-code", portalHandler.RequestLoginCode).Methods("POST")
	r.HandleFunc("/auth/verify-code", portalHandler.VerifyLoginCode).Methods("POST")

	// Public API - online payment availability and gateway callbacks
	r.HandleFunc("/api/payments/status", razorpayHandler.PaymentStatus).Methods("GET")
	r.HandleFunc("/api/payments/verify", razorpayHandler.VerifyPayment).Methods("POST")
	r.HandleFunc("/webhooks/razorpay", razorpayHandler.Webhook).Methods("POST")

	// Protected API routes (owner JWT)
	ownerAPI := r.PathPrefix("/api").Subrouter()
	ownerAPI.Use(authMiddleware.AuthenticateOwner)
	ownerAPI.HandleFunc("/patients", portalHandler.MyPatients).Methods("GET")
	ownerAPI.HandleFunc("/invoices", portalHandler.MyInvoices).Methods("GET")
	ownerAPI.HandleFunc("/invoices/{id}", portalHandler.MyInvoice).Methods("GET")
	ownerAPI.HandleFunc("/appointments", portalHandler.MyAppointments).Methods("GET")
	ownerAPI.HandleFunc("/transactions", portalHandler.MyTransactions).Methods("GET")
	ownerAPI.HandleFunc("/payments/order", razorpayHandler.CreateOrder).Methods("POST")

	// Health endpoint (no auth, for probes)
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")

	return r
}
