package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"hrops/internal/db"
	attendancedomain "hrops/internal/domain/attendance"
	auditdomain "hrops/internal/domain/audit"
	employeedomain "hrops/internal/domain/employee"
	identitydomain "hrops/internal/domain/identity"
	invitationdomain "hrops/internal/domain/invitation"
	leavedomain "hrops/internal/domain/leave"
	orgdomain "hrops/internal/domain/org"
	payrolldomain "hrops/internal/domain/payroll"
	reportsdomain "hrops/internal/domain/reports"
	"hrops/internal/platform/config"
	"hrops/internal/platform/crypto"
	"hrops/internal/platform/email"
	"hrops/internal/platform/jobs"
	"hrops/internal/platform/metrics"
	"hrops/internal/platform/outbound"
	"hrops/internal/platform/storage"
	attendancehandlers "hrops/internal/transport/http/handlers/attendance"
	audithandlers "hrops/internal/transport/http/handlers/audit"
	authhandlers "hrops/internal/transport/http/handlers/auth"
	employeehandlers "hrops/internal/transport/http/handlers/employee"
	invitationhandlers "hrops/internal/transport/http/handlers/invitation"
	leavehandlers "hrops/internal/transport/http/handlers/leave"
	orghandlers "hrops/internal/transport/http/handlers/org"
	payrollhandlers "hrops/internal/transport/http/handlers/payroll"
	reportshandlers "hrops/internal/transport/http/handlers/reports"
	"hrops/internal/transport/http/middleware"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			return err
		}
		if err := outbound.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	collector := metrics.New()
	mailer := email.New(cfg)
	queue, err := outbound.New(pool, mailer, cfg.EmailFrom, cfg.MailWorkers, collector)
	if err != nil {
		return err
	}
	if err := queue.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := queue.Stop(stopCtx); err != nil {
			log.Warn("mail queue stop", "error", err)
		}
	}()

	objects, err := storage.NewLocal(cfg.UploadDir, "/uploads")
	if err != nil {
		return err
	}

	// Stores.
	identityStore := identitydomain.NewStore(pool)
	orgStore := orgdomain.NewStore(pool)
	employeeStore := employeedomain.NewStore(pool, cryptoSvc)
	recorder := auditdomain.NewRecorder(pool, log)
	invitationStore := invitationdomain.NewStore(pool, recorder)
	attendanceStore := attendancedomain.NewStore(pool)
	leaveStore := leavedomain.NewStore(pool)
	payrollStore := payrolldomain.NewStore(pool)
	reportsStore := reportsdomain.NewStore(pool)

	// Background maintenance.
	scheduler := jobs.New(pool, log, collector)
	scheduler.Register("attendance_auto_checkout", cfg.AutoCheckoutInterval,
		func(ctx context.Context) (map[string]any, error) {
			res, err := attendancedomain.RunAutoCheckout(ctx, attendanceStore, time.Now())
			for _, rec := range res.Closed {
				recorder.Record(ctx, rec.OrganizationID, &rec.UserID,
					auditdomain.ActionAutoCheckout,
					map[string]any{"attendanceId": rec.ID, "status": rec.Status})
			}
			return map[string]any{"scanned": res.Scanned, "closed": len(res.Closed)}, err
		})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Handlers.
	authH := authhandlers.New(cfg, identityStore, cryptoSvc, recorder, queue, log)
	orgH := orghandlers.New(orgStore, objects, recorder, log)
	employeeH := employeehandlers.New(employeeStore, recorder, log)
	invitationH := invitationhandlers.New(cfg, invitationStore, recorder, queue, log)
	attendanceH := attendancehandlers.New(attendanceStore, recorder, log)
	leaveH := leavehandlers.New(leaveStore, recorder, log)
	payrollH := payrollhandlers.New(payrollStore, orgNameResolver(orgStore), recorder, log)
	auditH := audithandlers.New(recorder, log)
	reportsH := reportshandlers.New(reportsStore, log)

	authn := middleware.Authenticate([]byte(cfg.JWTSecret))
	adminOnly := middleware.RequireRole(identitydomain.RoleSuperAdmin, identitydomain.RoleAdmin)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logging(log))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics(collector))
		r.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	uploadsFS := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get("/uploads/*", uploadsFS.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(limiter.Middleware)
			authH.RegisterRoutes(r, authn)
		})
		r.Route("/invitations/public", func(r chi.Router) {
			r.Use(limiter.Middleware)
			invitationH.RegisterPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Route("/organization", func(r chi.Router) { orgH.RegisterRoutes(r, adminOnly) })
			r.Route("/employees", func(r chi.Router) { employeeH.RegisterRoutes(r, adminOnly) })
			r.Route("/attendance", func(r chi.Router) { attendanceH.RegisterRoutes(r, adminOnly) })
			r.Route("/leave", func(r chi.Router) { leaveH.RegisterRoutes(r, adminOnly) })
			r.Route("/payroll", func(r chi.Router) { payrollH.RegisterRoutes(r, adminOnly) })
			r.Route("/invitations", func(r chi.Router) {
				r.Use(adminOnly)
				invitationH.RegisterAdminRoutes(r)
			})
			r.Route("/audit-logs", func(r chi.Router) {
				r.Use(adminOnly)
				auditH.RegisterRoutes(r)
			})
			r.Route("/reports", func(r chi.Router) {
				r.Use(adminOnly)
				reportsH.RegisterRoutes(r)
			})
		})
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

// orgNameResolver fetches the caller's organization name for payslips,
// falling back to a neutral label if the lookup fails.
func orgNameResolver(store *orgdomain.Store) payrollhandlers.OrgNameFunc {
	return func(r *http.Request) string {
		u, ok := middleware.GetUser(r.Context())
		if !ok {
			return "Payslip"
		}
		o, err := store.ByID(r.Context(), u.OrganizationID)
		if err != nil {
			return "Payslip"
		}
		return o.Name
	}
}
