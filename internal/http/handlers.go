package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"finbook/internal/core"
	applog "finbook/internal/log"
)

// pageData is what every template receives.
type pageData struct {
	Title      string
	Groups     []core.DayGroup
	Balance    float64
	Expenses   []core.Expense
	TotalSpent float64
	Today      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", pageData{Title: "Add transaction"})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	form, err := parseForm(w, r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	input, err := ParseTransactionForm(form)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	timestamp := s.now().Format(core.TimestampLayout)
	if _, err := s.transactions.Append(r.Context(), timestamp, input.Kind, input.Amount, input.Remark); err != nil {
		applog.LogFailure(r.Context(), logger, "Failed to save transaction", err, applog.OpAppend,
			applog.NewFields().WithTransaction(timestamp, input.Kind.String(), input.Amount, input.Remark))
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	groups, err := s.transactions.Load(r.Context())
	if err != nil {
		s.storageFailure(w, r, "Failed to load transactions", err)
		return
	}
	s.render(w, r, "transactions.html", pageData{
		Title:   "Transactions",
		Groups:  groups.Groups(),
		Balance: core.Balance(groups),
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.transactions.Balance(r.Context())
	if err != nil {
		s.storageFailure(w, r, "Failed to compute balance", err)
		return
	}
	s.render(w, r, "balance.html", pageData{Title: "Balance", Balance: balance})
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	book, err := s.expenses.Load(r.Context())
	if err != nil {
		s.storageFailure(w, r, "Failed to load expenses", err)
		return
	}
	s.render(w, r, "expenses.html", pageData{
		Title:      "Daily expenses",
		Expenses:   book.Entries(),
		TotalSpent: book.Total(),
		Today:      s.now().Format(core.DateLayout),
	})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	form, err := parseForm(w, r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	input, err := ParseExpenseForm(form)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	date := s.now().Format(core.DateLayout)
	if _, err := s.expenses.Append(r.Context(), date, input.AmountSpent); err != nil {
		applog.LogFailure(r.Context(), logger, "Failed to save expense", err, applog.OpAppend,
			applog.NewFields().WithExpense(date, input.AmountSpent))
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/expenses", http.StatusSeeOther)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates parsed, both stores can be read and
// every extra readiness check passes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]string)
	fail := func(name string, err error) {
		checks[name] = "failed: " + err.Error()
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		code = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}
	if _, err := s.transactions.Load(ctx); err != nil {
		fail("transactions", err)
	} else {
		checks["transactions"] = "ok"
	}
	if _, err := s.expenses.Load(ctx); err != nil {
		fail("expenses", err)
	} else {
		checks["expenses"] = "ok"
	}
	for _, rc := range s.readiness {
		if err := rc.check(ctx); err != nil {
			fail(rc.name, err)
		} else {
			checks[rc.name] = "ok"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.NewFields().
			WithClientIP(s.clientIP.ExtractClientIP(r)).
			WithHTTPRequest(r.Method, r.URL.Path, "", "").
			ToSlice()...)
	writeStatus(w, http.StatusTooManyRequests)
}

// render executes name into a buffer so a template failure still yields
// a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldOperation, applog.OpRender)
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.LogFailure(r.Context(), logger.WithComponent(applog.ComponentTemplate), "Template execution failed", err, applog.OpRender,
			applog.NewFields())
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rejected form submission",
		applog.FieldError, err,
		applog.FieldOperation, applog.OpValidate)
	writeStatus(w, http.StatusBadRequest)
}

func (s *Server) storageFailure(w http.ResponseWriter, r *http.Request, msg string, err error) {
	applog.LogFailure(r.Context(), applog.FromContext(r.Context()), msg, err, applog.OpRead, applog.NewFields())
	writeStatus(w, http.StatusInternalServerError)
}

// writeStatus answers with the plain status text.
func writeStatus(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
