package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"subscription-service/internal/model"
	"subscription-service/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type Handler struct {
	store repository.SubscriptionStore
}

func NewHandler(store repository.SubscriptionStore) *Handler {
	return &Handler{store: store}
}

func SendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write json response failed", "error", err)
	}
}

func SendError(w http.ResponseWriter, status int, msg string) {
	SendJSON(w, status, map[string]string{"error": msg})
}

// decodeError turns a body-decoding failure into a client-facing message,
// surfacing the offending input for month-year fields.
func decodeError(err error) string {
	var parseErr *model.ParseMonthError
	if errors.As(err, &parseErr) {
		return parseErr.Error()
	}
	return "invalid request body"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// HealthCheck reports liveness.
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	object{status=string}
//	@Router		/health [get]
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSubscriptionRequest is the body for creating a subscription.
// Dates accept the MM-YYYY form; the day component is never meaningful.
type CreateSubscriptionRequest struct {
	ServiceName string           `json:"service_name" example:"Yandex Plus"`
	Price       *int             `json:"price" example:"400"`
	UserID      string           `json:"user_id" example:"60601fee-2bf1-4721-ae6f-7636e79a0cba"`
	StartDate   *model.MonthDate `json:"start_date" example:"07-2025"`
	EndDate     *model.MonthDate `json:"end_date,omitempty" example:"12-2025"`
}

// UpdateSubscriptionRequest is a partial update: absent fields stay
// untouched; an explicit null end_date makes the subscription open-ended.
type UpdateSubscriptionRequest struct {
	ServiceName *string          `json:"service_name" example:"Netflix"`
	Price       *int             `json:"price" example:"500"`
	StartDate   *model.MonthDate `json:"start_date" example:"08-2025"`
	EndDate     model.MonthPatch `json:"end_date"`
}

// CreateSubscription creates a new subscription.
//
//	@Summary		Create a subscription
//	@Tags			subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateSubscriptionRequest	true	"Subscription data"
//	@Success		201	{object}	model.Subscription
//	@Failure		422	{object}	object{error=string}
//	@Failure		500	{object}	object{error=string}
//	@Router			/subscriptions/ [post]
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var input CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendError(w, http.StatusUnprocessableEntity, decodeError(err))
		return
	}

	if input.ServiceName == "" {
		SendError(w, http.StatusUnprocessableEntity, "service_name is required")
		return
	}

	if input.Price == nil {
		SendError(w, http.StatusUnprocessableEntity, "price is required")
		return
	}
	if *input.Price < 0 {
		SendError(w, http.StatusUnprocessableEntity, "price must be a non-negative integer")
		return
	}

	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		SendError(w, http.StatusUnprocessableEntity, "user_id must be a valid UUID")
		return
	}

	if input.StartDate == nil {
		SendError(w, http.StatusUnprocessableEntity, "start_date is required")
		return
	}

	sub := &model.Subscription{
		ServiceName: input.ServiceName,
		Price:       *input.Price,
		UserID:      userID,
		StartDate:   *input.StartDate,
		EndDate:     input.EndDate,
	}

	if err := h.store.Create(r.Context(), sub); err != nil {
		SendError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}

	SendJSON(w, http.StatusCreated, sub)
}

// GetSubscription retrieves a subscription by ID.
//
//	@Summary		Get subscription by ID
//	@Tags			subscriptions
//	@Produce		json
//	@Param			id	path		string	true	"Subscription ID"
//	@Success		200	{object}	model.Subscription
//	@Failure		404	{object}	object{error=string}
//	@Failure		422	{object}	object{error=string}
//	@Router			/subscriptions/{id} [get]
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sub, err := h.store.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		SendError(w, http.StatusNotFound, "Subscription not found")
		return
	}
	if err != nil {
		SendError(w, http.StatusInternalServerError, "failed to fetch subscription")
		return
	}

	SendJSON(w, http.StatusOK, sub)
}

// UpdateSubscription partially updates a subscription: only supplied
// fields change.
//
//	@Summary		Update subscription
//	@Tags			subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Subscription ID"
//	@Param			request	body		UpdateSubscriptionRequest	true	"Fields to change"
//	@Success		200	{object}	model.Subscription
//	@Failure		404	{object}	object{error=string}
//	@Failure		422	{object}	object{error=string}
//	@Router			/subscriptions/{id} [put]
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var input UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendError(w, http.StatusUnprocessableEntity, decodeError(err))
		return
	}

	if input.ServiceName != nil && *input.ServiceName == "" {
		SendError(w, http.StatusUnprocessableEntity, "service_name cannot be empty")
		return
	}
	if input.Price != nil && *input.Price < 0 {
		SendError(w, http.StatusUnprocessableEntity, "price must be a non-negative integer")
		return
	}

	updated, err := h.store.Update(r.Context(), id, repository.UpdateParams{
		ServiceName: input.ServiceName,
		Price:       input.Price,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	})
	if errors.Is(err, repository.ErrNotFound) {
		SendError(w, http.StatusNotFound, "Subscription not found")
		return
	}
	if err != nil {
		SendError(w, http.StatusInternalServerError, "failed to update subscription")
		return
	}

	SendJSON(w, http.StatusOK, updated)
}

// DeleteSubscription removes a subscription.
//
//	@Summary		Delete subscription
//	@Tags			subscriptions
//	@Produce		json
//	@Param			id	path		string	true	"Subscription ID"
//	@Success		200	{object}	object{message=string}
//	@Failure		404	{object}	object{error=string}
//	@Failure		422	{object}	object{error=string}
//	@Router			/subscriptions/{id} [delete]
func (h *Handler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.store.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		SendError(w, http.StatusNotFound, "Subscription not found")
		return
	}
	if err != nil {
		SendError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Subscription deleted"})
}

// ListSubscriptions lists a user's subscriptions overlapping a window.
//
//	@Summary		List subscriptions
//	@Tags			subscriptions
//	@Produce		json
//	@Param			user_id			query		string	true	"User ID"
//	@Param			service_name	query		string	false	"Exact service name"
//	@Param			start_date		query		string	false	"Window start, MM-YYYY"
//	@Param			end_date		query		string	false	"Window end, MM-YYYY"
//	@Param			limit			query		int		false	"Page size, default 10"
//	@Param			offset			query		int		false	"Page offset, default 0"
//	@Success		200	{array}		model.Subscription
//	@Failure		422	{object}	object{error=string}
//	@Router			/subscriptions/list/ [get]
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	limit, ok := parseIntParam(w, r, "limit", 10)
	if !ok {
		return
	}
	offset, ok := parseIntParam(w, r, "offset", 0)
	if !ok {
		return
	}
	if limit < 1 {
		SendError(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
		return
	}
	if offset < 0 {
		SendError(w, http.StatusUnprocessableEntity, "offset must be a non-negative integer")
		return
	}

	subs, err := h.store.List(r.Context(), repository.ListParams{
		Filter: filter,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		SendError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	SendJSON(w, http.StatusOK, subs)
}

// SumSubscriptions returns the aggregated cost of a user's subscriptions
// over a window. No matches is a sum of zero.
//
//	@Summary		Sum subscription costs
//	@Tags			subscriptions
//	@Produce		json
//	@Param			user_id			query		string	true	"User ID"
//	@Param			service_name	query		string	false	"Exact service name"
//	@Param			start_date		query		string	false	"Window start, MM-YYYY"
//	@Param			end_date		query		string	false	"Window end, MM-YYYY"
//	@Success		200	{object}	object{sum=int}
//	@Failure		422	{object}	object{error=string}
//	@Router			/subscriptions/sum/ [get]
func (h *Handler) SumSubscriptions(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	total, err := h.store.SumPeriod(r.Context(), filter)
	if err != nil {
		SendError(w, http.StatusInternalServerError, "failed to sum subscriptions")
		return
	}

	SendJSON(w, http.StatusOK, map[string]int{"sum": total})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		SendError(w, http.StatusUnprocessableEntity, "subscription id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseFilter(w http.ResponseWriter, r *http.Request) (repository.Filter, bool) {
	q := r.URL.Query()

	userIDStr := q.Get("user_id")
	if userIDStr == "" {
		SendError(w, http.StatusUnprocessableEntity, "user_id is required")
		return repository.Filter{}, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		SendError(w, http.StatusUnprocessableEntity, "user_id must be a valid UUID")
		return repository.Filter{}, false
	}

	filter := repository.Filter{UserID: userID}

	if s := q.Get("service_name"); s != "" {
		filter.ServiceName = &s
	}

	if s := q.Get("start_date"); s != "" {
		start, err := model.ParseMonthYear(s)
		if err != nil {
			SendError(w, http.StatusUnprocessableEntity, err.Error())
			return repository.Filter{}, false
		}
		filter.StartDate = &start
	}

	if s := q.Get("end_date"); s != "" {
		end, err := model.ParseMonthYear(s)
		if err != nil {
			SendError(w, http.StatusUnprocessableEntity, err.Error())
			return repository.Filter{}, false
		}
		filter.EndDate = &end
	}

	return filter, true
}

func parseIntParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		SendError(w, http.StatusUnprocessableEntity, name+" must be an integer")
		return 0, false
	}
	return n, true
}
