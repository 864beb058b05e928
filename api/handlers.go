package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hireflow/application"
	"hireflow/approval"
	"hireflow/candidate"
	"hireflow/geomatch"
	"hireflow/metrics"
	"hireflow/requisition"
	"hireflow/store"
)

// Handler exposes the requisition and routing core over HTTP.
type Handler struct {
	logger       *zap.Logger
	requisitions *requisition.Service
	chain        *approval.Engine
	tracker      *requisition.Tracker
	router       *application.Router
	directory    *store.Directory
}

// NewHandler creates the API handler.
func NewHandler(
	logger *zap.Logger,
	requisitions *requisition.Service,
	chain *approval.Engine,
	tracker *requisition.Tracker,
	router *application.Router,
	directory *store.Directory,
) *Handler {
	return &Handler{
		logger:       logger,
		requisitions: requisitions,
		chain:        chain,
		tracker:      tracker,
		router:       router,
		directory:    directory,
	}
}

type screeningQuestionDTO struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Required bool    `json:"required"`
	Expected *string `json:"expected,omitempty"`
}

type createRequisitionRequest struct {
	BrandID   string                 `json:"brand_id" binding:"required"`
	StoreID   string                 `json:"store_id" binding:"required"`
	Position  string                 `json:"position" binding:"required"`
	Shift     string                 `json:"shift"`
	Modality  string                 `json:"modality"`
	SeatCount int                    `json:"seat_count" binding:"required"`
	Category  string                 `json:"category"`
	Screening []screeningQuestionDTO `json:"screening"`
}

func (h *Handler) createRequisition(c *gin.Context) {
	var req createRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := callerIdentity(c)
	screening := make([]requisition.ScreeningQuestion, 0, len(req.Screening))
	for _, q := range req.Screening {
		screening = append(screening, requisition.ScreeningQuestion{
			ID:       q.ID,
			Text:     q.Text,
			Required: q.Required,
			Expected: q.Expected,
		})
	}

	rq, err := h.requisitions.Create(c.Request.Context(), requisition.CreateRequest{
		BrandID:     req.BrandID,
		StoreID:     req.StoreID,
		Position:    req.Position,
		Shift:       geomatch.Shift(req.Shift),
		Modality:    requisition.Modality(req.Modality),
		SeatCount:   req.SeatCount,
		Category:    requisition.Category(req.Category),
		Screening:   screening,
		CreatorID:   caller.UserID,
		CreatorName: caller.Name,
		CreatorRole: caller.Role,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.logger.Info("requisition created",
		zap.String("request_id", requestID(c)),
		zap.String("requisition_id", rq.ID),
		zap.String("store_id", rq.StoreID),
		zap.String("creator_role", string(rq.CreatedByRole)))
	c.JSON(http.StatusCreated, requisitionResponse(rq))
}

func (h *Handler) getRequisition(c *gin.Context) {
	rq, err := h.requisitions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, requisitionResponse(rq))
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) decide(decision approval.Decision) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req decisionRequest
		if decision == approval.DecisionReject {
			// A missing body is the same as an empty reason; the chain
			// reports it with its own sentinel.
			if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		caller := callerIdentity(c)
		rq, err := h.chain.Advance(c.Request.Context(), approval.AdvanceParams{
			RequisitionID: c.Param("id"),
			ActorID:       caller.UserID,
			ActorName:     caller.Name,
			ActorRole:     caller.Role,
			Decision:      decision,
			Reason:        req.Reason,
		})
		if err != nil {
			h.renderError(c, err)
			return
		}

		metrics.ApprovalDecisions.WithLabelValues(string(decision)).Inc()
		h.logger.Info("approval decision applied",
			zap.String("request_id", requestID(c)),
			zap.String("requisition_id", rq.ID),
			zap.String("decision", string(decision)),
			zap.Int("level", rq.CurrentLevel))
		c.JSON(http.StatusOK, requisitionResponse(rq))
	}
}

func (h *Handler) confirmHire(c *gin.Context) {
	rq, err := h.tracker.ConfirmHire(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	metrics.HiresConfirmed.Inc()
	c.JSON(http.StatusOK, requisitionResponse(rq))
}

func (h *Handler) closeRequisition(c *gin.Context) {
	rq, err := h.tracker.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, requisitionResponse(rq))
}

func (h *Handler) cancelRequisition(c *gin.Context) {
	rq, err := h.tracker.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, requisitionResponse(rq))
}

type submitApplicationRequest struct {
	CandidateID   string            `json:"candidate_id" binding:"required"`
	RequisitionID string            `json:"requisition_id" binding:"required"`
	Answers       map[string]string `json:"answers"`
}

func (h *Handler) submitApplication(c *gin.Context) {
	var req submitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.router.Route(c.Request.Context(), application.RouteRequest{
		CandidateID:   req.CandidateID,
		RequisitionID: req.RequisitionID,
		Answers:       req.Answers,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	metrics.RoutingDecisions.WithLabelValues(string(app.Flow)).Inc()
	h.logger.Info("application routed",
		zap.String("request_id", requestID(c)),
		zap.String("application_id", app.ID),
		zap.String("requisition_id", app.RequisitionID),
		zap.String("flow", string(app.Flow)),
		zap.Int("match_score", app.MatchScore))
	c.JSON(http.StatusCreated, gin.H{
		"id":             app.ID,
		"candidate_id":   app.CandidateID,
		"requisition_id": app.RequisitionID,
		"kq_passed":      app.KQPassed,
		"match_score":    app.MatchScore,
		"is_geo_match":   app.IsGeoMatch,
		"flow":           app.Flow,
		"created_at":     app.CreatedAt,
	})
}

type matchRequest struct {
	BrandID string   `json:"brand_id" binding:"required"`
	Shift   string   `json:"shift" binding:"required"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

func (h *Handler) matchStores(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shift := geomatch.Shift(req.Shift)
	if !geomatch.IsValidShift(shift) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shift"})
		return
	}

	var coords *geomatch.Coords
	if req.Lat != nil && req.Lng != nil {
		coords = &geomatch.Coords{Lat: *req.Lat, Lng: *req.Lng}
	}

	ranked, err := h.directory.MatchCandidate(c.Request.Context(), req.BrandID, coords, shift)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": ranked})
}

func requisitionResponse(rq requisition.Requisition) gin.H {
	return gin.H{
		"id":              rq.ID,
		"seq":             rq.Seq,
		"brand_id":        rq.BrandID,
		"store_id":        rq.StoreID,
		"position":        rq.Position,
		"shift":           rq.Shift,
		"modality":        rq.Modality,
		"seat_count":      rq.SeatCount,
		"category":        rq.Category,
		"approval_status": rq.ApprovalStatus,
		"current_level":   rq.CurrentLevel,
		"chain":           rq.Chain,
		"status":          rq.Status,
		"filled_slots":    rq.FilledSlots,
		"created_at":      rq.CreatedAt,
		"updated_at":      rq.UpdatedAt,
	}
}

// renderError maps domain sentinels onto HTTP statuses with enough context
// for the caller to retry or explain the failure.
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, requisition.ErrNotFound),
		errors.Is(err, candidate.ErrNotFound),
		errors.Is(err, store.ErrStoreNotFound),
		errors.Is(err, application.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, requisition.ErrStaleVersion):
		metrics.VersionConflicts.Inc()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true, "at": time.Now().UTC()})

	case errors.Is(err, approval.ErrWrongRole):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, approval.ErrChainDecided),
		errors.Is(err, requisition.ErrInvalidTransition),
		errors.Is(err, requisition.ErrNotRecruiting),
		errors.Is(err, requisition.ErrAlreadyTerminal),
		errors.Is(err, application.ErrNotRecruiting),
		errors.Is(err, application.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, requisition.ErrSeatCountRange),
		errors.Is(err, requisition.ErrManagerialShape),
		errors.Is(err, requisition.ErrCreatorRole),
		errors.Is(err, requisition.ErrCapacityReached),
		errors.Is(err, approval.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		h.logger.Error("internal error", zap.String("request_id", requestID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
