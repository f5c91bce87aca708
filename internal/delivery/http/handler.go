package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vogiaan1904/dealview-tracker/internal/service"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
	"github.com/vogiaan1904/dealview-tracker/pkg/response"
	"github.com/vogiaan1904/dealview-tracker/pkg/util"
)

type Handler struct {
	impSvc   service.ImpressionService
	statsSvc service.StatsService
	authSvc  service.AuthService
	l        logger.Logger
}

func NewHandler(
	impSvc service.ImpressionService,
	statsSvc service.StatsService,
	authSvc service.AuthService,
	l logger.Logger,
) *Handler {
	return &Handler{
		impSvc:   impSvc,
		statsSvc: statsSvc,
		authSvc:  authSvc,
		l:        l,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	response.OK(c, gin.H{
		"status":  "healthy",
		"service": "dealview-tracker",
	})
}

func (h *Handler) Mount(c *gin.Context) {
	var req mountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}

	out, err := h.impSvc.Mount(c.Request.Context(), service.MountInput{
		InstanceID: req.InstanceID,
		DealID:     req.DealID,
	})
	if err != nil {
		h.fail(c, "Mount", err)
		return
	}

	response.Created(c, mountResp{
		InstanceID: out.InstanceID,
		DealID:     out.DealID,
		MountedAt:  util.TimeToISO8601Str(out.MountedAt),
	})
}

func (h *Handler) ReportVisibility(c *gin.Context) {
	var req visibilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}

	out, err := h.impSvc.ReportVisibility(c.Request.Context(), service.VisibilityInput{
		InstanceID: c.Param("instanceId"),
		Ratio:      *req.Ratio,
	})
	if err != nil {
		h.fail(c, "ReportVisibility", err)
		return
	}

	response.OK(c, visibilityResp{
		InstanceID: out.InstanceID,
		Fired:      out.Fired,
	})
}

func (h *Handler) GetImpression(c *gin.Context) {
	imp, err := h.impSvc.GetImpression(c.Request.Context(), c.Param("instanceId"))
	if err != nil {
		h.fail(c, "GetImpression", err)
		return
	}

	response.OK(c, newImpressionResp(*imp))
}

func (h *Handler) Unmount(c *gin.Context) {
	if err := h.impSvc.Unmount(c.Request.Context(), c.Param("instanceId")); err != nil {
		h.fail(c, "Unmount", err)
		return
	}

	response.OK(c, messageResp{Message: "Impression unmounted"})
}

func (h *Handler) TrackView(c *gin.Context) {
	var req trackViewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}

	if err := h.impSvc.TrackView(c.Request.Context(), req.DealID); err != nil {
		h.fail(c, "TrackView", err)
		return
	}

	response.Accepted(c, trackViewResp{
		DealID:  req.DealID,
		Message: "View queued",
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}

	out, err := h.authSvc.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, "Login", err)
		return
	}

	response.OK(c, loginResp{
		Token:     out.Token,
		ExpiresAt: util.TimeToISO8601Str(out.ExpiresAt),
	})
}

func (h *Handler) GetDealViews(c *gin.Context) {
	out, err := h.statsSvc.GetDealViews(c.Request.Context(), c.Param("dealId"))
	if err != nil {
		h.fail(c, "GetDealViews", err)
		return
	}

	response.OK(c, newDealViewsResp(*out))
}

func (h *Handler) TopDeals(c *gin.Context) {
	var req topDealsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}

	deals, err := h.statsSvc.TopDeals(c.Request.Context(), req.Limit)
	if err != nil {
		h.fail(c, "TopDeals", err)
		return
	}

	out := topDealsResp{Deals: make([]dealViewsResp, 0, len(deals))}
	for _, d := range deals {
		out.Deals = append(out.Deals, newDealViewsResp(d))
	}

	response.OK(c, out)
}

func (h *Handler) SweeperStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.impSvc.GetSweeperStatus())
}

func (h *Handler) fail(c *gin.Context, method string, err error) {
	mapped, ok := h.mapHTTPError(err)
	if !ok {
		h.l.Errorf(c.Request.Context(), "delivery.http.Handler.%s: %v", method, err)
	}
	response.Error(c, mapped)
}
