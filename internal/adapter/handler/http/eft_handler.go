package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/domain/model"
	"github.com/wekeepgrowing/paygate/internal/eft"
	"github.com/wekeepgrowing/paygate/internal/middleware/auth"
	"github.com/wekeepgrowing/paygate/internal/usecase"
	pkgErrors "github.com/wekeepgrowing/paygate/pkg/errors"
)

type EFTReviewer interface {
	Submit(ctx context.Context, in usecase.SubmitEFTInput) (*model.EFTPayment, error)
	ListPending(ctx context.Context, limit int) ([]*model.EFTPayment, error)
	Approve(ctx context.Context, id int64, user eft.User, opts ...eft.ActionOption) (eft.ApprovalResult, error)
	Reject(ctx context.Context, id int64, user eft.User, reason string, opts ...eft.ActionOption) (eft.ApprovalResult, error)
	BulkApprove(ctx context.Context, ids []int64, user eft.User, opts ...eft.ActionOption) ([]eft.ApprovalResult, error)
	BulkReject(ctx context.Context, ids []int64, user eft.User, reason string, opts ...eft.ActionOption) ([]eft.ApprovalResult, error)
}

type EFTHandler struct {
	reviews EFTReviewer
	logger  *zap.Logger
}

func NewEFTHandler(reviews EFTReviewer, logger *zap.Logger) *EFTHandler {
	return &EFTHandler{
		reviews: reviews,
		logger:  logger,
	}
}

func (h *EFTHandler) Submit(c echo.Context) error {
	var req SubmitEFTRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, h.logger, err)
	}
	if err := req.Validate(); err != nil {
		return invalidArgument(c, h.logger, err)
	}

	payment, err := h.reviews.Submit(c.Request().Context(), req.ToInput())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to submit EFT payment",
			zap.String("reference_number", req.ReferenceNumber))
	}

	return c.JSON(http.StatusCreated, payment)
}

func (h *EFTHandler) ListPending(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return respondError(c, h.logger, pkgErrors.Newf(pkgErrors.ErrInvalidArgument, "limit must be a non-negative integer"), "Invalid request")
		}
		limit = parsed
	}

	payments, err := h.reviews.ListPending(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list pending EFT payments")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payments": payments,
		"count":    len(payments),
	})
}

func (h *EFTHandler) Approve(c echo.Context) error {
	user, id, err := h.target(c)
	if err != nil {
		return respondError(c, h.logger, err, "Invalid review request")
	}

	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, h.logger, err)
	}

	result, err := h.reviews.Approve(c.Request().Context(), id, user, notifyOption(req.Notify))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load EFT payment", zap.Int64("payment_id", id))
	}
	return writeResult(c, result)
}

func (h *EFTHandler) Reject(c echo.Context) error {
	user, id, err := h.target(c)
	if err != nil {
		return respondError(c, h.logger, err, "Invalid review request")
	}

	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, h.logger, err)
	}
	if err := req.Validate(); err != nil {
		return invalidArgument(c, h.logger, err)
	}

	result, err := h.reviews.Reject(c.Request().Context(), id, user, req.Reason, notifyOption(req.Notify))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load EFT payment", zap.Int64("payment_id", id))
	}
	return writeResult(c, result)
}

func (h *EFTHandler) BulkApprove(c echo.Context) error {
	return h.bulk(c, func(ctx context.Context, req BulkReviewRequest, user eft.User) ([]eft.ApprovalResult, error) {
		return h.reviews.BulkApprove(ctx, req.IDs, user, notifyOption(req.Notify))
	})
}

func (h *EFTHandler) BulkReject(c echo.Context) error {
	return h.bulk(c, func(ctx context.Context, req BulkReviewRequest, user eft.User) ([]eft.ApprovalResult, error) {
		return h.reviews.BulkReject(ctx, req.IDs, user, req.Reason, notifyOption(req.Notify))
	})
}

// bulk always answers 200 once every id loads; per-item outcomes are in
// the body.
func (h *EFTHandler) bulk(c echo.Context, run func(context.Context, BulkReviewRequest, eft.User) ([]eft.ApprovalResult, error)) error {
	user, err := reviewer(c)
	if err != nil {
		return respondError(c, h.logger, err, "Invalid review request")
	}

	var req BulkReviewRequest
	if err := c.Bind(&req); err != nil {
		return invalidArgument(c, h.logger, err)
	}
	if err := req.Validate(); err != nil {
		return invalidArgument(c, h.logger, err)
	}

	results, err := run(c.Request().Context(), req, user)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load EFT payments", zap.Int64s("payment_ids", req.IDs))
	}

	succeeded := lo.CountBy(results, func(r eft.ApprovalResult) bool { return r.Success })
	return c.JSON(http.StatusOK, BulkReviewResponse{
		Results:   results,
		Succeeded: succeeded,
		Failed:    len(results) - succeeded,
	})
}

// target resolves the acting reviewer and the :id path parameter.
func (h *EFTHandler) target(c echo.Context) (*auth.AuthUser, int64, error) {
	user, err := reviewer(c)
	if err != nil {
		return nil, 0, err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, 0, pkgErrors.Newf(pkgErrors.ErrInvalidArgument, "invalid payment id %q", c.Param("id"))
	}
	return user, id, nil
}

func reviewer(c echo.Context) (*auth.AuthUser, error) {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return nil, pkgErrors.NewAppError(pkgErrors.ErrUnauthenticated, "authentication required", err)
	}
	return user, nil
}

func notifyOption(notify *bool) eft.ActionOption {
	return eft.WithNotify(notify == nil || *notify)
}

func writeResult(c echo.Context, result eft.ApprovalResult) error {
	if !result.Success {
		return c.JSON(http.StatusUnprocessableEntity, result)
	}
	return c.JSON(http.StatusOK, result)
}
