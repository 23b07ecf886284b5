package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator"
	"github.com/thesrcielos/TopCodeBattle/internal/language"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
)

type ProblemHandler struct {
	problems  *problem.ProblemService
	evaluator *evaluator.Evaluator
}

func NewProblemHandler(problems *problem.ProblemService, eval *evaluator.Evaluator) *ProblemHandler {
	return &ProblemHandler{problems: problems, evaluator: eval}
}

func (h *ProblemHandler) RegisterProblemRoutes(g *echo.Group) {
	g.GET("/problems/:id", h.GetProblem)
	g.GET("/languages", h.ListLanguages)
}

func (h *ProblemHandler) RegisterEstimateRoutes(g *echo.Group) {
	g.POST("", h.Estimate)
}

func (h *ProblemHandler) GetProblem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.Validation("invalid problem ID")
	}
	p, err := h.problems.GetProblem(c.Request().Context(), uint(id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProblemHandler) ListLanguages(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"languages": language.Supported(),
	})
}

type EstimateRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Estimate asks the advisor for a non-binding pass estimate.
func (h *ProblemHandler) Estimate(c echo.Context) error {
	var req EstimateRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation(INVALID_REQUEST)
	}
	if req.Code == "" {
		return apperrors.Validation("code is required")
	}
	lang, err := language.Parse(req.Language)
	if err != nil {
		return err
	}
	estimate, err := h.evaluator.Estimate(c.Request().Context(), lang, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"passed":     estimate.Passed,
		"total":      estimate.Total,
		"percentage": estimate.Percentage(),
		"comment":    estimate.Comment,
	})
}
