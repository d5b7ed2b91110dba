package handlers

import (
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/services"
  "github.com/orienta-app/orienta-backend/internal/types"
)

type DiagnosticHandler struct {
  diagnosticSvc    services.DiagnosticService
  questionnaireSvc services.QuestionnaireService
}

func NewDiagnosticHandler(diagnosticSvc services.DiagnosticService, questionnaireSvc services.QuestionnaireService) *DiagnosticHandler {
  return &DiagnosticHandler{
    diagnosticSvc:    diagnosticSvc,
    questionnaireSvc: questionnaireSvc,
  }
}

type createDiagnosticRequest struct {
  Provider     string `json:"provider"`
  PhoneNumber  string `json:"phone_number"`
  OperatorCode string `json:"operator_code"`
  SuccessURL   string `json:"success_url"`
  CancelURL    string `json:"cancel_url"`
}

// POST /api/diagnostics
func (h *DiagnosticHandler) Create(c *gin.Context) {
  var req createDiagnosticRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  result, err := h.diagnosticSvc.Create(c.Request.Context(), services.CreateDiagnosticInput{
    Provider:     types.PaymentProvider(req.Provider),
    PhoneNumber:  req.PhoneNumber,
    OperatorCode: req.OperatorCode,
    SuccessURL:   req.SuccessURL,
    CancelURL:    req.CancelURL,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusCreated, result)
}

// GET /api/diagnostics/:id
func (h *DiagnosticHandler) Get(c *gin.Context) {
  diagnosticID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  diagnostic, err := h.diagnosticSvc.Get(c.Request.Context(), diagnosticID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{
    "diagnostic": diagnostic,
    "next_step":  h.diagnosticSvc.NextStep(diagnostic),
  })
}

// GET /api/diagnostics/:id/blocs/:bloc
func (h *DiagnosticHandler) GetBloc(c *gin.Context) {
  diagnosticID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }
  bloc, err := strconv.Atoi(c.Param("bloc"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  view, err := h.questionnaireSvc.GetBloc(c.Request.Context(), diagnosticID, bloc)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, view)
}

type submitBlocRequest struct {
  // Answers maps question id to the selected option value.
  Answers map[string]string `json:"answers"`
}

// POST /api/diagnostics/:id/blocs/:bloc
func (h *DiagnosticHandler) SubmitBloc(c *gin.Context) {
  diagnosticID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }
  bloc, err := strconv.Atoi(c.Param("bloc"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }
  var req submitBlocRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  result, err := h.questionnaireSvc.SubmitBloc(c.Request.Context(), diagnosticID, bloc, req.Answers)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, result)
}

// GET /api/diagnostics/:id/results
func (h *DiagnosticHandler) Results(c *gin.Context) {
  diagnosticID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  results, err := h.diagnosticSvc.Results(c.Request.Context(), diagnosticID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, results)
}

// GET /api/diagnostics/:id/report/status
func (h *DiagnosticHandler) ReportStatus(c *gin.Context) {
  diagnosticID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  diagnostic, err := h.diagnosticSvc.Get(c.Request.Context(), diagnosticID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"ready": diagnostic.PDFGenerated})
}

// GET /api/diagnostics/:id/report
func (h *DiagnosticHandler) DownloadReport(c *gin.Context) {
  diagnosticID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  url, err := h.diagnosticSvc.DownloadURL(c.Request.Context(), diagnosticID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.Redirect(http.StatusFound, url)
}
