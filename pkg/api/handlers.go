package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arshadjafri/defi-risk-platform/internal/risk"
	"github.com/arshadjafri/defi-risk-platform/pkg/models"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// PortfolioStore is the portfolio storage the handlers need.
type PortfolioStore interface {
	GetPortfolio(id string) (*models.Portfolio, error)
	GetPortfoliosByUser(userID string) ([]*models.Portfolio, error)
	SavePortfolio(portfolio *models.Portfolio) error
}

// HistoryStore records valuation samples for new portfolios.
type HistoryStore interface {
	AppendValuation(portfolioID string, point models.ValuationPoint) error
}

// MarketStore serves the latest quotes.
type MarketStore interface {
	GetMarketData(symbol string) (*models.MarketData, error)
	GetAllMarketData() ([]*models.MarketData, error)
}

// YieldStore serves the yield opportunity catalog.
type YieldStore interface {
	GetOpportunities() ([]*models.YieldOpportunity, error)
}

// AlertStore serves raised alerts.
type AlertStore interface {
	GetAlertsByUser(userID string, limit int) ([]*models.Alert, error)
}

// RiskMetricsStore retains recently computed bundles for the dashboard.
type RiskMetricsStore interface {
	SaveRiskMetrics(m *models.RiskMetrics) error
	GetRecentRiskMetrics(limit int) ([]*models.RiskMetrics, error)
}

// SentimentStore serves recent aggregated sentiment readings.
type SentimentStore interface {
	GetRecentSentiment(limit int) ([]*models.SentimentData, error)
}

// SentimentAnalyzer aggregates sentiment across sources.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, symbols, sources []string) ([]*models.SentimentData, error)
}

// RiskAssessor computes the risk bundle for a portfolio.
type RiskAssessor interface {
	Assess(ctx context.Context, portfolioID string, timePeriod int) (*models.RiskMetrics, error)
}

// Broadcaster pushes computed bundles to connected dashboard clients.
type Broadcaster interface {
	BroadcastRiskMetrics(userID string, m *models.RiskMetrics)
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	portfolios  PortfolioStore
	history     HistoryStore
	market      MarketStore
	yields      YieldStore
	alerts      AlertStore
	riskMetrics RiskMetricsStore
	sentiments  SentimentStore
	sentiment   SentimentAnalyzer
	assessor    RiskAssessor
	broadcast   Broadcaster
	log         *logger.Logger
}

// HandlerDeps bundles the collaborators the handlers are wired with.
// Broadcast may be nil when no websocket hub is attached.
type HandlerDeps struct {
	Portfolios  PortfolioStore
	History     HistoryStore
	Market      MarketStore
	Yields      YieldStore
	Alerts      AlertStore
	RiskMetrics RiskMetricsStore
	Sentiments  SentimentStore
	Sentiment   SentimentAnalyzer
	Assessor    RiskAssessor
	Broadcast   Broadcaster
}

// NewHandlers creates the API handlers
func NewHandlers(deps HandlerDeps) *Handlers {
	return &Handlers{
		portfolios:  deps.Portfolios,
		history:     deps.History,
		market:      deps.Market,
		yields:      deps.Yields,
		alerts:      deps.Alerts,
		riskMetrics: deps.RiskMetrics,
		sentiments:  deps.Sentiments,
		sentiment:   deps.Sentiment,
		assessor:    deps.Assessor,
		broadcast:   deps.Broadcast,
		log:         logger.GetLogger("api.handlers"),
	}
}

// errorResponse maps classified errors onto HTTP statuses.
func errorResponse(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errors.TypeOf(err) {
	case errors.ErrorTypeInvalidArgument:
		status = http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case errors.ErrorTypeAlreadyExists:
		status = http.StatusConflict
	case errors.ErrorTypeInsufficientData:
		status = http.StatusUnprocessableEntity
	case errors.ErrorTypeUnavailable:
		status = http.StatusServiceUnavailable
	case errors.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HoldingRequest is one token position in a portfolio creation request.
type HoldingRequest struct {
	Symbol  string  `json:"symbol" binding:"required"`
	Balance float64 `json:"balance"`
}

// CreatePortfolioRequest is the body for POST /api/portfolio/create.
// Holdings are optional; without them a demo allocation is used.
type CreatePortfolioRequest struct {
	UserID        string           `json:"user_id" binding:"required"`
	WalletAddress string           `json:"wallet_address" binding:"required"`
	Holdings      []HoldingRequest `json:"holdings"`
}

// demoHoldings is the allocation used when a creation request carries no
// explicit holdings.
var demoHoldings = []HoldingRequest{
	{Symbol: "ETH", Balance: 2.5},
	{Symbol: "USDC", Balance: 1500.0},
	{Symbol: "LINK", Balance: 75.0},
	{Symbol: "UNI", Balance: 40.0},
	{Symbol: "BTC", Balance: 0.15},
}

// CreatePortfolio builds a portfolio from the requested holdings, priced
// at the latest quotes
func (h *Handlers) CreatePortfolio(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, errors.InvalidArgument("invalid request body: "+err.Error()))
		return
	}

	holdings := req.Holdings
	if len(holdings) == 0 {
		holdings = demoHoldings
	}

	portfolio := models.NewPortfolio(req.UserID, req.WalletAddress)
	now := time.Now().UTC()
	total := 0.0

	for _, holding := range holdings {
		if holding.Balance < 0 {
			errorResponse(c, errors.InvalidArgument("negative balance for "+holding.Symbol))
			return
		}

		var price, change float64
		if quote, err := h.market.GetMarketData(holding.Symbol); err == nil {
			price = quote.Price
			change = quote.Change24h
		}

		value := holding.Balance * price
		total += value
		portfolio.Tokens = append(portfolio.Tokens, models.TokenBalance{
			ID:            uuid.NewString(),
			Symbol:        holding.Symbol,
			Balance:       holding.Balance,
			ValueUSD:      value,
			PriceUSD:      price,
			Change24h:     change,
			WalletAddress: req.WalletAddress,
			Timestamp:     now,
		})
	}

	portfolio.TotalValueUSD = total
	portfolio.RiskScore = risk.ScorePortfolio(portfolio.Tokens)
	portfolio.DiversificationScore = risk.DiversificationScore(portfolio.Tokens)

	if err := h.portfolios.SavePortfolio(portfolio); err != nil {
		errorResponse(c, err)
		return
	}

	if err := h.history.AppendValuation(portfolio.ID, models.ValuationPoint{Timestamp: now, ValueUSD: total}); err != nil {
		h.log.Warnf("failed to record initial valuation for portfolio %s: %v", portfolio.ID, err)
	}

	c.JSON(http.StatusOK, portfolio)
}

// GetPortfolio returns one portfolio by ID
func (h *Handlers) GetPortfolio(c *gin.Context) {
	portfolio, err := h.portfolios.GetPortfolio(c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// RiskAnalysisRequest is the body for POST /api/portfolio/:id/risk-analysis.
type RiskAnalysisRequest struct {
	// TimePeriod is the valuation window in days. Zero means the
	// configured default.
	TimePeriod int `json:"time_period"`
}

// AnalyzePortfolioRisk computes the full risk bundle for a portfolio
func (h *Handlers) AnalyzePortfolioRisk(c *gin.Context) {
	id := c.Param("id")

	var req RiskAnalysisRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, errors.InvalidArgument("invalid request body: "+err.Error()))
			return
		}
	}
	if req.TimePeriod < 0 {
		errorResponse(c, errors.InvalidArgument("time_period cannot be negative"))
		return
	}

	bundle, err := h.assessor.Assess(c.Request.Context(), id, req.TimePeriod)
	if err != nil {
		errorResponse(c, err)
		return
	}

	if h.riskMetrics != nil {
		if err := h.riskMetrics.SaveRiskMetrics(bundle); err != nil {
			h.log.Warnf("failed to retain risk metrics for portfolio %s: %v", id, err)
		}
	}

	if h.broadcast != nil {
		if portfolio, err := h.portfolios.GetPortfolio(id); err == nil {
			h.broadcast.BroadcastRiskMetrics(portfolio.UserID, bundle)
		}
	}

	c.JSON(http.StatusOK, bundle)
}

// SentimentAnalysisRequest is the body for POST /api/sentiment/analyze.
type SentimentAnalysisRequest struct {
	Symbols []string `json:"symbols" binding:"required"`
	Sources []string `json:"sources"`
}

// AnalyzeSentiment aggregates sentiment for the requested symbols
func (h *Handlers) AnalyzeSentiment(c *gin.Context) {
	var req SentimentAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, errors.InvalidArgument("invalid request body: "+err.Error()))
		return
	}

	results, err := h.sentiment.Analyze(c.Request.Context(), req.Symbols, req.Sources)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetMarketData returns the latest quote for a symbol
func (h *Handlers) GetMarketData(c *gin.Context) {
	quote, err := h.market.GetMarketData(c.Param("symbol"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetYieldOpportunities returns the yield catalog
func (h *Handlers) GetYieldOpportunities(c *gin.Context) {
	opportunities, err := h.yields.GetOpportunities()
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": opportunities})
}

// DashboardSummary aggregates the headline numbers shown at the top of
// the dashboard.
type DashboardSummary struct {
	TotalPortfolioValue float64 `json:"total_portfolio_value"`
	PortfolioCount      int     `json:"portfolio_count"`
	AvgRiskScore        float64 `json:"avg_risk_score"`
	TotalAlerts         int     `json:"total_alerts"`
}

// GetDashboard returns everything the dashboard renders in one response
func (h *Handlers) GetDashboard(c *gin.Context) {
	userID := c.Param("user_id")

	portfolios, err := h.portfolios.GetPortfoliosByUser(userID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	marketData, err := h.market.GetAllMarketData()
	if err != nil {
		errorResponse(c, err)
		return
	}

	opportunities, err := h.yields.GetOpportunities()
	if err != nil {
		errorResponse(c, err)
		return
	}
	if len(opportunities) > 10 {
		opportunities = opportunities[:10]
	}

	alerts, err := h.alerts.GetAlertsByUser(userID, 10)
	if err != nil {
		errorResponse(c, err)
		return
	}

	riskMetrics := make([]*models.RiskMetrics, 0)
	if h.riskMetrics != nil {
		if recent, err := h.riskMetrics.GetRecentRiskMetrics(10); err == nil {
			riskMetrics = recent
		}
	}

	sentimentData := make([]*models.SentimentData, 0)
	if h.sentiments != nil {
		if recent, err := h.sentiments.GetRecentSentiment(20); err == nil {
			sentimentData = recent
		}
	}

	summary := DashboardSummary{
		PortfolioCount: len(portfolios),
		TotalAlerts:    len(alerts),
	}
	for _, p := range portfolios {
		summary.TotalPortfolioValue += p.TotalValueUSD
		summary.AvgRiskScore += p.RiskScore
	}
	if len(portfolios) > 0 {
		summary.AvgRiskScore /= float64(len(portfolios))
	}

	c.JSON(http.StatusOK, gin.H{
		"portfolios":          portfolios,
		"risk_metrics":        riskMetrics,
		"sentiment_data":      sentimentData,
		"market_data":         marketData,
		"yield_opportunities": opportunities,
		"alerts":              alerts,
		"summary":             summary,
	})
}

// GetAlerts returns the user's most recent alerts, newest first
func (h *Handlers) GetAlerts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			errorResponse(c, errors.InvalidArgument("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	alerts, err := h.alerts.GetAlertsByUser(c.Param("user_id"), limit)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
