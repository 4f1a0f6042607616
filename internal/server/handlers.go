package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dcaBot/internal/finance"
	"dcaBot/internal/storage"
)

type handler struct {
	Deps
}

// simulateRequest is the JSON body of /api/simulate and /api/chart. Omitted
// fields keep their defaults.
type simulateRequest struct {
	Tickers           string   `json:"tickers"` // comma separated
	IndexTicker       *string  `json:"indexTicker"`
	StartDate         string   `json:"startDate"`
	EndDate           string   `json:"endDate"`
	InitialInvestment *float64 `json:"initialInvestment"`
	Contribution      *float64 `json:"contribution"`
	Frequency         string   `json:"frequency"`
}

func (r simulateRequest) toRequest() (finance.Request, error) {
	req := finance.DefaultRequest()
	if strings.TrimSpace(r.Tickers) != "" {
		req.Tickers = finance.SplitTickers(r.Tickers)
	}
	if r.IndexTicker != nil {
		req.Benchmark = *r.IndexTicker
	}
	var err error
	if r.StartDate != "" {
		if req.Start, err = finance.ParseDate("startDate", r.StartDate); err != nil {
			return finance.Request{}, err
		}
	}
	if r.EndDate != "" {
		if req.End, err = finance.ParseDate("endDate", r.EndDate); err != nil {
			return finance.Request{}, err
		}
	}
	if r.InitialInvestment != nil {
		req.InitialInvestment = *r.InitialInvestment
	}
	if r.Contribution != nil {
		req.Contribution = *r.Contribution
	}
	if r.Frequency != "" {
		if req.Frequency, err = finance.ParseFrequency(r.Frequency); err != nil {
			return finance.Request{}, err
		}
	}
	return req, nil
}

type holding struct {
	Symbol   string  `json:"symbol"`
	Shares   int64   `json:"shares"`
	Price    float64 `json:"price"`
	Value    float64 `json:"value"`
	Leftover float64 `json:"leftover"`
}

type simulateResponse struct {
	RunID        string            `json:"runId,omitempty"`
	Tickers      []string          `json:"tickers"`
	IndexTicker  string            `json:"indexTicker,omitempty"`
	Source       string            `json:"source"`
	Frequency    finance.Frequency `json:"frequency"`
	Contribution float64           `json:"contribution"`
	Portfolio    finance.Summary   `json:"portfolio"`
	Index        *finance.Summary  `json:"index,omitempty"`
	Holdings     []holding         `json:"holdings"`
	Rows         []finance.Row     `json:"rows"`
}

func (h *handler) run(c *gin.Context) (*finance.Comparison, bool) {
	var body simulateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	req, err := body.toRequest()
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()
	cmp, err := h.Simulator.Run(ctx, req)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return cmp, true
}

func (h *handler) simulate(c *gin.Context) {
	cmp, ok := h.run(c)
	if !ok {
		return
	}
	resp := simulateResponse{
		Tickers:      cmp.Request.Tickers,
		IndexTicker:  cmp.Request.Benchmark,
		Source:       cmp.Source,
		Frequency:    cmp.Frequency,
		Contribution: cmp.Contribution,
		Portfolio:    cmp.PortfolioSummary,
		Rows:         cmp.Rows(),
	}
	if cmp.Benchmark != nil {
		s := cmp.BenchmarkSummary
		resp.Index = &s
	}
	for _, hd := range cmp.Portfolio.Final().Holdings {
		resp.Holdings = append(resp.Holdings, holding{
			Symbol:   hd.AssetID,
			Shares:   hd.Shares,
			Price:    hd.Price.InexactFloat64(),
			Value:    hd.Value().InexactFloat64(),
			Leftover: hd.Leftover.InexactFloat64(),
		})
	}
	if h.Store != nil {
		run, err := h.Store.SaveRun(storage.NewRun(0, cmp))
		if err != nil {
			slog.Error("http: save run failed", "err", err)
		} else {
			resp.RunID = run.ID
		}
	}
	c.JSON(http.StatusOK, resp)
}

// runs lists the latest API runs, ?limit=N (default 10, max 100).
func (h *handler) runs(c *gin.Context) {
	limit := 10
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, 100)
	}
	out, err := h.Store.RecentRuns(0, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if out == nil {
		out = []storage.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (h *handler) chart(c *gin.Context) {
	cmp, ok := h.run(c)
	if !ok {
		return
	}
	img, err := h.Charts.ComparisonChart(cmp)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}
