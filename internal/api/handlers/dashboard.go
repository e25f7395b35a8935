package handlers

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/rohanj-dev/skystash/internal/api/middleware"
	"github.com/rohanj-dev/skystash/internal/config"
	"github.com/rohanj-dev/skystash/internal/models"
	"github.com/rohanj-dev/skystash/internal/repositories"
	"github.com/rohanj-dev/skystash/internal/utils"
)

const dashboardDateFormat = "Jan 2, 2006 3:04 PM"

type DashboardHandler struct {
	files *repositories.FileStore
}

func NewDashboardHandler(files *repositories.FileStore) *DashboardHandler {
	return &DashboardHandler{files: files}
}

type categorySummary struct {
	Files int64  `json:"files"`
	Date  string `json:"date"`
}

type recentEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

type dashboardView struct {
	Storage struct {
		Total          float64 `json:"total"`          // quota, GB
		Used           float64 `json:"used"`           // GB, 2 decimals
		UsedPercentage int     `json:"usedPercentage"` // rounded
	} `json:"storage"`
	Documents categorySummary `json:"documents"`
	Images    categorySummary `json:"images"`
	Videos    categorySummary `json:"videos"`
	Others    categorySummary `json:"others"`
	Recent    []recentEntry   `json:"recent"`
}

// Summary godoc
// @Summary Storage usage dashboard
// @Description Total bytes used against the quota, per-category breakdown and recent uploads
// @Tags Dashboard
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/dashboard [get]
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w)
		return
	}

	usage, err := h.files.UsageSummary(r.Context(), userID)
	if err != nil {
		slog.Error("dashboard aggregation failed", "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Dashboard fetch failed",
		})
		return
	}

	view := buildDashboardView(usage)

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Dashboard fetched successfully",
		Data:    view,
	})
}

func buildDashboardView(usage *repositories.Usage) dashboardView {
	quotaGB := float64(config.StorageQuotaBytes) / float64(1<<30)
	usedGB := math.Round(float64(usage.TotalBytes)/float64(1<<30)*100) / 100

	var view dashboardView
	view.Storage.Total = quotaGB
	view.Storage.Used = usedGB
	view.Storage.UsedPercentage = int(math.Round(usedGB / quotaGB * 100))

	view.Documents = summarizeCategory(usage, models.CategoryDocument)
	view.Images = summarizeCategory(usage, models.CategoryImage)
	view.Videos = summarizeCategory(usage, models.CategoryVideoOrAudio)
	view.Others = summarizeCategory(usage, models.CategoryOther)

	view.Recent = make([]recentEntry, 0, len(usage.Recent))
	for _, f := range usage.Recent {
		view.Recent = append(view.Recent, recentEntry{
			ID:   f.ID.String(),
			Name: f.Name,
			Date: f.CreatedAt.Format(dashboardDateFormat),
		})
	}
	return view
}

func summarizeCategory(usage *repositories.Usage, category models.Category) categorySummary {
	cu := usage.ByCategory[category]
	summary := categorySummary{Files: cu.Count, Date: "-"}
	if cu.LatestUpload != nil {
		summary.Date = cu.LatestUpload.Format(dashboardDateFormat)
	}
	return summary
}
