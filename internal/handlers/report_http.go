package handlers

import (
	"net/http"
	"time"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/repository"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/utils"
)

type ReportsHTTP struct {
	repo repository.TicketRepository
}

func NewReportsHTTP(r repository.TicketRepository) *ReportsHTTP { return &ReportsHTTP{repo: r} }

// GET /api/reports/summary
// Returns: { open, resolved7d, highCriticalOpen }
func (h *ReportsHTTP) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		open, err := h.repo.CountByStatuses(r.Context(),
			[]string{models.StatusOpen, models.StatusInProgress, models.StatusWaiting})
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to build report")
			return
		}
		resolved7d, err := h.repo.CountResolvedSince(r.Context(), time.Now().Add(-7*24*time.Hour))
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to build report")
			return
		}
		highCritOpen, err := h.repo.CountOpenByPriorities(r.Context(),
			[]string{models.PriorityHigh, models.PriorityCritical})
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to build report")
			return
		}
		utils.JSON(w, http.StatusOK, map[string]int{
			"open":             open,
			"resolved7d":       resolved7d,
			"highCriticalOpen": highCritOpen,
		})
	}
}
