package adaptor

import (
	"net/http"

	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

type AdminHandler struct {
	sweeper SweepRunner
	log     *zap.Logger
}

func NewAdminHandler(sweeper SweepRunner, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		sweeper: sweeper,
		log:     log.With(zap.String("handler", "admin")),
	}
}

// RunSweeper handles POST /api/admin/sweeper/run
func (h *AdminHandler) RunSweeper(w http.ResponseWriter, r *http.Request) {
	expired, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "run expiry sweep")
		return
	}

	utils.ResponseSuccess(w, "Sweep finished", response.SweepResponse{Expired: expired})
}
