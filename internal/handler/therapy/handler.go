package therapy

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful-mate/backend/internal/analysis/crisis"
	"github.com/zhouzirui/mindful-mate/backend/internal/service/technique"
	"github.com/zhouzirui/mindful-mate/backend/pkg/utils"
)

// Handler 治疗技巧与危机资源接口
type Handler struct {
	catalog *technique.Catalog
}

// New 创建处理器
func New(catalog *technique.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/techniques", h.handleList)
	r.Get("/techniques/{name}", h.handleTechnique)
	r.Get("/crisis-resources", h.handleCrisisResources)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{"techniques": h.catalog.Names()})
}

// handleTechnique returns a guide; ?guided=true returns the step-by-step variant.
func (h *Handler) handleTechnique(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if guided, _ := strconv.ParseBool(r.URL.Query().Get("guided")); guided {
		ex, ok := h.catalog.Guided(name)
		if !ok {
			utils.RespondError(w, http.StatusNotFound, "Technique not found")
			return
		}
		utils.RespondJSON(w, http.StatusOK, ex)
		return
	}

	guide, ok := h.catalog.Lookup(name)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "Technique not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, guide)
}

type hotline struct {
	Number      string `json:"number"`
	Description string `json:"description"`
	Available   string `json:"available"`
}

type onlineResource struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type crisisResources struct {
	ImmediateHelp   map[string]hotline `json:"immediate_help"`
	OnlineResources []onlineResource   `json:"online_resources"`
	SafetyPlanning  []string           `json:"safety_planning"`
}

var staticResources = crisisResources{
	ImmediateHelp: map[string]hotline{
		"suicide_crisis_lifeline": {Number: crisis.Lifeline, Description: "24/7 suicide and crisis prevention", Available: "24/7"},
		"crisis_text_line":        {Number: crisis.CrisisTextMsg, Description: "24/7 crisis support via text", Available: "24/7"},
		"emergency_services":      {Number: crisis.Emergency, Description: "Emergency medical services", Available: "24/7"},
	},
	OnlineResources: []onlineResource{
		{Name: "National Suicide Prevention Lifeline", URL: "https://suicidepreventionlifeline.org", Description: "Resources and chat support"},
		{Name: "Crisis Text Line", URL: "https://crisistextline.org", Description: "Text-based crisis support"},
	},
	SafetyPlanning: []string{
		"Remove or secure means of self-harm",
		"Reach out to trusted friends or family",
		"Contact mental health professionals",
		"Go to emergency room if in immediate danger",
	},
}

func (h *Handler) handleCrisisResources(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, staticResources)
}
